package repository

import (
	"WaReply/entity"
	"context"
	"fmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"log/slog"
)

func (m *MongoDB) SaveDispatch(ctx context.Context, record entity.DispatchRecord) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(dispatchesCollection)
	_, err = collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("mongodb insert dispatch: %w", err)
	}

	m.log.With(
		slog.String("dispatch_id", record.ID),
		slog.Bool("replied", record.Replied),
	).Debug("dispatch saved")
	return nil
}

// GetDispatches returns the latest dispatches for a sender, newest first.
func (m *MongoDB) GetDispatches(ctx context.Context, from string, limit int) ([]entity.DispatchRecord, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(dispatchesCollection)

	filter := bson.D{{Key: "from", Value: from}}
	opts := options.Find().
		SetSort(bson.D{{Key: "received_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find dispatches: %w", err)
	}
	defer cursor.Close(ctx)

	var records []entity.DispatchRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongodb decode dispatches: %w", err)
	}
	return records, nil
}
