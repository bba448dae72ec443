package dispatch

import (
	"WaReply/entity"
	"context"
)

type Core interface {
	GetDispatches(ctx context.Context, from string, limit int) ([]entity.DispatchRecord, error)
}
