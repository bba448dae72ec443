package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"WaReply/entity"
	"WaReply/internal/config"
	"WaReply/internal/lib/sl"
	"WaReply/internal/service/greeting"

	"github.com/google/uuid"
)

const (
	EventReceived = "EVENT_RECEIVED"

	modeSubscribe  = "subscribe"
	maxPayloadSize = 1 << 20
	recordTimeout  = 5 * time.Second
)

// Sender delivers a text reply. A nil result means nothing was sent.
type Sender interface {
	SendMessage(ctx context.Context, recipientPhone, text string) *entity.SendResult
}

type Recorder interface {
	SaveDispatch(ctx context.Context, record entity.DispatchRecord) error
}

type Notifier interface {
	BroadcastDispatch(record entity.DispatchRecord)
}

// WhatsAppBot answers the webhook handshake and replies to greetings.
type WhatsAppBot struct {
	log         *slog.Logger
	verifyToken string
	reply       string
	timeout     time.Duration
	classifier  *greeting.Classifier
	sender      Sender
	recorder    Recorder
	notifier    Notifier
	inflight    sync.WaitGroup
}

func NewWhatsAppBot(conf *config.Config, sender Sender, log *slog.Logger) *WhatsAppBot {
	return &WhatsAppBot{
		log:         log.With(sl.Module("whatsappbot")),
		verifyToken: conf.WhatsApp.VerifyToken,
		reply:       conf.Greeting.Reply,
		timeout:     conf.SendTimeout(),
		classifier:  greeting.NewClassifier(conf.Greeting.Phrases),
		sender:      sender,
	}
}

func (b *WhatsAppBot) SetRecorder(recorder Recorder) {
	b.recorder = recorder
}

func (b *WhatsAppBot) SetNotifier(notifier Notifier) {
	b.notifier = notifier
}

// HandleWebhookVerification handles the GET request for webhook verification
func (b *WhatsAppBot) HandleWebhookVerification(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == modeSubscribe && token == b.verifyToken {
		b.log.Info("webhook verified")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}

	b.log.Warn("webhook verification failed",
		slog.String("mode", mode),
		slog.Bool("token_match", token == b.verifyToken),
	)
	w.WriteHeader(http.StatusForbidden)
}

// HandleWebhook acknowledges the delivery before any processing and hands
// the payload to a background task.
func (b *WhatsAppBot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	defer r.Body.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(EventReceived))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if err != nil {
		b.log.Error("failed to read request body", sl.Err(err))
		return
	}

	b.dispatch(body)
}

// Wait blocks until all background dispatches have finished.
func (b *WhatsAppBot) Wait() {
	b.inflight.Wait()
}

func (b *WhatsAppBot) dispatch(body []byte) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.With(
					slog.Any("panic", r),
				).Error("dispatch webhook payload")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		b.process(ctx, body)
	}()
}

func (b *WhatsAppBot) process(ctx context.Context, body []byte) {
	receivedAt := time.Now()

	event, err := DecodeEvent(body)
	if err != nil {
		if errors.Is(err, ErrMalformedPayload) {
			b.log.Warn("ignoring webhook payload", sl.Err(err))
		} else {
			b.log.Debug("no text message in payload", sl.Err(err))
		}
		return
	}

	text := greeting.Normalize(event.Text)
	b.log.Info("received message",
		slog.String("sender_phone", event.From),
		slog.String("text", text),
	)

	record := entity.DispatchRecord{
		ID:         uuid.NewString(),
		MessageID:  event.MessageID,
		From:       event.From,
		Name:       event.Name,
		Text:       text,
		ReceivedAt: receivedAt,
	}

	phrase, ok := b.classifier.Match(text)
	if ok {
		record.Greeting = true
		record.Phrase = phrase
		b.log.Info("greeting recognized, replying",
			slog.String("sender_phone", event.From),
			slog.String("phrase", phrase),
		)

		result := b.sender.SendMessage(ctx, event.From, b.reply)
		if result != nil {
			record.Replied = true
			record.ReplyID = result.MessageID()
		} else {
			record.Error = "reply not sent"
		}
	}

	record.CompletedAt = time.Now()
	b.finish(ctx, record)
}

// finish runs on its own deadline so a send that used up the dispatch
// timeout still gets recorded.
func (b *WhatsAppBot) finish(ctx context.Context, record entity.DispatchRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if b.recorder != nil {
		if err := b.recorder.SaveDispatch(ctx, record); err != nil {
			b.log.With(
				slog.String("dispatch_id", record.ID),
			).Error("save dispatch", sl.Err(fmt.Errorf("recorder: %w", err)))
		}
	}
	if b.notifier != nil {
		b.notifier.BroadcastDispatch(record)
	}
}
