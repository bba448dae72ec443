package whatsapp

import (
	"log/slog"
	"net/http"

	"WaReply/internal/lib/sl"
)

type Core interface {
	HandleWebhookVerification(w http.ResponseWriter, r *http.Request)
	HandleWebhook(w http.ResponseWriter, r *http.Request)
}

// WebhookVerify handles GET requests for webhook verification
func WebhookVerify(log *slog.Logger, handler Core) http.HandlerFunc {
	mod := sl.Module("http.handlers.whatsapp")
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(mod).Debug("webhook verification request")
		handler.HandleWebhookVerification(w, r)
	}
}

// WebhookHandler handles POST requests for incoming messages
func WebhookHandler(log *slog.Logger, handler Core) http.HandlerFunc {
	mod := sl.Module("http.handlers.whatsapp")
	return func(w http.ResponseWriter, r *http.Request) {
		log.With(mod).Debug("webhook message received")
		handler.HandleWebhook(w, r)
	}
}
