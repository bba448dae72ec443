package api

import (
	"WaReply/internal/config"
	"WaReply/internal/http-server/handlers/dispatch"
	"WaReply/internal/http-server/handlers/errors"
	"WaReply/internal/http-server/handlers/health"
	"WaReply/internal/http-server/handlers/monitor"
	"WaReply/internal/http-server/handlers/whatsapp"
	"WaReply/internal/http-server/middleware/authenticate"
	"WaReply/internal/http-server/middleware/requestlog"
	"WaReply/internal/lib/sl"
	"WaReply/internal/ws"
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	whatsapp.Core
}

// Options carries the optional collaborators; nil fields disable their routes.
type Options struct {
	Hub        *ws.Hub
	Dispatches dispatch.Core
}

func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, opts Options) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestlog.New(log))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/", whatsapp.WebhookVerify(log, handler))
	router.Post("/", whatsapp.WebhookHandler(log, handler))
	router.Get("/health", health.Check(log))

	key := conf.Listen.ApiKey
	if key != "" && opts.Hub != nil {
		router.Get("/ws", monitor.Events(log, opts.Hub, key))
	}
	if key != "" && opts.Dispatches != nil {
		router.Route("/api/v1", func(v1 chi.Router) {
			v1.Use(authenticate.New(log, key))
			v1.Get("/dispatches", dispatch.List(log, opts.Dispatches))
		})
	}

	return router
}

// New serves the router until ctx is cancelled, then shuts down gracefully.
func New(ctx context.Context, conf *config.Config, log *slog.Logger, router http.Handler) error {
	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:           router,
		ErrorLog:          httpLog,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.httpServer.Serve(listener)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	server.log.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.httpServer.Shutdown(shutdownCtx)
}
