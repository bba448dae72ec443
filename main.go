package main

import (
	"WaReply/bot"
	"WaReply/bot/whatsapp"
	"WaReply/internal/config"
	"WaReply/internal/database"
	"WaReply/internal/http-server/api"
	"WaReply/internal/lib/logger"
	"WaReply/internal/lib/sl"
	"WaReply/internal/ws"
	"context"
	"flag"
	"log/slog"
	"os/signal"
	"syscall"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, logger.ParseLevel(conf.Telegram.AlertLevel))
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram alerts enabled")
		}
	}

	lg.Info("starting wareply", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")
	lg.Warn("inbound webhook payloads are not signature-verified; anyone who knows the URL can inject events")

	if conf.WhatsApp.AccessToken == "" || conf.WhatsApp.PhoneNumberID == "" {
		lg.Error("WHATSAPP_TOKEN or PHONE_ID not set; replies will not be sent")
	}

	client := whatsapp.NewClient(conf, lg)
	waBot := whatsapp.NewWhatsAppBot(conf, client, lg)
	lg.With(
		sl.Secret("access_token", conf.WhatsApp.AccessToken),
		slog.String("phone_number_id", conf.WhatsApp.PhoneNumberID),
		slog.String("api_version", conf.WhatsApp.APIVersion),
		slog.Int("greetings", len(conf.Greeting.Phrases)),
	).Info("whatsapp bot initialized")

	opts := api.Options{}

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		waBot.SetRecorder(db)
		opts.Dispatches = db
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo dispatch log initialized")
	}

	if conf.Listen.ApiKey != "" {
		hub := ws.NewHub(lg)
		go hub.Run()
		waBot.SetNotifier(hub)
		opts.Hub = hub
		lg.Info("dispatch monitor enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := api.NewRouter(conf, lg, waBot, opts)

	// *** blocking start with http server ***
	err = api.New(ctx, conf, lg, router)
	if err != nil {
		lg.Error("server start", sl.Err(err))
	}

	waBot.Wait()
	lg.Info("service stopped")
}
