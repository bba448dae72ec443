package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// TelegramSender delivers a plain text alert to the admin chat.
type TelegramSender interface {
	SendMessage(msg string)
}

type telegramHandler struct {
	base   slog.Handler
	sender TelegramSender
	level  slog.Level
	attrs  []slog.Attr
	group  string
}

// SetupTelegramHandler returns a logger that writes to the existing handler
// and also forwards records at or above level to the Telegram sender.
func SetupTelegramHandler(log *slog.Logger, sender TelegramSender, level slog.Level) *slog.Logger {
	return slog.New(&telegramHandler{
		base:   log.Handler(),
		sender: sender,
		level:  level,
	})
}

func (h *telegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || h.base.Enabled(ctx, level)
}

func (h *telegramHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.base.Enabled(ctx, r.Level) {
		err = h.base.Handle(ctx, r)
	}
	if r.Level >= h.level {
		go h.sender.SendMessage(h.format(r))
	}
	return err
}

func (h *telegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.base = h.base.WithAttrs(attrs)
	next.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &next
}

func (h *telegramHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.base = h.base.WithGroup(name)
	if next.group == "" {
		next.group = name
	} else {
		next.group = next.group + "." + name
	}
	return &next
}

func (h *telegramHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: h.group + "." + a.Key, Value: a.Value})
	}
	return out
}

func (h *telegramHandler) format(r slog.Record) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", r.Level.String(), r.Message))
	for _, a := range h.attrs {
		b.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, q := range h.qualify([]slog.Attr{a}) {
			b.WriteString(fmt.Sprintf("\n%s: %s", q.Key, q.Value.String()))
		}
		return true
	})
	return b.String()
}
