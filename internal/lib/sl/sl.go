package sl

import (
	"log/slog"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

func Module(mod string) slog.Attr {
	return slog.String("module", mod)
}

// Secret logs only the first characters of a sensitive value.
func Secret(key, value string) slog.Attr {
	runes := []rune(value)
	if len(runes) <= 4 {
		return slog.String(key, "***")
	}
	return slog.String(key, string(runes[:4])+"***")
}
