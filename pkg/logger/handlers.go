package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

var (
	emailRegex      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	sensitiveKeyHit = []string{"token", "password", "secret", "seed", "nkey", "sig", "jwt", "auth_token", "authorization", "bearer", "cookie"}
)

// RedactHandler scrubs attribute values keyed by anything that looks like
// a credential (auth tokens, NKey seeds/signatures, raw JWTs) before a
// record reaches its sink. The wire codec and auth packages never log
// payloads or seeds directly, but callers attaching ad-hoc attrs to a
// context logger get this net for free.
type RedactHandler struct {
	next slog.Handler
}

func NewRedactHandler(next slog.Handler) *RedactHandler {
	return &RedactHandler{next: next}
}

func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	newAttrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		newAttrs = append(newAttrs, h.redactAttr(a))
		return true
	})

	r2 := slog.NewRecord(r.Time, r.Level, h.redactString(r.Message), r.PC)
	r2.AddAttrs(newAttrs...)

	return h.next.Handle(ctx, r2)
}

func (h *RedactHandler) redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		newGroup := make([]slog.Attr, len(group))
		for i, sub := range group {
			newGroup[i] = h.redactAttr(sub)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newGroup...)}
	}

	if a.Value.Kind() == slog.KindString {
		key := strings.ToLower(a.Key)
		for _, hit := range sensitiveKeyHit {
			if strings.Contains(key, hit) {
				return slog.String(a.Key, "[REDACTED]")
			}
		}
		return slog.String(a.Key, h.redactString(a.Value.String()))
	}
	return a
}

func (h *RedactHandler) redactString(s string) string {
	return emailRegex.ReplaceAllString(s, "[EMAIL]")
}

func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &RedactHandler{next: h.next.WithAttrs(redacted)}
}

func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{next: h.next.WithGroup(name)}
}
