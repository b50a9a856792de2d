// Package obslog is a common spot for bazbom logging: a context-carrying
// attribute helper over [log/slog], adapted from claircore's toolkit/log.
package obslog

import (
	"context"
	"log/slog"
	"slices"
)

// ctxkey is a Context key type, unexported so other packages cannot
// construct these values.
type ctxkey int

const (
	_ ctxkey = iota

	// attrsKey retrieves extra logging attributes attached to a context via
	// With/WithAttr. The value is a [slog.Value] of kind "Group".
	attrsKey

	// levelKey retrieves a per-record minimum [slog.Level] attached to a
	// context via WithLevel.
	levelKey
)

// With returns a context with the given key/value pairs (in [slog]'s
// loose "alternating key, value" or [slog.Attr] calling convention) stored
// for later retrieval by a handler wrapped with WrapHandler.
func With(ctx context.Context, args ...any) context.Context {
	return WithAttr(ctx, argsToAttrSlice(args)...)
}

// WithAttr is With, but for callers that already hold [slog.Attr] values.
func WithAttr(ctx context.Context, attrs ...slog.Attr) context.Context {
	if v, ok := ctx.Value(attrsKey).(slog.Value); ok {
		attrs = append(v.Group(), attrs...)
	}
	seen := make(map[string]struct{}, len(attrs))
	del := func(a slog.Attr) bool {
		_, rm := seen[a.Key]
		seen[a.Key] = struct{}{}
		return rm || (a.Value.Kind() == slog.KindGroup && len(a.Value.Group()) == 0)
	}
	slices.Reverse(attrs)
	attrs = slices.DeleteFunc(attrs, del)
	slices.Reverse(attrs)

	return context.WithValue(ctx, attrsKey, slog.GroupValue(attrs...))
}

// WithLevel returns a context with the [slog.Leveler] stored at levelKey,
// letting a single caller ask for more verbose logging along one code path
// (e.g. a single ecosystem under active debugging) without a global level
// change.
func WithLevel(ctx context.Context, l slog.Leveler) context.Context {
	return context.WithValue(ctx, levelKey, l)
}

// WrapHandler wraps next with an interceptor that injects attributes and
// level overrides stored on the record's context by With/WithAttr/WithLevel.
func WrapHandler(next slog.Handler) slog.Handler {
	return handler{next: next}
}

var _ slog.Handler = handler{}

type handler struct {
	next slog.Handler
}

// Enabled implements [slog.Handler].
func (h handler) Enabled(ctx context.Context, l slog.Level) bool {
	rec := slog.Level(1<<31 - 1)
	if lv, ok := ctx.Value(levelKey).(slog.Leveler); ok {
		rec = lv.Level()
	}
	return l >= rec || h.next.Enabled(ctx, l)
}

// Handle implements [slog.Handler].
func (h handler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(attrsKey).(slog.Value); ok {
		r.AddAttrs(v.Group()...)
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements [slog.Handler].
func (h handler) WithAttrs(attrs []slog.Attr) slog.Handler { return h.next.WithAttrs(attrs) }

// WithGroup implements [slog.Handler].
func (h handler) WithGroup(name string) slog.Handler { return h.next.WithGroup(name) }

func argsToAttrSlice(args []any) []slog.Attr {
	var (
		attr  slog.Attr
		attrs []slog.Attr
	)
	for len(args) > 0 {
		attr, args = argsToAttr(args)
		attrs = append(attrs, attr)
	}
	return attrs
}

func argsToAttr(args []any) (slog.Attr, []any) {
	const badKey = `!BADKEY`
	switch x := args[0].(type) {
	case string:
		if len(args) == 1 {
			return slog.String(badKey, x), nil
		}
		return slog.Any(x, args[1]), args[2:]
	case slog.Attr:
		return x, args[1:]
	default:
		return slog.Any(badKey, x), args[1:]
	}
}
