package log

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync/atomic"
)

var enabledSections atomic.Pointer[[]string]

func init() {
	EnableSections("inference", "scenario")
}

// EnableSections replaces the set of sections whose records below
// slog.LevelWarn are emitted. A section matches every section it prefixes,
// so "inference" also enables "inference.nested".
func EnableSections(sections ...string) {
	s := slices.Clone(sections)
	enabledSections.Store(&s)
}

// Sections returns the currently enabled sections
func Sections() []string {
	return slices.Clone(*enabledSections.Load())
}

var level = new(slog.LevelVar)

// SetLevel changes the minimum level of DefaultLogger
func SetLevel(l slog.Level) {
	level.Set(l)
}

var LoggerOpts = &slog.HandlerOptions{
	AddSource: true,
	Level:     level,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == "time" {
			return slog.Attr{}
		}
		return a
	},
}

var DefaultLogger = slog.New(&filteringHandler{underlying: slog.NewTextHandler(os.Stderr, LoggerOpts)})

var _ slog.Handler = &filteringHandler{}

type filteringHandler struct {
	underlying slog.Handler
	sections   []string
}

func sectionEnabled(name string) bool {
	return slices.ContainsFunc(*enabledSections.Load(), func(section string) bool {
		return strings.HasPrefix(name, section)
	})
}

func (f filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.underlying.Enabled(ctx, level)
}

func (f filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		return f.underlying.Handle(ctx, record)
	}
	wantSection := slices.ContainsFunc(f.sections, sectionEnabled)
	if !wantSection {
		record.Attrs(func(attr slog.Attr) bool {
			wantSection = attr.Key == "section" && sectionEnabled(attr.Value.String())
			// iterate as long as we have not found our section
			return !wantSection
		})
	}
	if !wantSection {
		return nil
	}
	return f.underlying.Handle(ctx, record)
}

func (f filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var newAttrs []slog.Attr
	sections := slices.Clone(f.sections)

	// keep the section attribute in filteringHandler, so it can be
	// re-evaluated if the enabled sections change later
	for _, attr := range attrs {
		if attr.Key == "section" {
			sections = append(sections, attr.Value.String())
		}
		newAttrs = append(newAttrs, attr)
	}
	return &filteringHandler{
		underlying: f.underlying.WithAttrs(newAttrs),
		sections:   sections,
	}
}

func (f filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{
		underlying: f.underlying.WithGroup(name),
		sections:   f.sections,
	}
}

// Section returns DefaultLogger scoped to a section
func Section(name string) *slog.Logger {
	return DefaultLogger.With("section", name)
}
