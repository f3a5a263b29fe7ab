package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilteringHandler(t *testing.T) {
	previous := Sections()
	defer EnableSections(previous...)

	buf := &bytes.Buffer{}
	underlying := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(&filteringHandler{underlying: underlying})

	EnableSections("inference")

	logger.With("section", "inference.nested").Debug("kept")
	logger.With("section", "typesystem").Debug("dropped")
	logger.Debug("also kept", "section", "inference")
	logger.With("section", "typesystem").Warn("warnings always pass")

	out := buf.String()
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "also kept")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "warnings always pass")
}

func TestEnableSectionsAfterWith(t *testing.T) {
	previous := Sections()
	defer EnableSections(previous...)

	buf := &bytes.Buffer{}
	underlying := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(&filteringHandler{underlying: underlying}).With("section", "scenario")

	EnableSections()
	logger.Debug("first")
	EnableSections("scenario")
	logger.Debug("second")

	assert.NotContains(t, buf.String(), "first")
	assert.Contains(t, buf.String(), "second")
}
