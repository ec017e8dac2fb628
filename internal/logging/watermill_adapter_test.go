// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestWatermillLogger(t *testing.T) {
	withGlobalLevel(t, zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := NewWatermillLoggerWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

	logger.Info("subscribed", watermill.LogFields{"topic": "recommend.model.rebuilt"})
	logger.Error("publish failed", errors.New("nats down"), nil)
	logger.Debug("debug", nil)
	logger.Trace("trace", nil)

	output := buf.String()
	for _, want := range []string{
		`"topic":"recommend.model.rebuilt"`,
		`"error":"nats down"`,
		`"level":"debug"`,
		`"level":"trace"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}

func TestWatermillLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewWatermillLoggerWithLogger(zerolog.New(&buf))

	child := base.With(watermill.LogFields{"subscriber": "cache"})
	child.Info("received", watermill.LogFields{"version": 3})
	base.Info("base", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"subscriber":"cache"`) || !strings.Contains(lines[0], `"version":3`) {
		t.Errorf("child line missing fields: %s", lines[0])
	}
	if strings.Contains(lines[1], "subscriber") {
		t.Errorf("With leaked fields into the parent: %s", lines[1])
	}
}

func TestWatermillLogger_DisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWatermillLoggerWithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden", watermill.LogFields{"k": "v"})

	if buf.Len() != 0 {
		t.Errorf("expected no output, got: %s", buf.String())
	}
}
