// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

//go:build !nats

package events

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/config"
)

// ErrNATSUnavailable is returned when the nats backend is requested from a
// binary built without the nats tag.
var ErrNATSUnavailable = errors.New("nats events backend not compiled in (build with -tags nats)")

// NATSAvailable reports whether this binary was built with the nats tag.
const NATSAvailable = false

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newNATSBus(_ config.EventsConfig, _ zerolog.Logger) (*Bus, error) {
	return nil, ErrNATSUnavailable
}
