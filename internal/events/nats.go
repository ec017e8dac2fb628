// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

//go:build nats

package events

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/config"
	"github.com/tomtom215/inkpost/internal/logging"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
	natsCloseTimeout  = 10 * time.Second
	natsReadyTimeout  = 30 * time.Second
)

// NATSAvailable reports whether this binary was built with the nats tag.
const NATSAvailable = true

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newNATSBus(cfg config.EventsConfig, logger zerolog.Logger) (*Bus, error) {
	var embedded *server.Server
	clientURL := cfg.NATSURL

	if cfg.Embedded {
		host, port, err := listenAddr(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		embedded, err = startEmbeddedServer(host, port)
		if err != nil {
			return nil, err
		}
		clientURL = embedded.ClientURL()
		logger.Info().Str("url", clientURL).Msg("Embedded NATS server started")
	}

	bus, err := dialNATS(clientURL, cfg.Topic, logger)
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, err
	}

	if embedded != nil {
		bus.closers = append(bus.closers, func() error {
			embedded.Shutdown()
			embedded.WaitForShutdown()
			return nil
		})
	}
	return bus, nil
}

// dialNATS connects a core NATS publisher and subscriber. JetStream is not
// used and there is no queue group, so every instance receives every event.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func dialNATS(natsURL, topic string, logger zerolog.Logger) (*Bus, error) {
	wmLogger := logging.NewWatermillLoggerWithLogger(logger)
	natsOpts := natsOptions(wmLogger)

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         natsURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              natsURL,
		SubscribersCount: 1,
		CloseTimeout:     natsCloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return newBus(pub, sub, topic, config.EventsBackendNATS, logger), nil
}

func natsOptions(logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(natsMaxReconnects),
		natsgo.ReconnectWait(natsReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			fields := watermill.LogFields{}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			logger.Error("NATS error", err, fields)
		}),
	}
}

// startEmbeddedServer runs an in-process NATS server. Port -1 picks a free port.
func startEmbeddedServer(host string, port int) (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "inkpost-events",
		Host:       host,
		Port:       port,
		NoSigs:     true,
		MaxPayload: 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(natsReadyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within %s", natsReadyTimeout)
	}
	return ns, nil
}

// listenAddr extracts the host and port an embedded server should bind from a client URL.
func listenAddr(natsURL string) (string, int, error) {
	u, err := url.Parse(natsURL)
	if err != nil {
		return "", 0, fmt.Errorf("parse nats url: %w", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return u.Hostname(), server.DEFAULT_PORT, nil //nolint:nilerr // url without port uses the NATS default
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid nats port %q: %w", portStr, err)
	}
	return host, port, nil
}
