// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// bundleKey holds the encoded envelope. The whole bundle lives under one key
// so a single transaction replaces it atomically.
var bundleKey = []byte("recommend:bundle")

// BadgerStore persists the bundle in BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	owned  bool
	opts   Options
	logger zerolog.Logger
	cache  bundleCache

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewBadgerStore opens a BadgerDB at opts.Dir (or in memory) and wraps it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStore(opts Options, logger zerolog.Logger) (*BadgerStore, error) {
	opts.applyDefaults()

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("badger directory is required")
		}
		bopts = badger.DefaultOptions(opts.Dir)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	s := NewBadgerStoreWithDB(db, opts, logger)
	s.owned = true
	return s, nil
}

// NewBadgerStoreWithDB wraps an already open database. Close does not close db.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStoreWithDB(db *badger.DB, opts Options, logger zerolog.Logger) *BadgerStore {
	opts.applyDefaults()
	return &BadgerStore{
		db:     db,
		opts:   opts,
		logger: logger.With().Str("component", "model_store").Str("backend", "badger").Logger(),
	}
}

// Save replaces the stored bundle with b in one transaction.
// The bundle's Version field is set to the assigned version.
func (s *BadgerStore) Save(ctx context.Context, b *model.Bundle) error {
	if s.isClosed() {
		return ErrStoreClosed
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}

	var meta Metadata
	err := s.db.Update(func(txn *badger.Txn) error {
		next := 1
		current, err := readEnvelope(txn)
		switch {
		case err == nil:
			next = current.Metadata.Version + 1
		case errors.Is(err, ErrModelAbsent):
		default:
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		data, m, err := encodeBundle(b, next, time.Now())
		if err != nil {
			return err
		}
		meta = m
		return txn.Set(bundleKey, data)
	})
	if err != nil {
		return fmt.Errorf("save bundle: %w", err)
	}

	b.Version = meta.Version
	s.cache.put(b)

	s.logger.Debug().
		Int("version", meta.Version).
		Int("documents", meta.Documents).
		Int("vocabulary", meta.VocabularySize).
		Int64("size_bytes", meta.SizeBytes).
		Msg("saved model bundle")
	return nil
}

// Load returns the stored bundle, or ErrModelAbsent.
func (s *BadgerStore) Load(ctx context.Context) (*model.Bundle, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}

	var sf *storedFile
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		sf, err = readEnvelope(txn)
		return err
	})
	if err != nil {
		return nil, err
	}

	if b, ok := s.cache.get(sf.Metadata.Version); ok {
		return b, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}

	b, err := decodeBundle(sf)
	if err != nil {
		s.logger.Warn().Err(err).Int("version", sf.Metadata.Version).Msg("model bundle unreadable, treating as absent")
		return nil, err
	}
	s.cache.put(b)
	return b, nil
}

// Metadata returns the stored bundle's metadata.
func (s *BadgerStore) Metadata(ctx context.Context) (*Metadata, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}
	var meta Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		sf, err := readEnvelope(txn)
		if err != nil {
			return err
		}
		meta = sf.Metadata
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// IsStale reports whether the bundle is absent, unreadable or older than the expiry.
func (s *BadgerStore) IsStale(ctx context.Context) (bool, error) {
	b, err := s.Load(ctx)
	return staleness(b, err, s.opts.Now(), s.opts.Expiry)
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cache.reset()
		if s.owned {
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

func (s *BadgerStore) isClosed() bool {
	return s.closed.Load() || s.db.IsClosed()
}

func readEnvelope(txn *badger.Txn) (*storedFile, error) {
	item, err := txn.Get(bundleKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrModelAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("get bundle: %w", err)
	}

	var sf *storedFile
	err = item.Value(func(val []byte) error {
		var derr error
		sf, derr = decodeEnvelope(bytes.NewReader(val))
		return derr
	})
	if err != nil {
		return nil, err
	}
	return sf, nil
}
