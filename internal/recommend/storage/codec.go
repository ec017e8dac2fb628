// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tomtom215/inkpost/internal/recommend/model"
)

var (
	// ErrModelAbsent is returned when no usable bundle exists.
	// Missing and corrupt bundles both satisfy errors.Is(err, ErrModelAbsent).
	ErrModelAbsent = errors.New("model bundle absent")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("model store closed")
)

// Metadata describes a stored bundle.
type Metadata struct {
	// Version is the monotonically increasing store version.
	Version int `json:"version"`

	// BuiltAt is the bundle build timestamp.
	BuiltAt time.Time `json:"built_at"`

	// SavedAt is when the bundle was written.
	SavedAt time.Time `json:"saved_at"`

	// Documents is the number of matrix rows.
	Documents int `json:"documents"`

	// VocabularySize is the number of model dimensions.
	VocabularySize int `json:"vocabulary_size"`

	// Checksum is the SHA-256 of the uncompressed bundle encoding.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the persisted envelope shared by all backends.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store is implemented by every bundle backend.
type Store interface {
	Save(ctx context.Context, b *model.Bundle) error
	Load(ctx context.Context) (*model.Bundle, error)
	IsStale(ctx context.Context) (bool, error)
	Metadata(ctx context.Context) (*Metadata, error)
	Close() error
}

// corrupt wraps a decode failure so it reads as an absent bundle.
func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrModelAbsent, fmt.Sprintf(format, args...))
}

// encodeBundle serializes b into the storedFile envelope for the given version.
func encodeBundle(b *model.Bundle, version int, savedAt time.Time) ([]byte, Metadata, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(b); err != nil {
		return nil, Metadata{}, fmt.Errorf("encode bundle: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, Metadata{}, fmt.Errorf("compress bundle: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, Metadata{}, fmt.Errorf("finalize compression: %w", err)
	}

	meta := Metadata{
		Version:        version,
		BuiltAt:        b.BuiltAt,
		SavedAt:        savedAt.UTC(),
		Documents:      b.Len(),
		VocabularySize: b.Vocabulary.Len(),
		Checksum:       hex.EncodeToString(hash[:]),
		SizeBytes:      int64(compressed.Len()),
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return nil, Metadata{}, fmt.Errorf("encode envelope: %w", err)
	}
	return out.Bytes(), meta, nil
}

// decodeEnvelope reads the storedFile envelope without decompressing the payload.
func decodeEnvelope(r io.Reader) (*storedFile, error) {
	var sf storedFile
	if err := gob.NewDecoder(r).Decode(&sf); err != nil {
		return nil, corrupt("read envelope: %v", err)
	}
	return &sf, nil
}

// decodeBundle verifies and decodes the payload of an envelope.
func decodeBundle(sf *storedFile) (*model.Bundle, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, corrupt("decompress bundle: %v", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close after full read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, corrupt("read decompressed bundle: %v", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, corrupt("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	var b model.Bundle
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&b); err != nil {
		return nil, corrupt("decode bundle: %v", err)
	}
	if b.Vocabulary == nil && len(b.IDs) == 0 {
		b.Vocabulary = &model.Vocabulary{}
	}
	if err := b.Validate(); err != nil {
		return nil, corrupt("%v", err)
	}
	b.Version = sf.Metadata.Version
	return &b, nil
}

// bundleCache holds the most recently decoded bundle keyed by version.
type bundleCache struct {
	mu      sync.RWMutex
	version int
	bundle  *model.Bundle
}

func (c *bundleCache) get(version int) (*model.Bundle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bundle == nil || c.version != version {
		return nil, false
	}
	return c.bundle, true
}

func (c *bundleCache) put(b *model.Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = b.Version
	c.bundle = b
}

func (c *bundleCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = 0
	c.bundle = nil
}

// staleness applies the expiry policy to a load result.
func staleness(b *model.Bundle, err error, now time.Time, expiry time.Duration) (bool, error) {
	if errors.Is(err, ErrModelAbsent) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return b.StaleAt(now, expiry), nil
}

//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(storedFile{})
	gob.Register(Metadata{})
}
