// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/inkpost/internal/recommend/model"
)

// errVanished reports a bundle file removed between listing and opening.
var errVanished = errors.New("bundle file vanished")

func absentIfVanished(err error) error {
	if errors.Is(err, errVanished) {
		return ErrModelAbsent
	}
	return err
}

const (
	bundlePrefix = "bundle_v"
	bundleSuffix = ".gob.gz"
	tempPattern  = ".bundle-*.tmp"
)

// Options configures a store.
type Options struct {
	// Dir is the storage directory (FileStore) or BadgerDB path (BadgerStore).
	Dir string

	// Expiry is the bundle age after which IsStale reports true.
	Expiry time.Duration

	// KeepVersions is how many file versions survive a save. Minimum 1.
	KeepVersions int

	// InMemory opens BadgerDB without touching disk. Ignored by FileStore.
	InMemory bool

	// Now overrides the clock used for staleness checks.
	Now func() time.Time
}

func (o *Options) applyDefaults() {
	if o.Expiry <= 0 {
		o.Expiry = 24 * time.Hour
	}
	if o.KeepVersions < 1 {
		o.KeepVersions = 1
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// FileStore persists bundles as versioned files in a directory.
type FileStore struct {
	dir    string
	opts   Options
	logger zerolog.Logger

	// writeMu serializes saves and prunes within this process.
	writeMu sync.Mutex
	cache   bundleCache
	closed  bool
	closeMu sync.RWMutex
}

// NewFileStore creates a file-backed store, creating the directory if needed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFileStore(opts Options, logger zerolog.Logger) (*FileStore, error) {
	if opts.Dir == "" {
		return nil, errors.New("storage directory is required")
	}
	opts.applyDefaults()

	if err := os.MkdirAll(opts.Dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	return &FileStore{
		dir:    opts.Dir,
		opts:   opts,
		logger: logger.With().Str("component", "model_store").Str("backend", "file").Logger(),
	}, nil
}

// Save writes b as the next version and prunes old versions.
// The bundle's Version field is set to the assigned version.
func (s *FileStore) Save(ctx context.Context, b *model.Bundle) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	versions, err := s.listVersions()
	if err != nil {
		return err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[0] + 1
	}

	data, meta, err := encodeBundle(b, next, time.Now())
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save bundle: %w", err)
	}

	if err := s.writeAtomic(s.bundlePath(next), data); err != nil {
		return err
	}

	b.Version = next
	s.cache.put(b)

	s.logger.Debug().
		Int("version", next).
		Int("documents", meta.Documents).
		Int("vocabulary", meta.VocabularySize).
		Int64("size_bytes", meta.SizeBytes).
		Msg("saved model bundle")

	if err := s.pruneLocked(s.opts.KeepVersions); err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune old model bundles")
	}
	return nil
}

// writeAtomic writes data to a temp file in the store directory, syncs it
// and renames it over path.
func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) } //nolint:errcheck // best-effort removal of a failed write

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write already failed
		cleanup()
		return fmt.Errorf("write temp bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync already failed
		cleanup()
		return fmt.Errorf("sync temp bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp bundle: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("publish bundle: %w", err)
	}
	return nil
}

// Load returns the newest bundle, or ErrModelAbsent.
func (s *FileStore) Load(ctx context.Context) (*model.Bundle, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	sf, version, err := s.latestEnvelope(func(v int) bool {
		_, ok := s.cache.get(v)
		return ok
	})
	if err != nil {
		return nil, err
	}
	if sf == nil {
		if b, ok := s.cache.get(version); ok {
			return b, nil
		}
		// Evicted between the check and now; read it from disk.
		if sf, err = s.readEnvelope(version); err != nil {
			return nil, absentIfVanished(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}

	b, err := decodeBundle(sf)
	if err != nil {
		s.logger.Warn().Err(err).Int("version", version).Msg("model bundle unreadable, treating as absent")
		return nil, err
	}
	s.cache.put(b)
	return b, nil
}

// Metadata returns the newest bundle's metadata without decoding the matrix.
func (s *FileStore) Metadata(ctx context.Context) (*Metadata, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	sf, _, err := s.latestEnvelope(nil)
	if err != nil {
		return nil, err
	}
	return &sf.Metadata, nil
}

// latestEnvelope reads the envelope of the newest version. When cached
// reports the newest version as already decoded, it returns a nil envelope
// and that version without touching the file. A version pruned by a
// concurrent writer between listing and opening triggers a rescan.
func (s *FileStore) latestEnvelope(cached func(int) bool) (*storedFile, int, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		versions, err := s.listVersions()
		if err != nil {
			return nil, 0, err
		}
		if len(versions) == 0 {
			return nil, 0, ErrModelAbsent
		}
		latest := versions[0]
		if cached != nil && cached(latest) {
			return nil, latest, nil
		}

		sf, err := s.readEnvelope(latest)
		if errors.Is(err, errVanished) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		return sf, latest, nil
	}
	return nil, 0, ErrModelAbsent
}

// IsStale reports whether the bundle is absent, unreadable or older than the expiry.
func (s *FileStore) IsStale(ctx context.Context) (bool, error) {
	b, err := s.Load(ctx)
	return staleness(b, err, s.opts.Now(), s.opts.Expiry)
}

// pruneLocked removes all but the newest keep versions. Callers hold writeMu.
func (s *FileStore) pruneLocked(keep int) error {
	if keep < 1 {
		keep = 1
	}
	versions, err := s.listVersions()
	if err != nil {
		return err
	}
	var errs []error
	for _, v := range versions[min(keep, len(versions)):] {
		if err := os.Remove(s.bundlePath(v)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove version %d: %w", v, err))
		}
	}
	return errors.Join(errs...)
}

// Close marks the store closed and drops the cached bundle.
func (s *FileStore) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	s.closed = true
	s.cache.reset()
	return nil
}

func (s *FileStore) checkOpen() error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *FileStore) readEnvelope(version int) (*storedFile, error) {
	f, err := os.Open(s.bundlePath(version))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errVanished
	}
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // close after read is not actionable

	return decodeEnvelope(f)
}

// listVersions scans the directory for complete bundle files, newest first.
func (s *FileStore) listVersions() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if v, ok := parseBundleFilename(entry.Name()); ok {
			versions = append(versions, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	return versions, nil
}

func (s *FileStore) bundlePath(version int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d%s", bundlePrefix, version, bundleSuffix))
}

// parseBundleFilename extracts the version from a name like "bundle_v12.gob.gz".
func parseBundleFilename(name string) (int, bool) {
	if !strings.HasPrefix(name, bundlePrefix) || !strings.HasSuffix(name, bundleSuffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, bundlePrefix), bundleSuffix)
	v, err := strconv.Atoi(digits)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}
