// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

// Package storage persists recommendation model bundles.
//
// A bundle (vocabulary, feature matrix, document id index and build
// timestamp) is always written and read as one unit, so a reader can never
// observe parts from different builds. Two backends are provided:
//
//   - FileStore writes versioned files to a directory. Each save goes to a
//     temporary file that is fsynced and then renamed into place, and readers
//     always open the highest complete version.
//   - BadgerStore keeps the bundle under a single key in BadgerDB and
//     replaces it inside one transaction.
//
// # Storage Format
//
// Both backends share the same encoding:
//
//	storedFile (gob)
//	  Metadata        version, build time, sizes, SHA-256 checksum
//	  CompressedData  gzip(gob(model.Bundle))
//
// On disk the FileStore names files bundle_v{version}.gob.gz.
//
// # Absent Bundles
//
// Load returns ErrModelAbsent when nothing was ever saved, and also when the
// newest bundle is truncated, fails its checksum, cannot be decoded or
// violates the bundle invariants. A damaged bundle is never partially
// trusted; callers treat it exactly like a missing one and rebuild.
//
// # Staleness
//
// IsStale compares the bundle's stored build timestamp (never the file
// modification time) against the configured expiry. An absent bundle is
// always stale.
//
// # Concurrency
//
// Saves are last-writer-wins. Within a process the stores serialize writers;
// across processes the rename (FileStore) or transaction (BadgerStore)
// guarantees readers see either the old or the new bundle. Decoded bundles
// are cached by version, so repeated loads of an unchanged store do not
// re-read or re-decode the artifact.
package storage
