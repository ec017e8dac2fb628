// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

/*
Package cache provides a generic in-memory TTL cache.

The recommendation engine keeps ranked similarity results here, keyed by
model version, post id and limit. A model rebuild clears the cache, and the
version component of the key keeps entries from different bundles apart in
the window between a save and the clear.

# Usage

	c := cache.New[[]model.DocumentID](cache.Options{
	    TTL:        5 * time.Minute,
	    MaxEntries: 10000,
	})
	defer c.Close()

	key := cache.GenerateKey("similar", struct {
	    Version int
	    ID      model.DocumentID
	    Limit   int
	}{bundle.Version, id, limit})

	if ids, ok := c.Get(key); ok {
	    return ids
	}

# Eviction

Entries expire after their TTL and are removed lazily on Get and by a
background sweep. When MaxEntries is reached, expired entries are swept and,
if none were expired, the entry closest to expiry is evicted.

# Thread Safety

All methods are safe for concurrent use. Statistics use atomic counters.
*/
package cache
