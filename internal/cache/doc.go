// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Package cache keeps short-lived copies of user and video rows in BadgerDB.

User profiles and video metadata are read on almost every catalog request
and change rarely, so Directory answers those lookups from a badger store
(in-memory or on disk) and falls back to the database on a miss.

# Consistency

Entries expire after the configured TTL. Every mutation that changes a cached
row (profile edit, subscription change, video update, delete) calls the
matching Invalidate method. A lookup that read the row just before a delete
can still fill the cache afterwards, so a deleted row may be served until its
TTL runs out. Anything that must not act on a deleted row, such as counting
a view, checks the database instead.

Negative lookups are never cached. A video created right after a miss is
visible on the next request.

# Usage

	dc, err := cache.Open(cfg.Cache)
	if err != nil {
	    return err
	}
	defer dc.Close()

	dir := cache.NewDirectory(dc, db, db)
	svc := videos.NewService(db, dir, host, sink)

Keys are namespaced by kind ("user:<uuid>", "video:<uuid>"). Values are the
JSON encoding of the model.
*/
package cache
