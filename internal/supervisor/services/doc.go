// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Package services adapts server components to suture.Service.

Each wrapper turns a component's own lifecycle into a context-aware Serve
that returns when its context is canceled:

  - HTTPServerService: ListenAndServe plus graceful Shutdown (api layer)
  - EmbeddedNATSService: watches and stops an in-process NATS server (data layer)
  - CacheGCService: periodic badger value-log GC for the on-disk cache (data layer)
  - PublisherService: closes the event publisher on shutdown (messaging layer)

The wrappers depend on small interfaces rather than the concrete types so
they can be tested without sockets or a broker.

Example:

	srv := &http.Server{Addr: addr, Handler: router.SetupChi()}
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
*/
package services
