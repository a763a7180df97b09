// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Package supervisor runs the server's long-lived components under a suture
supervisor tree.

	vidstream (root)
	├── data-layer       embedded NATS server, badger value-log GC
	├── messaging-layer  event publisher lifetime
	└── api-layer        HTTP server

Each layer restarts its own failed services with backoff. Services are
adapters in the services subpackage that turn Start/Shutdown style
components into suture.Service.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	errCh := tree.ServeBackground(ctx)

After shutdown, UnstoppedServiceReport names anything that ignored its
context.
*/
package supervisor
