// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Package api serves the Vidstream HTTP API with the chi router.

Handler files:
  - handlers.go: Handler, its dependencies and NewHandler
  - handlers_helpers.go: response envelope, error mapping, parameter parsing
  - handlers_health.go: liveness, readiness and component health
  - handlers_analytics.go: view recording and per-video viewer listing
  - handlers_users.go: profile sync, edits, subscription, deletion
  - handlers_videos.go: upload, catalog, ownership-checked edits, playback

Routing (chi_router.go):

	GET    /api/v1/health[/live|/ready]
	POST   /api/v1/analytics/{videoId}           auth
	GET    /api/v1/analytics/{videoId}           auth
	GET    /api/v1/users                         auth
	GET    /api/v1/users/me                      auth
	PUT    /api/v1/users/me                      auth
	PATCH  /api/v1/users/me                      auth
	DELETE /api/v1/users/me                      auth
	PUT    /api/v1/users/me/subscription         auth
	GET    /api/v1/users/{id}                    auth
	GET    /api/v1/users/{id}/subscription       auth
	POST   /api/v1/videos                        auth, multipart
	GET    /api/v1/videos
	GET    /api/v1/videos/{id}
	PUT    /api/v1/videos/{id}                   auth, owner
	DELETE /api/v1/videos/{id}                   auth, owner
	POST   /api/v1/videos/{id}/view
	GET    /api/v1/videos/{id}/playback          subscription for paid videos
	GET    /metrics
	GET    /swagger/*
	GET    /media/*                              local media backend only

Every JSON response uses the models.APIResponse envelope. Error codes:

	VALIDATION_ERROR       400
	UNAUTHORIZED           401
	FORBIDDEN              403
	SUBSCRIPTION_REQUIRED  403
	NOT_FOUND              404
	CONFLICT               409
	PAYLOAD_TOO_LARGE      413
	DATABASE_ERROR         500
	INTERNAL_ERROR         500
	SERVICE_UNAVAILABLE    503
*/
package api
