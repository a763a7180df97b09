// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

// General API information for swag. Regenerate the docs package with:
//
//	swag init -g cmd/server/docs.go -o docs
//
// @title Vidstream API
// @version 1.0
// @description Video upload, playback gating and per-user view analytics.
// @description
// @description ## Authentication
// @description
// @description Tokens are issued by an external identity provider and verified here (HS256).
// @description Send them as `Authorization: Bearer <token>` or in the `token` cookie.
// @description In development (`AUTH_MODE=none`) the caller is taken from the `X-User-ID` header.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {"code": "NOT_FOUND", "message": "Video not found"},
// @description   "metadata": {"timestamp": "2026-01-01T12:00:00Z"}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/vidstream
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description HS256 JWT as "Bearer <token>"
//
// @tag.name Health
// @tag.description Liveness, readiness and component status
//
// @tag.name Analytics
// @tag.description Per-user view records
//
// @tag.name Users
// @tag.description Profiles synced from the identity provider
//
// @tag.name Videos
// @tag.description Upload, catalog and playback
package main
