// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Package auth verifies who is calling the API.

Vidstream does not register users or issue tokens to them. An external
identity provider signs HS256 JWTs with a shared secret; this package checks
them and puts the caller's Subject on the request context.

Authentication Modes (AUTH_MODE):

 1. jwt (default): "Authorization: Bearer <token>" or the "token" cookie.
    Claims: sub (user UUID), email, name, role. When JWT_ISSUER is set the
    iss claim must match.

 2. none: development only. The caller is taken from the X-User-ID header and
    requests without it are anonymous. Config validation refuses this mode in
    production.

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)

	r.With(mw.RequireAuth).Post("/api/v1/analytics/{videoId}", h.RecordView)

	subject, ok := auth.SubjectFromContext(r.Context())

GenerateToken exists for tests and local tooling.
*/
package auth
