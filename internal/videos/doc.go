// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

/*
Package videos is the video catalog: uploads through a media.Host, metadata
edits, the aggregate view counter and playback gating.

Write ordering:

  - Upload stores the object first and inserts the row second. A failed
    insert deletes the object again.
  - Delete removes the object first and the row second. If the object
    delete fails the row stays. The row delete cascades to the video's
    analytics records in one transaction.

Ownership is checked against Video.OwnerID for Update and Delete. Playback
of a paid video requires the caller's subscription flag.
*/
package videos
