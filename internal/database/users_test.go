// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package database

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/models"
)

func TestUpsertUser_CreateThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := testCtx(t)
	id := uuid.New()

	u, created, err := db.UpsertUser(ctx, &models.User{ID: id, Name: "Ann", Email: "ann@example.test"})
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if !created {
		t.Error("first upsert should create")
	}
	if u.Role != models.RoleUser || u.Subscription || !u.Active {
		t.Errorf("unexpected defaults: %+v", u)
	}

	same, created, err := db.UpsertUser(ctx, &models.User{ID: id, Name: "Ann", Email: "ann@example.test"})
	if err != nil {
		t.Fatalf("unchanged upsert: %v", err)
	}
	if created || !same.UpdatedAt.Equal(u.UpdatedAt) {
		t.Errorf("unchanged upsert should not write: created=%v updated_at %v -> %v", created, u.UpdatedAt, same.UpdatedAt)
	}

	renamed, created, err := db.UpsertUser(ctx, &models.User{ID: id, Name: "Anne", Email: "anne@example.test", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("updating upsert: %v", err)
	}
	if created {
		t.Error("second upsert should update")
	}
	if renamed.Name != "Anne" || renamed.Email != "anne@example.test" || renamed.Role != models.RoleAdmin {
		t.Errorf("update not applied: %+v", renamed)
	}
	if !renamed.CreatedAt.Equal(u.CreatedAt) {
		t.Error("CreatedAt must not change")
	}
}

func TestUpsertUser_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := testCtx(t)

	first := seedUser(t, db, "First")
	_, _, err := db.UpsertUser(ctx, &models.User{ID: uuid.New(), Name: "Second", Email: first.Email})
	if !errors.Is(err, models.ErrDuplicateKey) {
		t.Fatalf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.GetUser(testCtx(t), uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	db := setupTestDB(t)
	ctx := testCtx(t)
	u := seedUser(t, db, "Carl")

	name := "Carla"
	got, err := db.UpdateUserProfile(ctx, u.ID, &models.UpdateProfileRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if got.Name != "Carla" || got.Email != u.Email {
		t.Errorf("partial update wrong: %+v", got)
	}

	unchanged, err := db.UpdateUserProfile(ctx, u.ID, &models.UpdateProfileRequest{})
	if err != nil {
		t.Fatalf("empty UpdateUserProfile: %v", err)
	}
	if unchanged.Name != "Carla" {
		t.Errorf("empty update changed row: %+v", unchanged)
	}

	if _, err := db.UpdateUserProfile(ctx, uuid.New(), &models.UpdateProfileRequest{Name: &name}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("update of missing user = %v, want ErrNotFound", err)
	}
}

func TestSetSubscription(t *testing.T) {
	db := setupTestDB(t)
	ctx := testCtx(t)
	u := seedUser(t, db, "Dee")

	got, err := db.SetSubscription(ctx, u.ID, true)
	if err != nil {
		t.Fatalf("SetSubscription: %v", err)
	}
	if !got.Subscription {
		t.Error("subscription not set")
	}
	if _, err := db.SetSubscription(ctx, uuid.New(), true); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("SetSubscription on missing user = %v, want ErrNotFound", err)
	}
}

func TestListUsers_Paging(t *testing.T) {
	db := setupTestDB(t)
	ctx := testCtx(t)
	for _, n := range []string{"u1", "u2", "u3"} {
		seedUser(t, db, n)
	}

	page, total, err := db.ListUsers(ctx, models.Page{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Errorf("total=%d len=%d, want 3 and 2", total, len(page))
	}

	rest, _, err := db.ListUsers(ctx, models.Page{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 {
		t.Errorf("second page len = %d, want 1", len(rest))
	}
}

func TestDeleteUser_CascadesAnalytics(t *testing.T) {
	db := setupTestDB(t)
	ctx := testCtx(t)

	owner := seedUser(t, db, "Owner")
	viewer := seedUser(t, db, "Viewer")
	video := seedVideo(t, db, owner.ID, "clip")

	for _, u := range []uuid.UUID{owner.ID, viewer.ID} {
		if _, err := db.CreateRecord(ctx, models.AnalyticsKey{VideoID: video.ID, UserID: u}); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := db.DeleteUser(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed records = %d, want 1", removed)
	}
	if _, err := db.GetUser(ctx, viewer.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("user still present: %v", err)
	}
	if _, err := db.FindRecord(ctx, models.AnalyticsKey{VideoID: video.ID, UserID: viewer.ID}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("analytics record survived user delete: %v", err)
	}
	if _, err := db.FindRecord(ctx, models.AnalyticsKey{VideoID: video.ID, UserID: owner.ID}); err != nil {
		t.Errorf("unrelated record removed: %v", err)
	}
	if err := db.VideoExists(ctx, video.ID); err != nil {
		t.Errorf("uploaded video should survive owner-agnostic user delete: %v", err)
	}

	if _, err := db.DeleteUser(ctx, viewer.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second DeleteUser = %v, want ErrNotFound", err)
	}
}
