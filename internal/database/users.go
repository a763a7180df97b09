// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/database/query"
	"github.com/tomtom215/vidstream/internal/models"
)

const userColumns = `id, name, email, role, subscription, active, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Subscription, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func userLockKey(id uuid.UUID) string {
	return "user:" + id.String()
}

// GetUser returns the user or models.ErrNotFound.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err, "get user")
	}
	return u, nil
}

// ListUsers returns one page of users ordered by creation time and the total count.
func (db *DB) ListUsers(ctx context.Context, page models.Page) ([]models.User, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, classify(err, "count users")
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, 0, classify(err, "list users")
	}
	defer closeWithLog(rows, "rows")

	users := make([]models.User, 0, page.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, classify(err, "scan user")
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify(err, "iterate users")
	}
	return users, total, nil
}

// UpsertUser creates the profile for u.ID or updates its name, email and
// role. created reports whether a new row was inserted. A clash on email
// with another user returns models.ErrDuplicateKey.
func (db *DB) UpsertUser(ctx context.Context, u *models.User) (user *models.User, created bool, err error) {
	unlock, err := db.lockKey(ctx, userLockKey(u.ID))
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	// A concurrent first insert from another process loses on the primary
	// key; the second pass then takes the update branch. An email clash
	// fails both passes.
	for attempt := 0; attempt < 2; attempt++ {
		err = db.withConflictRetry(ctx, "upsert_user", func() error {
			var txErr error
			user, created, txErr = db.upsertUserTx(ctx, u)
			return txErr
		})
		if err == nil || !isDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		return nil, false, classify(err, "upsert user")
	}
	return user, created, nil
}

func (db *DB) upsertUserTx(ctx context.Context, u *models.User) (*models.User, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer rollbackQuietly(tx)

	now := nowUTC()
	existing, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, u.ID))

	var out *models.User
	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		role := u.Role
		if role == "" {
			role = models.RoleUser
		}
		out, err = scanUser(tx.QueryRowContext(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES ($1, $2, $3, $4, FALSE, TRUE, $5, $5)
			 RETURNING `+userColumns,
			u.ID, u.Name, u.Email, role, now))
		if err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, err
	default:
		// Only touch changed columns so the email index is left alone
		// when the address is the same.
		sb := query.NewSetBuilder().
			SetIf(existing.Name != u.Name, "name", u.Name).
			SetIf(existing.Email != u.Email, "email", u.Email).
			SetIf(u.Role != "" && existing.Role != u.Role, "role", u.Role)
		if sb.IsEmpty() {
			out = existing
			break
		}
		sb.Set("updated_at", now)
		set, args := sb.Build()
		args = append(args, u.ID)
		out, err = scanUser(tx.QueryRowContext(ctx,
			fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, set, sb.Next(), userColumns),
			args...))
		if err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// UpdateUserProfile applies a partial edit. An empty request returns the
// current row unchanged.
func (db *DB) UpdateUserProfile(ctx context.Context, id uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	if req.Empty() {
		return db.GetUser(ctx, id)
	}

	unlock, err := db.lockKey(ctx, userLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	sb := query.NewSetBuilder().
		SetIf(req.Name != nil, "name", req.Name).
		SetIf(req.Email != nil, "email", req.Email).
		Set("updated_at", nowUTC())
	set, args := sb.Build()
	args = append(args, id)

	var u *models.User
	err = db.withConflictRetry(ctx, "update_user", func() error {
		var err error
		u, err = scanUser(db.conn.QueryRowContext(ctx,
			fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, set, sb.Next(), userColumns),
			args...))
		return err
	})
	if err != nil {
		return nil, classify(err, "update user")
	}
	return u, nil
}

// SetSubscription sets the user's subscription flag.
func (db *DB) SetSubscription(ctx context.Context, id uuid.UUID, subscribed bool) (*models.User, error) {
	unlock, err := db.lockKey(ctx, userLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var u *models.User
	err = db.withConflictRetry(ctx, "set_subscription", func() error {
		var err error
		u, err = scanUser(db.conn.QueryRowContext(ctx,
			`UPDATE users SET subscription = $1, updated_at = $2 WHERE id = $3 RETURNING `+userColumns,
			subscribed, nowUTC(), id))
		return err
	})
	if err != nil {
		return nil, classify(err, "set subscription")
	}
	return u, nil
}

// DeleteUser removes the user and, in the same transaction, every analytics
// record that references them. Videos they uploaded are kept.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) (removedRecords int64, err error) {
	unlock, err := db.lockKey(ctx, userLockKey(id))
	if err != nil {
		return 0, err
	}
	defer unlock()

	err = db.withConflictRetry(ctx, "delete_user", func() error {
		var txErr error
		removedRecords, txErr = db.deleteWithChildren(ctx,
			`DELETE FROM analytics WHERE user_id = $1`,
			`DELETE FROM users WHERE id = $1`,
			id)
		return txErr
	})
	if err != nil {
		return 0, classify(err, "delete user")
	}
	return removedRecords, nil
}

// deleteWithChildren runs the child delete then the parent delete in one
// transaction. It returns sql.ErrNoRows when the parent did not exist.
func (db *DB) deleteWithChildren(ctx context.Context, childSQL, parentSQL string, id uuid.UUID) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer rollbackQuietly(tx)

	res, err := tx.ExecContext(ctx, childSQL, id)
	if err != nil {
		return 0, err
	}
	children, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, parentSQL, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return children, nil
}
