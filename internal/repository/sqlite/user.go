package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

// userColumns is the SELECT list shared by every user lookup. The three
// subselects compute the derived counts in the same query, so a User never
// leaves this package with stale or missing counts.
const userColumns = `
	u.id, u.name, u.username, u.email, u.password_hash,
	u.bio, u.location, u.website, u.avatar, u.github_id,
	u.created_at, u.updated_at,
	(SELECT COUNT(*) FROM follows WHERE followee_id = u.id),
	(SELECT COUNT(*) FROM follows WHERE follower_id = u.id),
	(SELECT COUNT(*) FROM posts WHERE author_id = u.id)`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var githubID sql.NullInt64
	err := row.Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash,
		&u.Bio, &u.Location, &u.Website, &u.Avatar, &githubID,
		&u.CreatedAt, &u.UpdatedAt,
		&u.FollowersCount, &u.FollowingCount, &u.PostsCount,
	)
	if err != nil {
		return nil, err
	}
	if githubID.Valid {
		u.GitHubID = &githubID.Int64
	}
	return &u, nil
}

// CreateUser inserts a new user. ID and timestamps are generated here and
// written back onto the passed struct (pointer receiver pattern — the
// caller's value ends up fully populated).
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, username, email, password_hash,
		                    bio, location, website, avatar, github_id,
		                    created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Username, user.Email, user.PasswordHash,
		user.Bio, user.Location, user.Website, user.Avatar, user.GitHubID,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user with this email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user (with computed counts) by internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username (stored lowercase).
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.username = ?`,
		strings.ToLower(username)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user by username: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email (stored lowercase). Login uses this.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.email = ?`,
		strings.ToLower(email)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// UserExists reports whether either value is already taken.
func (db *DB) UserExists(ctx context.Context, email, username string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? OR username = ?`,
		strings.ToLower(email), strings.ToLower(username),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking user existence: %w", err)
	}
	return count > 0, nil
}

// UpdateUser persists profile changes (name, bio, location, website, avatar).
// Username, email and password hash are immutable through this path.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, bio = ?, location = ?, website = ?, avatar = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, user.Bio, user.Location, user.Website, user.Avatar,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user")
	}

	return nil
}

// UpsertGitHubUser creates or refreshes the account linked to user.GitHubID.
// First OAuth login inserts; later logins keep the existing internal ID and
// update the profile fields GitHub may have changed.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("sqlite: upserting user: github id is nil")
	}

	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, *user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now().UTC()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, avatar = ?, updated_at = ? WHERE id = ?`,
			user.Name, user.Avatar, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	return db.CreateUser(ctx, user)
}

// UserSummaries resolves user IDs to embeddable summaries in one query.
// Unknown IDs are simply absent from the result map.
func (db *DB) UserSummaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	result := make(map[string]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, username, avatar, bio FROM users
		 WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading user summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.Avatar, &s.Bio); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user summary: %w", err)
		}
		result[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user summaries: %w", err)
	}

	return result, nil
}

// isUniqueViolation detects SQLite's UNIQUE constraint errors. The pure-Go
// driver doesn't export typed errors for this, so we match the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
