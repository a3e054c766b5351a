package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dating-api/internal/models"
)

const userColumns = `u.id, u.username, u.password_hash, u.gender, u.date_of_birth, u.known_as,
	u.introduction, u.looking_for, u.interests, u.city, u.country, u.created, u.last_active,
	u.push_token, u.web_push_subscription,
	(SELECT p.url FROM photos p WHERE p.user_id = u.id AND p.is_main = 1)`

// UserRepository handles database operations for users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                        models.User
		hash, push, webPush, url sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Username, &hash, &u.Gender, &u.DateOfBirth, &u.KnownAs,
		&u.Introduction, &u.LookingFor, &u.Interests, &u.City, &u.Country, &u.Created, &u.LastActive,
		&push, &webPush, &url,
	)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = stringPtr(hash)
	u.PushToken = stringPtr(push)
	u.WebPushSubscription = stringPtr(webPush)
	u.PhotoURL = url.String
	return &u, nil
}

// Create inserts a user and its roles in one transaction
func (r *UserRepository) Create(ctx context.Context, user *models.User, roles []string) error {
	if user.Created.IsZero() {
		user.Created = time.Now().UTC()
	}
	if user.LastActive.IsZero() {
		user.LastActive = user.Created
	}

	return withTx(ctx, r.db, func(tx DBTX) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (username, password_hash, gender, date_of_birth, known_as, introduction,
				looking_for, interests, city, country, created, last_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			user.Username, nullString(user.PasswordHash), user.Gender, user.DateOfBirth, user.KnownAs,
			user.Introduction, user.LookingFor, user.Interests, user.City, user.Country,
			user.Created, user.LastActive,
		).Scan(&user.ID)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", mapError(err))
		}
		if err := insertRoles(ctx, tx, user.ID, roles); err != nil {
			return err
		}
		user.Roles = append([]string(nil), roles...)
		return nil
	})
}

func insertRoles(ctx context.Context, tx DBTX, userID int64, roles []string) error {
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, userID, role); err != nil {
			return fmt.Errorf("failed to add role %s: %w", role, mapError(err))
		}
	}
	return nil
}

// GetByID retrieves a user with roles and photos
func (r *UserRepository) GetByID(ctx context.Context, id int64, includeUnapproved bool) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.Roles, err = r.roles(ctx, u.ID); err != nil {
		return nil, err
	}
	if u.Photos, err = r.photos(ctx, u.ID, includeUnapproved); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUsername retrieves a user with roles by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if u.Roles, err = r.roles(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) roles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *UserRepository) photos(ctx context.Context, userID int64, includeUnapproved bool) ([]models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+photoColumns+` FROM photos p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = ? AND (p.is_approved = 1 OR ?)
		ORDER BY p.id`, userID, includeUnapproved)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos: %w", err)
	}
	defer rows.Close()
	return scanPhotos(rows)
}

// UpdateProfile updates the editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET introduction = ?, looking_for = ?, interests = ?, city = ?, country = ?,
			known_as = ?, date_of_birth = ?
		WHERE id = ?`,
		user.Introduction, user.LookingFor, user.Interests, user.City, user.Country,
		user.KnownAs, user.DateOfBirth, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOne(res, "user", user.ID)
}

// TouchLastActive records the time of the user's latest request
func (r *UserRepository) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_active = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}
	return expectOne(res, "user", id)
}

// Search lists users matching the query and the total number of matches
func (r *UserRepository) Search(ctx context.Context, q models.UserSearch) ([]models.User, int, error) {
	where := []string{"u.id <> ?", "u.gender = ?", "u.date_of_birth >= ?", "u.date_of_birth <= ?"}
	args := []any{q.CallerID, q.Gender, q.MinDOB, q.MaxDOB}

	if q.Interests != "" {
		where = append(where, `(LOWER(u.interests) LIKE ? ESCAPE '\' OR LOWER(u.introduction) LIKE ? ESCAPE '\' OR LOWER(u.looking_for) LIKE ? ESCAPE '\')`)
		p := likePattern(q.Interests)
		args = append(args, p, p, p)
	}
	if q.Likers {
		where = append(where, "u.id IN (SELECT liker_id FROM likes WHERE likee_id = ?)")
		args = append(args, q.CallerID)
	}
	if q.Likees {
		where = append(where, "u.id IN (SELECT likee_id FROM likes WHERE liker_id = ?)")
		args = append(args, q.CallerID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	order := "u.last_active DESC"
	if q.OrderBy == models.OrderByCreated {
		order = "u.created DESC"
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users u WHERE `+cond+
		` ORDER BY `+order+`, u.id LIMIT ? OFFSET ?`,
		append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, total, nil
}

// ListWithRoles returns every user with roles, ordered by username
func (r *UserRepository) ListWithRoles(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := []models.User{}
	index := map[int64]int{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Roles = []string{}
		index[u.ID] = len(users)
		users = append(users, *u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	roleRows, err := r.db.QueryContext(ctx, `SELECT user_id, role FROM user_roles ORDER BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var (
			id   int64
			role string
		)
		if err := roleRows.Scan(&id, &role); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if i, ok := index[id]; ok {
			users[i].Roles = append(users[i].Roles, role)
		}
	}
	return users, roleRows.Err()
}

// SetRoles replaces the user's roles
func (r *UserRepository) SetRoles(ctx context.Context, userID int64, roles []string) error {
	return withTx(ctx, r.db, func(tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to clear roles: %w", err)
		}
		return insertRoles(ctx, tx, userID, roles)
	})
}

// UpdatePushTargets stores the APNs token and Web Push subscription.
// A nil value leaves the column unchanged, an empty string clears it.
func (r *UserRepository) UpdatePushTargets(ctx context.Context, userID int64, apnsToken, webPushSubscription *string) error {
	var (
		sets []string
		args []any
	)
	if apnsToken != nil {
		sets = append(sets, "push_token = NULLIF(?, '')")
		args = append(args, *apnsToken)
	}
	if webPushSubscription != nil {
		sets = append(sets, "web_push_subscription = NULLIF(?, '')")
		args = append(args, *webPushSubscription)
	}
	if len(sets) == 0 {
		return nil
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, append(args, userID)...)
	if err != nil {
		return fmt.Errorf("failed to update push targets: %w", err)
	}
	return expectOne(res, "user", userID)
}

func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return nil
}
