package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dating-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `u.id, u.username, u.password_hash, u.gender, u.date_of_birth, u.known_as,
	u.introduction, u.looking_for, u.interests, u.city, u.country, u.created, u.last_active,
	u.push_token, u.web_push_subscription,
	COALESCE((SELECT p.url FROM photos p WHERE p.user_id = u.id AND p.is_main), '')`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Gender, &u.DateOfBirth, &u.KnownAs,
		&u.Introduction, &u.LookingFor, &u.Interests, &u.City, &u.Country, &u.Created, &u.LastActive,
		&u.PushToken, &u.WebPushSubscription, &u.PhotoURL,
	)
	if err != nil {
		return nil, err
	}
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

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, password_hash, gender, date_of_birth, known_as, introduction,
				looking_for, interests, city, country, created, last_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			user.Username, user.PasswordHash, user.Gender, user.DateOfBirth, user.KnownAs,
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

func insertRoles(ctx context.Context, tx pgx.Tx, userID int64, roles []string) error {
	if len(roles) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) SELECT $1, unnest($2::text[])`, userID, roles)
	if err != nil {
		return fmt.Errorf("failed to add roles: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a user with roles and photos
func (r *UserRepository) GetByID(ctx context.Context, id int64, includeUnapproved bool) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if err != nil {
		if nf := notFound(err, "user %d", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.Roles, err = r.roles(ctx, u.ID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT `+photoColumns+` FROM photos p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1 AND (p.is_approved OR $2)
		ORDER BY p.id`, u.ID, includeUnapproved)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos: %w", err)
	}
	if u.Photos, err = collectPhotos(rows); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByUsername retrieves a user with roles by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.username = $1`, username))
	if err != nil {
		if nf := notFound(err, "user %q", username); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if u.Roles, err = r.roles(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) roles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan roles: %w", err)
	}
	if roles == nil {
		roles = []string{}
	}
	return roles, nil
}

// UpdateProfile updates the editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET introduction = $1, looking_for = $2, interests = $3, city = $4, country = $5,
			known_as = $6, date_of_birth = $7
		WHERE id = $8`,
		user.Introduction, user.LookingFor, user.Interests, user.City, user.Country,
		user.KnownAs, user.DateOfBirth, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOne(tag, "user", user.ID)
}

// TouchLastActive records the time of the user's latest request
func (r *UserRepository) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_active = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}
	return expectOne(tag, "user", id)
}

// Search lists users matching the query and the total number of matches
func (r *UserRepository) Search(ctx context.Context, q models.UserSearch) ([]models.User, int, error) {
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where := []string{
		"u.id <> " + arg(q.CallerID),
		"u.gender = " + arg(q.Gender),
		"u.date_of_birth >= " + arg(q.MinDOB),
		"u.date_of_birth <= " + arg(q.MaxDOB),
	}
	if q.Interests != "" {
		p := arg(likePattern(q.Interests))
		where = append(where, fmt.Sprintf("(u.interests ILIKE %[1]s OR u.introduction ILIKE %[1]s OR u.looking_for ILIKE %[1]s)", p))
	}
	if q.Likers {
		where = append(where, "u.id IN (SELECT liker_id FROM likes WHERE likee_id = "+arg(q.CallerID)+")")
	}
	if q.Likees {
		where = append(where, "u.id IN (SELECT likee_id FROM likes WHERE liker_id = "+arg(q.CallerID)+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users u WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	order := "u.last_active DESC"
	if q.OrderBy == models.OrderByCreated {
		order = "u.created DESC"
	}
	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + cond +
		` ORDER BY ` + order + `, u.id LIMIT ` + arg(q.PageSize) + ` OFFSET ` + arg(q.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return models.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, total, nil
}

// ListWithRoles returns every user with roles, ordered by username
func (r *UserRepository) ListWithRoles(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+`,
			COALESCE((SELECT array_agg(ur.role ORDER BY ur.role) FROM user_roles ur WHERE ur.user_id = u.id), '{}')
		FROM users u ORDER BY u.username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		var u models.User
		err := row.Scan(
			&u.ID, &u.Username, &u.PasswordHash, &u.Gender, &u.DateOfBirth, &u.KnownAs,
			&u.Introduction, &u.LookingFor, &u.Interests, &u.City, &u.Country, &u.Created, &u.LastActive,
			&u.PushToken, &u.WebPushSubscription, &u.PhotoURL, &u.Roles,
		)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// SetRoles replaces the user's roles
func (r *UserRepository) SetRoles(ctx context.Context, userID int64, roles []string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear roles: %w", err)
		}
		return insertRoles(ctx, tx, userID, roles)
	})
}

// UpdatePushTargets stores the APNs token and Web Push subscription.
// A nil value leaves the column unchanged, an empty string clears it.
func (r *UserRepository) UpdatePushTargets(ctx context.Context, userID int64, apnsToken, webPushSubscription *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			push_token = CASE WHEN $1::text IS NULL THEN push_token ELSE NULLIF($1, '') END,
			web_push_subscription = CASE WHEN $2::text IS NULL THEN web_push_subscription ELSE NULLIF($2, '') END
		WHERE id = $3`,
		apnsToken, webPushSubscription, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update push targets: %w", err)
	}
	return expectOne(tag, "user", userID)
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
