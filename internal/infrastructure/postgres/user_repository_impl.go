package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/internal/domain/repository"
)

const (
	uniqueViolation = "23505"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const userColumns = `id, username, email, password_hash, first_name, last_name,
	phone_number, date_of_birth, profile_image_url, email_verified, phone_verified,
	account_status, failed_login_attempts, last_login_at, password_changed_at,
	created_at, updated_at, created_by, updated_by`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.ID == "" {
		return r.insert(ctx, u)
	}
	return r.update(ctx, u)
}

func (r *UserRepository) insert(ctx context.Context, u *entity.User) (*entity.User, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name,
			phone_number, date_of_birth, profile_image_url, email_verified, phone_verified,
			account_status, failed_login_attempts, last_login_at, password_changed_at,
			created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.PhoneNumber, u.DateOfBirth, u.ProfileImageURL, u.EmailVerified, u.PhoneVerified,
		string(u.AccountStatus), u.FailedLoginAttempts, u.LastLoginAt, u.PasswordChangedAt,
		u.CreatedAt, u.UpdatedAt, u.CreatedBy, u.UpdatedBy)

	saved, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return saved, nil
}

func (r *UserRepository) update(ctx context.Context, u *entity.User) (*entity.User, error) {
	if !validID(u.ID) {
		return nil, repository.ErrNotFound
	}
	row := conn(ctx, r.db).QueryRow(ctx, `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, first_name = $4, last_name = $5,
			phone_number = $6, date_of_birth = $7, profile_image_url = $8,
			email_verified = $9, phone_verified = $10, account_status = $11,
			failed_login_attempts = $12, last_login_at = $13, password_changed_at = $14,
			updated_at = $15, updated_by = $16
		WHERE id = $17
		RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.PhoneNumber, u.DateOfBirth, u.ProfileImageURL,
		u.EmailVerified, u.PhoneVerified, string(u.AccountStatus),
		u.FailedLoginAttempts, u.LastLoginAt, u.PasswordChangedAt,
		u.UpdatedAt, u.UpdatedBy, u.ID)

	saved, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return saved, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	return r.findMany(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
}

func (r *UserRepository) FindByStatus(ctx context.Context, status entity.AccountStatus) ([]*entity.User, error) {
	return r.findMany(ctx, `SELECT `+userColumns+` FROM users WHERE account_status = $1 ORDER BY created_at, id`, string(status))
}

func (r *UserRepository) FindByFirstNameContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.findMany(ctx, `SELECT `+userColumns+` FROM users WHERE first_name ILIKE $1 ORDER BY created_at, id`, likePattern(term))
}

func (r *UserRepository) FindByLastNameContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.findMany(ctx, `SELECT `+userColumns+` FROM users WHERE last_name ILIKE $1 ORDER BY created_at, id`, likePattern(term))
}

func (r *UserRepository) FindByEmailContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.findMany(ctx, `SELECT `+userColumns+` FROM users WHERE email ILIKE $1 ORDER BY created_at, id`, likePattern(term))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, u *entity.User) error {
	if u == nil || u.ID == "" {
		return repository.ErrNotFound
	}
	return r.DeleteByID(ctx, u.ID)
}

func (r *UserRepository) findOne(ctx context.Context, sql string, args ...any) (*entity.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) findMany(ctx context.Context, sql string, args ...any) ([]*entity.User, error) {
	rows, err := conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) exists(ctx context.Context, sql string, arg string) (bool, error) {
	var ok bool
	if err := conn(ctx, r.db).QueryRow(ctx, sql, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return ok, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var status string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.PhoneNumber, &u.DateOfBirth, &u.ProfileImageURL, &u.EmailVerified, &u.PhoneVerified,
		&status, &u.FailedLoginAttempts, &u.LastLoginAt, &u.PasswordChangedAt,
		&u.CreatedAt, &u.UpdatedAt, &u.CreatedBy, &u.UpdatedBy)
	if err != nil {
		return nil, err
	}
	u.AccountStatus = entity.AccountStatus(status)
	return u, nil
}

// mapWriteError turns unique violations into domain errors and a missing row
// on UPDATE ... RETURNING into ErrNotFound.
func mapWriteError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return repository.ErrUsernameTaken
		case emailConstraint:
			return repository.ErrEmailTaken
		}
	}
	return fmt.Errorf("save user: %w", err)
}

// validID reports whether id can match the uuid primary key. Anything else
// would fail the cast in Postgres rather than match no row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

var _ repository.UserRepository = (*UserRepository)(nil)
