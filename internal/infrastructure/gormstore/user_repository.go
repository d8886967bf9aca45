package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/internal/domain/repository"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) conn(ctx context.Context) *gorm.DB {
	return dbFrom(ctx, r.db).WithContext(ctx)
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	m := toUserModel(u)
	if m.ID == "" {
		if err := r.conn(ctx).Create(m).Error; err != nil {
			return nil, mapWriteError(err)
		}
		return toUserEntity(m), nil
	}

	if !validID(m.ID) {
		return nil, repository.ErrNotFound
	}
	res := r.conn(ctx).Model(&UserModel{}).
		Where("id = ?", m.ID).
		Select("*").
		Omit("id", "created_at", "created_by").
		Updates(m)
	if res.Error != nil {
		return nil, mapWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return r.FindByID(ctx, m.ID)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	return r.find(ctx, nil)
}

func (r *UserRepository) FindByStatus(ctx context.Context, status entity.AccountStatus) ([]*entity.User, error) {
	return r.find(ctx, "account_status = ?", string(status))
}

func (r *UserRepository) FindByFirstNameContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.find(ctx, "first_name ILIKE ?", likePattern(term))
}

func (r *UserRepository) FindByLastNameContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.find(ctx, "last_name ILIKE ?", likePattern(term))
}

func (r *UserRepository) FindByEmailContaining(ctx context.Context, term string) ([]*entity.User, error) {
	return r.find(ctx, "email ILIKE ?", likePattern(term))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.conn(ctx).Model(&UserModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	res := r.conn(ctx).Where("id = ?", id).Delete(&UserModel{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
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

func (r *UserRepository) first(ctx context.Context, query string, arg any) (*entity.User, error) {
	var m UserModel
	if err := r.conn(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toUserEntity(&m), nil
}

func (r *UserRepository) find(ctx context.Context, query any, args ...any) ([]*entity.User, error) {
	q := r.conn(ctx).Order("created_at, id")
	if query != nil {
		q = q.Where(query, args...)
	}
	var models []UserModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return toUserEntities(models), nil
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var n int64
	if err := r.conn(ctx).Model(&UserModel{}).Where(query, arg).Limit(1).Count(&n).Error; err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return n > 0, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return repository.ErrUsernameTaken
		case "users_email_key":
			return repository.ErrEmailTaken
		}
	}
	return fmt.Errorf("save user: %w", err)
}

// validID reports whether id parses as the uuid primary key.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

var _ repository.UserRepository = (*UserRepository)(nil)
