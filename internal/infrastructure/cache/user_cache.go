package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/pkg/helpers"
)

const (
	keyPrefix       = "user:profile:"
	tombstonePrefix = "user:tombstone:"

	// DefaultTombstoneTTL bounds how long a read that started before a write
	// can be kept from repopulating the cache.
	DefaultTombstoneTTL = 30 * time.Second
)

// UserCache keeps serialized users in Redis keyed by id. Invalidate leaves a
// tombstone that blocks Set for TombstoneTTL, so a reader holding a row loaded
// before a concurrent update or delete cannot write it back.
type UserCache struct {
	rdb          redis.Cmdable
	ttl          time.Duration
	TombstoneTTL time.Duration
}

func NewUserCache(rdb redis.Cmdable, ttl time.Duration) *UserCache {
	return &UserCache{rdb: rdb, ttl: ttl, TombstoneTTL: DefaultTombstoneTTL}
}

func Key(id string) string {
	return keyPrefix + id
}

func TombstoneKey(id string) string {
	return tombstonePrefix + id
}

// Get reports false on a miss.
func (c *UserCache) Get(ctx context.Context, id string) (*entity.User, bool, error) {
	var rec record
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, Key(id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec.toEntity(), true, nil
}

// Set skips the write while the user's tombstone is live.
func (c *UserCache) Set(ctx context.Context, u *entity.User) error {
	_, err := helpers.RedisSetJSONUnlessGuarded(ctx, c.rdb, Key(u.ID), TombstoneKey(u.ID), fromEntity(u), c.ttl)
	return err
}

// Invalidate writes the tombstone before dropping the entry.
func (c *UserCache) Invalidate(ctx context.Context, id string) error {
	if err := c.rdb.Set(ctx, TombstoneKey(id), "1", c.TombstoneTTL).Err(); err != nil {
		return err
	}
	return helpers.RedisDel(ctx, c.rdb, Key(id))
}

type record struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"password_hash"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	PhoneNumber         *string    `json:"phone_number,omitempty"`
	DateOfBirth         *time.Time `json:"date_of_birth,omitempty"`
	ProfileImageURL     *string    `json:"profile_image_url,omitempty"`
	EmailVerified       bool       `json:"email_verified"`
	PhoneVerified       bool       `json:"phone_verified"`
	AccountStatus       string     `json:"account_status"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt   *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CreatedBy           string     `json:"created_by"`
	UpdatedBy           string     `json:"updated_by"`
}

func fromEntity(u *entity.User) record {
	return record{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		PhoneNumber:         u.PhoneNumber,
		DateOfBirth:         u.DateOfBirth,
		ProfileImageURL:     u.ProfileImageURL,
		EmailVerified:       u.EmailVerified,
		PhoneVerified:       u.PhoneVerified,
		AccountStatus:       string(u.AccountStatus),
		FailedLoginAttempts: u.FailedLoginAttempts,
		LastLoginAt:         u.LastLoginAt,
		PasswordChangedAt:   u.PasswordChangedAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
		CreatedBy:           u.CreatedBy,
		UpdatedBy:           u.UpdatedBy,
	}
}

func (r record) toEntity() *entity.User {
	return &entity.User{
		ID:                  r.ID,
		Username:            r.Username,
		Email:               r.Email,
		PasswordHash:        r.PasswordHash,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		PhoneNumber:         r.PhoneNumber,
		DateOfBirth:         r.DateOfBirth,
		ProfileImageURL:     r.ProfileImageURL,
		EmailVerified:       r.EmailVerified,
		PhoneVerified:       r.PhoneVerified,
		AccountStatus:       entity.AccountStatus(r.AccountStatus),
		FailedLoginAttempts: r.FailedLoginAttempts,
		LastLoginAt:         r.LastLoginAt,
		PasswordChangedAt:   r.PasswordChangedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		CreatedBy:           r.CreatedBy,
		UpdatedBy:           r.UpdatedBy,
	}
}
