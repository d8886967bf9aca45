package gormstore

import (
	"time"

	"github.com/oksasatya/identity-service/internal/domain/entity"
)

// UserModel maps the users table created by the migrations.
type UserModel struct {
	ID                  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username            string     `gorm:"not null"`
	Email               string     `gorm:"not null"`
	PasswordHash        string     `gorm:"not null"`
	FirstName           string     `gorm:"not null"`
	LastName            string     `gorm:"not null"`
	PhoneNumber         *string
	DateOfBirth         *time.Time `gorm:"type:date"`
	ProfileImageURL     *string    `gorm:"column:profile_image_url"`
	EmailVerified       bool
	PhoneVerified       bool
	AccountStatus       string `gorm:"not null"`
	FailedLoginAttempts int
	LastLoginAt         *time.Time
	PasswordChangedAt   *time.Time
	CreatedAt           time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime:false"`
	CreatedBy           string
	UpdatedBy           string
}

func (UserModel) TableName() string {
	return "users"
}

func toUserModel(u *entity.User) *UserModel {
	return &UserModel{
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

func toUserEntity(m *UserModel) *entity.User {
	return &entity.User{
		ID:                  m.ID,
		Username:            m.Username,
		Email:               m.Email,
		PasswordHash:        m.PasswordHash,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		PhoneNumber:         m.PhoneNumber,
		DateOfBirth:         m.DateOfBirth,
		ProfileImageURL:     m.ProfileImageURL,
		EmailVerified:       m.EmailVerified,
		PhoneVerified:       m.PhoneVerified,
		AccountStatus:       entity.AccountStatus(m.AccountStatus),
		FailedLoginAttempts: m.FailedLoginAttempts,
		LastLoginAt:         m.LastLoginAt,
		PasswordChangedAt:   m.PasswordChangedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		CreatedBy:           m.CreatedBy,
		UpdatedBy:           m.UpdatedBy,
	}
}

func toUserEntities(models []UserModel) []*entity.User {
	out := make([]*entity.User, 0, len(models))
	for i := range models {
		out = append(out, toUserEntity(&models[i]))
	}
	return out
}
