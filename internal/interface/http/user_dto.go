package handlers

import (
	"time"

	"github.com/oksasatya/identity-service/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// userResponse is the public view of an account. The password hash is never exposed.
type userResponse struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	PhoneNumber         *string    `json:"phone_number,omitempty"`
	DateOfBirth         *string    `json:"date_of_birth,omitempty"`
	ProfileImageURL     *string    `json:"profile_image_url,omitempty"`
	EmailVerified       bool       `json:"email_verified"`
	PhoneVerified       bool       `json:"phone_verified"`
	AccountStatus       string     `json:"account_status"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	PasswordChangedAt   *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CreatedBy           string     `json:"created_by,omitempty"`
	UpdatedBy           string     `json:"updated_by,omitempty"`
}

func toUserResponse(u *entity.User) userResponse {
	res := userResponse{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		PhoneNumber:         u.PhoneNumber,
		ProfileImageURL:     u.ProfileImageURL,
		EmailVerified:       u.EmailVerified,
		PhoneVerified:       u.PhoneVerified,
		AccountStatus:       u.AccountStatus.String(),
		FailedLoginAttempts: u.FailedLoginAttempts,
		LastLoginAt:         u.LastLoginAt,
		PasswordChangedAt:   u.PasswordChangedAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
		CreatedBy:           u.CreatedBy,
		UpdatedBy:           u.UpdatedBy,
	}
	if u.DateOfBirth != nil {
		d := u.DateOfBirth.Format(dateLayout)
		res.DateOfBirth = &d
	}
	return res
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type createUserRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

type updateUserRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	PhoneNumber     *string `json:"phone_number"`
	DateOfBirth     *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type searchQuery struct {
	SearchTerm string `form:"searchTerm"`
}

type directoryQuery struct {
	Q    string `form:"q" binding:"required"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

func parseDate(v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
