package user

import (
	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
)

// Draft is the editable form of a user. Password is write-only: empty on an
// update means the current password is kept.
type Draft struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	Role           Role   `json:"role"`
	Specialization string `json:"specialization"`
	PhoneNumber    string `json:"phone_number"`
}

// EditDraft prefills a form from a fetched record. The password always
// starts empty.
func EditDraft(u *User) Draft {
	return Draft{
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           u.Role,
		Specialization: u.Specialization,
		PhoneNumber:    u.PhoneNumber,
	}
}

// NewDraft is the blank create form.
func NewDraft() Draft {
	return Draft{Role: DefaultRole}
}

func (d Draft) ValidateCreate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required(MsgRequiredFields)
	v.Field("email", d.Email).Required(MsgRequiredFields)
	v.Field("password", d.Password).Required(MsgRequiredFields)
	v.Field("full_name", d.FullName).Required(MsgRequiredFields)
	if err := v.Validate(); err != nil {
		return err.WithMessage(MsgRequiredFields)
	}
	return nil
}

// role applies the create form default.
func (d Draft) role() string {
	if d.Role == "" {
		return string(DefaultRole)
	}
	return string(d.Role)
}

func (d Draft) CreateRequest() userDatamodel.CreateUserRequest {
	return userDatamodel.CreateUserRequest{
		Username:       d.Username,
		Email:          d.Email,
		Password:       d.Password,
		FullName:       d.FullName,
		Role:           d.role(),
		Specialization: d.Specialization,
		PhoneNumber:    d.PhoneNumber,
	}
}

// UpdateRequest sends every field as-is, an empty role included. The
// specialization is not cleared when the role changes away from dokter.
func (d Draft) UpdateRequest() userDatamodel.UpdateUserRequest {
	return userDatamodel.UpdateUserRequest{
		Username:       d.Username,
		Email:          d.Email,
		Password:       d.Password,
		FullName:       d.FullName,
		Role:           string(d.Role),
		Specialization: d.Specialization,
		PhoneNumber:    d.PhoneNumber,
	}
}

// ValidateNewPassword checks presence first, then length.
func ValidateNewPassword(password string) error {
	v := validation.NewValidator()
	v.Field("password", password).
		Required(MsgPasswordRequired).
		MinLength(MinPasswordLength, MsgPasswordTooShort, internal.ErrCodePasswordTooShort)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func validateID(id int64) error {
	if id <= 0 {
		return internal.NewValidationError(MsgInvalidUserID, internal.ErrCodeInvalidUserID)
	}
	return nil
}

type PasswordDTO struct {
	Password string `json:"password"`
}

type StatusDTO struct {
	IsActive *bool `json:"is_active"`
}

type DirectoryResponse struct {
	Users   []Row   `json:"users"`
	Summary Summary `json:"summary"`
}

type DetailResponse struct {
	User          Row   `json:"user"`
	Stats         Stats `json:"stats"`
	StatsDegraded bool  `json:"stats_degraded"`
	Draft         Draft `json:"draft"`
}
