package user

import (
	"encoding/json"
	"time"
)

// UserRecord is the user shape served by the records API.
type UserRecord struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Role           string     `json:"role"`
	Specialization *string    `json:"specialization,omitempty"`
	PhoneNumber    *string    `json:"phone_number,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreateUserRequest is the body of POST /auth/register.
type CreateUserRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
	PhoneNumber    string `json:"phone_number"`
}

// UpdateUserRequest is the body of PUT /users/{id}. An empty Password is
// dropped from the JSON so the backend keeps the current one.
type UpdateUserRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
	PhoneNumber    string `json:"phone_number"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type StatusRequest struct {
	IsActive bool `json:"is_active"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *UserRecord `json:"user,omitempty"`
}

type ActivityLogEntry struct {
	ID          int64     `json:"id,omitempty"`
	ActionType  string    `json:"action_type"`
	Description string    `json:"description"`
	IPAddress   *string   `json:"ip_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserStats struct {
	Appointments      int64 `json:"appointments"`
	Prescriptions     int64 `json:"prescriptions"`
	Transactions      int64 `json:"transactions"`
	LastMonthActivity int64 `json:"lastMonthActivity"`
}

// Envelope wraps every records API response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}
