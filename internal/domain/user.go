package domain

import "time"

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Position     Position  `json:"position" dynamodbav:"position"`
	IsDirector   bool      `json:"is_director" dynamodbav:"is_director"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Role returns the session role derived from the director flag.
func (u *User) Role() string {
	if u.IsDirector {
		return RoleDirector
	}
	return RoleContractor
}

type RegisterRequest struct {
	Name     string   `json:"name" validate:"required,max=30"`
	Email    string   `json:"email" validate:"required,email,max=50"`
	Password string   `json:"password" validate:"required,min=8,max=72"`
	Position Position `json:"position" validate:"required,oneof=Developer Manager Tester"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyRequest struct {
	Code int `json:"code" validate:"required,min=1000,max=9999"`
}

// PendingRegistration is the profile held client-side between registration
// and code verification. The password is already hashed.
type PendingRegistration struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"password_hash"`
	Position     Position `json:"position"`
}
