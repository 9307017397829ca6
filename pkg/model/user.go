package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username" validate:"required,min=3,max=30"`
	Email        string    `json:"email" bson:"email" validate:"required,email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role" validate:"omitempty,oneof=user admin"`
	CreatedAt    time.Time `json:"created_at,omitempty" bson:"created_at"`

	ResetToken        string     `json:"-" bson:"reset_token,omitempty"`
	ResetTokenExpires *time.Time `json:"-" bson:"reset_token_expires,omitempty"`
}
