package models

import "time"

type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type Admin struct {
	Email          string    `json:"email"`
	HashedPassword []byte    `json:"-"`
	UpdatedAt      time.Time `json:"updated_at"`
}
