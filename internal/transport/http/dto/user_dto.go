package dto

import "time"

type User struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	PhotoPath  string    `json:"photoPath"`
	IsVerified bool      `json:"isVerified"`
	RoleID     int       `json:"role_id"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	ChangedAt  time.Time `json:"changed_at"`
	Initials   string    `json:"initials"`
}

type UsersResponse struct {
	Count int    `json:"count"`
	Users []User `json:"users"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

type ChangeRoleRequest struct {
	RoleID int `json:"role_id" validate:"required,min=1,max=4"`
}
