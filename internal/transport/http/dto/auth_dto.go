package dto

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,dochub_email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	RoleID    int    `json:"role_id" validate:"omitempty,min=1,max=4"`
	Role      string `json:"role"`
}

type ConfirmRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,dochub_password"`
}

type ResendRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Email  string `json:"email" validate:"omitempty,dochub_email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse carries tokens in both camelCase and snake_case spellings.
type AuthResponse struct {
	User              User   `json:"user"`
	AccessToken       string `json:"accessToken,omitempty"`
	RefreshToken      string `json:"refreshToken,omitempty"`
	AccessTokenSnake  string `json:"access_token,omitempty"`
	RefreshTokenSnake string `json:"refresh_token,omitempty"`
	Verified          bool   `json:"verified"`
	ExpiresInSec      int64  `json:"expires_in_sec,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
