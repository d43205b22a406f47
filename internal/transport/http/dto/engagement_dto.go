package dto

import "time"

type Comment struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	UserID     int64     `json:"user_id"`
	Text       string    `json:"text"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	PhotoPath  string    `json:"photo_path"`
	CreatedAt  time.Time `json:"created_at"`
}

type CommentsResponse struct {
	Count    int       `json:"count"`
	Comments []Comment `json:"comments"`
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

type LikesResponse struct {
	DocumentID int64 `json:"document_id"`
	LikesCount int   `json:"likes_count"`
}

type ViewsResponse struct {
	ViewsCount int `json:"views_count"`
}

type Viewer struct {
	UserID    int64     `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	PhotoPath string    `json:"photo_path"`
	RoleID    int       `json:"role_id"`
	Role      string    `json:"role"`
	ViewedAt  time.Time `json:"viewed_at"`
}

type ViewersResponse struct {
	Count   int      `json:"count"`
	Viewers []Viewer `json:"viewers"`
}

type Role struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
