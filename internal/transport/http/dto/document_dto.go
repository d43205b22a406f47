package dto

import "time"

type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RoleRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Document struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	PDFPath        string      `json:"pdf_path"`
	UserID         int64       `json:"user_id"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	PhotoPath      string      `json:"photo_path"`
	RoleID         int         `json:"role_id"`
	Category       CategoryRef `json:"category"`
	AccessibleRole RoleRef     `json:"accessible_role"`
	CreatedAt      time.Time   `json:"created_at"`
	LikesCount     int         `json:"likes_count"`
	CommentsCount  int         `json:"comments_count"`
	IsViewed       bool        `json:"is_viewed"`
	IsLiked        bool        `json:"is_liked"`
}

type DocumentsResponse struct {
	Count     int        `json:"count"`
	Documents []Document `json:"documents"`
}

// DocumentMetadata is the JSON part of a multipart upload.
type DocumentMetadata struct {
	Title          string `json:"title" validate:"required,max=255"`
	CategoryID     int64  `json:"category_id" validate:"required,gt=0"`
	AccessibleRole int    `json:"accessible_role" validate:"omitempty,min=1,max=5"`
}

type UpdateDocumentRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CategoryDocumentsResponse struct {
	Category  Category   `json:"category"`
	Count     int        `json:"count"`
	Documents []Document `json:"documents"`
}
