package model

import (
	"time"

	"github.com/ivankudzin/dochub/internal/domain/enums"
)

type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Document struct {
	ID            int64
	Title         string
	ObjectKey     string
	AuthorID      int64
	AuthorFirst   string
	AuthorLast    string
	AuthorPhoto   string
	AuthorRole    enums.Role
	Category      Category
	Audience      enums.Role
	CreatedAt     time.Time
	DeletedAt     *time.Time
	LikesCount    int
	CommentsCount int
	IsViewed      bool
	IsLiked       bool
}

type Comment struct {
	ID         int64
	DocumentID int64
	UserID     int64
	Text       string
	FirstName  string
	LastName   string
	PhotoKey   string
	CreatedAt  time.Time
}

type Viewer struct {
	UserID    int64
	FirstName string
	LastName  string
	PhotoKey  string
	Role      enums.Role
	RoleName  string
	ViewedAt  time.Time
}

type RoleInfo struct {
	ID          enums.Role
	Name        string
	Description string
}
