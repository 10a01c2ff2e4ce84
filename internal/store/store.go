package store

import (
	"context"
	"errors"
	"time"

	"github.com/anvers-dev/blogapi/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// PostFilter holds the optional listing constraints, combined with AND. Nil
// pointer fields mean the constraint is absent.
type PostFilter struct {
	Category  string
	Featured  *bool
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
}

// Sort orders accepted by ListPosts. Anything else falls back to SortNewest.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortTitleAsc  = "title-asc"
	SortTitleDesc = "title-desc"
)

// PostListOpts selects a page of posts.
type PostListOpts struct {
	Filter PostFilter
	Sort   string
	Page   int
	Limit  int
}

// PostUpdate carries the mutable post fields. Categories is a pointer so
// that an omitted value leaves the stored categories untouched; Title,
// Content, and Featured are always written.
type PostUpdate struct {
	Title      string
	Content    string
	Featured   bool
	Categories *[]string
}

type Store interface {
	UserStore
	PostStore
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	// FindUserByLogin matches username OR email.
	FindUserByLogin(ctx context.Context, username, email string) (model.User, error)
	UpdateUser(ctx context.Context, id, username, email, bio string) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	DeleteUser(ctx context.Context, id string) error
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	// ListPosts returns one page plus the total number of matching posts.
	ListPosts(ctx context.Context, opts PostListOpts) ([]model.Post, int, error)
	UpdatePost(ctx context.Context, id string, upd PostUpdate) (model.Post, error)
	SetFeatured(ctx context.Context, id string, featured bool) (model.Post, error)
	DeletePost(ctx context.Context, id string) error
}
