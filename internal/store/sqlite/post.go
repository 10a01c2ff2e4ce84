package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anvers-dev/blogapi/internal/model"
	"github.com/anvers-dev/blogapi/internal/store"
)

const postCols = `id, title, content, featured, categories, user_id, created_at, updated_at`

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	cats, err := json.Marshal(post.Categories)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO posts (id, title, content, featured, categories, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, post.ID, post.Title, post.Content, boolToInt(post.Featured), string(cats),
		post.UserID, post.CreatedAt.UnixNano(), post.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

func (s *Store) ListPosts(ctx context.Context, opts store.PostListOpts) ([]model.Post, int, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 10
	}
	where, args := buildPostWhere(opts.Filter)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query := `SELECT ` + postCols + ` FROM posts` + where +
		` ORDER BY ` + orderClause(opts.Sort) + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// buildPostWhere translates a PostFilter into a WHERE clause and its
// arguments. Absent criteria contribute nothing; present criteria are ANDed.
func buildPostWhere(f store.PostFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Category != "" {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM json_each(posts.categories) WHERE json_each.value = ?)`)
		args = append(args, f.Category)
	}
	if f.Featured != nil {
		clauses = append(clauses, `featured = ?`)
		args = append(args, boolToInt(*f.Featured))
	}
	if f.Search != "" {
		clauses = append(clauses, `(lower(title) LIKE '%'||lower(?)||'%' OR lower(content) LIKE '%'||lower(?)||'%')`)
		args = append(args, f.Search, f.Search)
	}
	if f.StartDate != nil {
		clauses = append(clauses, `created_at >= ?`)
		args = append(args, f.StartDate.UnixNano())
	}
	if f.EndDate != nil {
		clauses = append(clauses, `created_at <= ?`)
		args = append(args, f.EndDate.UnixNano())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(sort string) string {
	switch sort {
	case store.SortOldest:
		return "created_at ASC"
	case store.SortTitleAsc:
		return "title ASC"
	case store.SortTitleDesc:
		return "title DESC"
	default: // newest, including unrecognized values
		return "created_at DESC"
	}
}

func (s *Store) UpdatePost(ctx context.Context, id string, upd store.PostUpdate) (model.Post, error) {
	set := `title = ?, content = ?, featured = ?, updated_at = ?`
	args := []any{upd.Title, upd.Content, boolToInt(upd.Featured), time.Now().UTC().UnixNano()}
	if upd.Categories != nil {
		cats, err := json.Marshal(*upd.Categories)
		if err != nil {
			return model.Post{}, err
		}
		set += `, categories = ?`
		args = append(args, string(cats))
	}

	res, err := s.db.ExecContext(ctx, `UPDATE posts SET `+set+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to update post: %w", err)
	}
	if err := errIfNoRows(res); err != nil {
		return model.Post{}, err
	}
	return s.GetPost(ctx, id)
}

func (s *Store) SetFeatured(ctx context.Context, id string, featured bool) (model.Post, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET featured = ? WHERE id = ?`, boolToInt(featured), id)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to update featured: %w", err)
	}
	if err := errIfNoRows(res); err != nil {
		return model.Post{}, err
	}
	return s.GetPost(ctx, id)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return errIfNoRows(res)
}

func scanPost(row rowScanner) (model.Post, error) {
	var p model.Post
	var featured int
	var cats string
	var created, updated int64
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &featured, &cats, &p.UserID, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, fmt.Errorf("failed to scan post: %w", err)
	}
	p.Featured = featured != 0
	if err := json.Unmarshal([]byte(cats), &p.Categories); err != nil {
		return model.Post{}, fmt.Errorf("failed to decode categories: %w", err)
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return p, nil
}
