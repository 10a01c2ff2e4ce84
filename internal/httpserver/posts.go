package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anvers-dev/blogapi/internal/model"
	"github.com/anvers-dev/blogapi/internal/store"
)

// listPostsRes is the paginated listing envelope.
type listPostsRes struct {
	Posts       []model.Post `json:"posts"`
	TotalPosts  int          `json:"totalPosts"`
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
}

// handleListPosts serves the public listing with filtering, sorting, and
// pagination.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := queryInt(q.Get("page"), 1)
	limit := queryInt(q.Get("limit"), 10)

	filter := store.PostFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if v := q.Get("featured"); v != "" {
		f := v == "true"
		filter.Featured = &f
	}
	if v := q.Get("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid startDate")
			return
		}
		filter.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid endDate")
			return
		}
		filter.EndDate = &t
	}

	posts, total, err := s.store.ListPosts(r.Context(), store.PostListOpts{
		Filter: filter,
		Sort:   q.Get("sort"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeServerError(w, "Error fetching all posts", err)
		return
	}
	writeJSON(w, http.StatusOK, listPostsRes{
		Posts:       posts,
		TotalPosts:  total,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
	})
}

// handleGetPost fetches one post. Public, no auth.
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	p, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Post not found")
			return
		}
		writeServerError(w, "Error fetching post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": p})
}

// postBody is the create/update payload. Categories stays raw so that a
// present-but-wrong type yields a 400 and an absent field stays distinguishable
// from an empty list.
type postBody struct {
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Featured   bool            `json:"featured"`
	Categories json.RawMessage `json:"categories"`
}

// categoriesFromRaw decodes the categories field. ok is false when the field
// was absent (or null); a present non-array value returns an error.
func categoriesFromRaw(raw json.RawMessage) (cats []string, ok bool, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}
	if err := json.Unmarshal(raw, &cats); err != nil {
		return nil, false, err
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, true, nil
}

// handleCreatePost creates a post owned by the authenticated caller.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var body postBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Title == "" || body.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Title and content are required")
		return
	}
	cats, ok, err := categoriesFromRaw(body.Categories)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Categories must be an array")
		return
	}
	if !ok {
		cats = []string{}
	}

	me, _ := currentUser(r)
	now := time.Now().UTC()
	p := model.Post{
		ID:         uuid.NewString(),
		Title:      body.Title,
		Content:    body.Content,
		Categories: cats,
		UserID:     me.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreatePost(r.Context(), &p); err != nil {
		writeServerError(w, "Error creating post", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"post": p})
}

// handleUpdatePost rewrites title/content/featured and refreshes updated_at.
// Categories are applied only when present in the body; featured is always
// applied, defaulting to false when omitted.
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	var body postBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Title == "" || body.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Title and content are required")
		return
	}
	cats, haveCats, err := categoriesFromRaw(body.Categories)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Categories must be an array")
		return
	}

	p, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Post not found")
			return
		}
		writeServerError(w, "Error updating post", err)
		return
	}
	me, _ := currentUser(r)
	if p.UserID != me.ID {
		writeMessage(w, http.StatusForbidden, "You are not allowed to update this post.")
		return
	}

	upd := store.PostUpdate{
		Title:    body.Title,
		Content:  body.Content,
		Featured: body.Featured,
	}
	if haveCats {
		upd.Categories = &cats
	}
	updated, err := s.store.UpdatePost(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Post not found")
			return
		}
		writeServerError(w, "Error updating post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": updated})
}

// handleUpdateFeatured toggles the featured flag on an owned post.
func (s *Server) handleUpdateFeatured(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	var body struct {
		Featured *bool `json:"featured"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Featured == nil {
		writeMessage(w, http.StatusBadRequest, "Featured is required")
		return
	}

	p, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Post not found")
			return
		}
		writeServerError(w, "Error updating post", err)
		return
	}
	me, _ := currentUser(r)
	if p.UserID != me.ID {
		writeMessage(w, http.StatusForbidden, "You are not allowed to update this post.")
		return
	}

	updated, err := s.store.SetFeatured(r.Context(), id, *body.Featured)
	if err != nil {
		writeServerError(w, "Error updating post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": updated})
}

// handleDeletePost deletes an owned post.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid post ID")
		return
	}
	p, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Post not found")
			return
		}
		writeServerError(w, "Error deleting post", err)
		return
	}
	me, _ := currentUser(r)
	if p.UserID != me.ID {
		writeMessage(w, http.StatusForbidden, "You are not allowed to delete this post.")
		return
	}
	if err := s.store.DeletePost(r.Context(), id); err != nil {
		writeServerError(w, "Error deleting post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ------------------------------ query helpers ------------------------------

func queryInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// parseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
