package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anvers-dev/blogapi/internal/model"
	"github.com/anvers-dev/blogapi/internal/store"
)

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates a user, hashes its password, and issues a token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Username == "" || body.Password == "" || body.Email == "" {
		writeMessage(w, http.StatusBadRequest, "username, password, and email are required")
		return
	}

	if _, err := s.store.GetUserByEmail(r.Context(), body.Email); err == nil {
		writeMessage(w, http.StatusBadRequest, "User with that email already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeServerError(w, "Error creating user", err)
		return
	}

	hash, err := s.auth.HashPassword(body.Password)
	if err != nil {
		writeServerError(w, "Error creating user", err)
		return
	}
	u := model.User{
		ID:        uuid.NewString(),
		Username:  body.Username,
		Email:     body.Email,
		Password:  hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUser(r.Context(), &u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeMessage(w, http.StatusBadRequest, "User with that email already exists")
			return
		}
		writeServerError(w, "Error creating user", err)
		return
	}

	token, err := s.auth.Sign(u.ID)
	if err != nil {
		writeServerError(w, "Error creating user", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  u.Public(),
	})
}

// handleLogin authenticates by username or email and issues a token. The
// password check result is branched on directly; wrong passwords always 401.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if (body.Username == "" && body.Email == "") || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username (or email) and password are required")
		return
	}

	u, err := s.store.FindUserByLogin(r.Context(), body.Username, body.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusUnauthorized, "Invalid username/email or password")
			return
		}
		writeServerError(w, "Error logging in user", err)
		return
	}
	if !s.auth.CheckPassword(u.Password, body.Password) {
		writeMessage(w, http.StatusUnauthorized, "Invalid username/email or password")
		return
	}

	token, err := s.auth.Sign(u.ID)
	if err != nil {
		writeServerError(w, "Error logging in user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  map[string]string{"id": u.ID},
	})
}

// handleGetUser fetches a user by id; the password hash is never serialized.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, "Error fetching user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleUpdateUser updates username/email/bio. Only the user themself may
// update their record.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Bio      string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Username == "" || body.Email == "" {
		writeMessage(w, http.StatusBadRequest, "Username and email are required")
		return
	}

	if _, err := s.store.GetUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, "Error updating user", err)
		return
	}
	me, _ := currentUser(r)
	if me.ID != id {
		writeMessage(w, http.StatusForbidden, "You are not allowed to update this user")
		return
	}

	if err := s.store.UpdateUser(r.Context(), id, body.Username, body.Email, body.Bio); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeMessage(w, http.StatusBadRequest, "User with that email already exists")
			return
		}
		writeServerError(w, "Error updating user", err)
		return
	}
	writeMessage(w, http.StatusOK, "User updated")
}

// handleDeleteUser removes a user. Self-only; posts they own are left behind.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if _, err := s.store.GetUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, "Error deleting user", err)
		return
	}
	me, _ := currentUser(r)
	if me.ID != id {
		writeMessage(w, http.StatusForbidden, "You are not allowed to delete this user")
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		writeServerError(w, "Error deleting user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdatePassword verifies the old password before storing a new hash.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.OldPassword == "" || body.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "oldPassword and newPassword are required")
		return
	}

	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, "Error updating user password", err)
		return
	}
	me, _ := currentUser(r)
	if me.ID != id {
		writeMessage(w, http.StatusForbidden, "You are not allowed to update this user")
		return
	}
	if !s.auth.CheckPassword(u.Password, body.OldPassword) {
		writeMessage(w, http.StatusUnauthorized, "Invalid old password")
		return
	}

	hash, err := s.auth.HashPassword(body.NewPassword)
	if err != nil {
		writeServerError(w, "Error updating user password", err)
		return
	}
	if err := s.store.UpdateUserPassword(r.Context(), id, hash); err != nil {
		writeServerError(w, "Error updating user password", err)
		return
	}
	writeMessage(w, http.StatusOK, "User password updated")
}
