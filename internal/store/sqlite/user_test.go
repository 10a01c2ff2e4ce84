package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvers-dev/blogapi/internal/model"
	"github.com/anvers-dev/blogapi/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestUser(username, email string) *model.User {
	return &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Password:  "$2a$10$fakehashfakehashfakehash",
		CreatedAt: time.Now().UTC(),
	}
}

func TestUserLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("alice", "a@x.com")
	require.NoError(t, st.CreateUser(ctx, u))

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "a@x.com", got.Email)

	byEmail, err := st.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	require.NoError(t, st.UpdateUser(ctx, u.ID, "alice2", "a2@x.com", "hello"))
	got, err = st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "a2@x.com", got.Email)
	assert.Equal(t, "hello", got.Bio)

	require.NoError(t, st.UpdateUserPassword(ctx, u.ID, "newhash"))
	got, _ = st.GetUser(ctx, u.ID)
	assert.Equal(t, "newhash", got.Password)

	require.NoError(t, st.DeleteUser(ctx, u.ID))
	_, err = st.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateUser(ctx, newTestUser("alice", "a@x.com")))
	err := st.CreateUser(ctx, newTestUser("bob", "a@x.com"))
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestFindUserByLogin(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("alice", "a@x.com")
	require.NoError(t, st.CreateUser(ctx, u))

	byUsername, err := st.FindUserByLogin(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byUsername.ID)

	byEmail, err := st.FindUserByLogin(ctx, "", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = st.FindUserByLogin(ctx, "nobody", "nobody@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserNotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, st.UpdateUser(ctx, uuid.NewString(), "x", "x@x.com", ""), store.ErrNotFound)
	assert.ErrorIs(t, st.UpdateUserPassword(ctx, uuid.NewString(), "h"), store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteUser(ctx, uuid.NewString()), store.ErrNotFound)
}

func TestDeleteUserLeavesPosts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("alice", "a@x.com")
	require.NoError(t, st.CreateUser(ctx, u))

	p := newTestPost(u.ID, "Hello", "World")
	require.NoError(t, st.CreatePost(ctx, p))

	require.NoError(t, st.DeleteUser(ctx, u.ID))

	// Orphaned posts stay readable.
	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)
}
