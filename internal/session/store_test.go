package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashbet-backoffice/internal/model"
)

// TestStoreLifecycle covers init, read, refresh and teardown.
func TestStoreLifecycle(t *testing.T) {
	s := NewStore()

	assert.False(t, s.Active())
	assert.Empty(t, s.Token())
	_, err := s.Identity()
	assert.ErrorIs(t, err, ErrNoSession)

	s.Init(Identity{ID: "u1", Username: "boss", Role: model.RoleSuperPartner}, "tok-1")
	assert.True(t, s.Active())
	assert.Equal(t, "tok-1", s.Token())

	identity, err := s.Identity()
	require.NoError(t, err)
	assert.Equal(t, "boss", identity.Username)

	// A silent refresh swaps the credential without touching identity.
	s.SetToken("tok-2")
	assert.Equal(t, "tok-2", s.Token())
	identity, err = s.Identity()
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)

	s.Clear()
	assert.False(t, s.Active())
	assert.Empty(t, s.Token())
	_, err = s.Identity()
	assert.ErrorIs(t, err, ErrNoSession)
}

// TestUpdateIdentity patches the cached identity after a self-rename and
// is inert without a session.
func TestUpdateIdentity(t *testing.T) {
	s := NewStore()

	s.UpdateIdentity("ghost", model.RoleUser)
	assert.False(t, s.Active())

	s.Init(Identity{ID: "u1", Username: "boss", Role: model.RoleSuperPartner}, "tok")
	s.UpdateIdentity("chief", model.RoleSuperPartner)

	identity, err := s.Identity()
	require.NoError(t, err)
	assert.Equal(t, "chief", identity.Username)
	assert.Equal(t, "u1", identity.ID)
}
