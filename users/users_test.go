package users_test

import (
	"testing"

	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/internal/utils"
	"github.com/jrsteele09/marketplace-client/users"
	fakeuserrepo "github.com/jrsteele09/marketplace-client/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestRoles(t *testing.T) {
	require.True(t, users.RoleAdmin.Known())
	require.True(t, users.ParseRole(" solver ").Known())
	require.False(t, users.RoleAnonymous.Known())
	require.False(t, users.Role("AUDITOR").Known())

	var p *users.Profile
	require.False(t, p.HasRole(users.RoleBuyer))
	require.True(t, (&users.Profile{Role: users.RoleBuyer}).HasRole(users.RoleBuyer))
}

func TestFakeDirectory(t *testing.T) {
	dir := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, dir.Upsert(&users.Profile{Email: "b@example.com", Role: users.RoleBuyer}))
	require.NoError(t, dir.Upsert(&users.Profile{Email: "a@example.com", Role: users.RoleSolver}))

	buyer, err := dir.GetByEmail("b@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, buyer.ID)

	t.Run("list is ordered and paged", func(t *testing.T) {
		page, total, err := dir.List(0, 1)
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Len(t, page, 1)
		require.Equal(t, "a@example.com", page[0].Email)

		page, _, err = dir.List(5, 10)
		require.NoError(t, err)
		require.Empty(t, page)
	})

	t.Run("role and profile updates", func(t *testing.T) {
		require.NoError(t, dir.SetRole(buyer.ID, users.RoleAdmin))
		updated, err := dir.Update(buyer.ID, users.ProfileUpdate{Bio: utils.Ptr("hello"), Skills: &[]string{"go"}})
		require.NoError(t, err)
		require.Equal(t, users.RoleAdmin, updated.Role)
		require.Equal(t, "hello", utils.Value(updated.Bio))
		require.Equal(t, []string{"go"}, updated.Skills)
	})

	t.Run("missing ids", func(t *testing.T) {
		_, err := dir.GetByID("nope")
		require.ErrorIs(t, err, errors.ErrNotFound)
		require.ErrorIs(t, dir.SetRole("nope", users.RoleBuyer), errors.ErrNotFound)
	})
}
