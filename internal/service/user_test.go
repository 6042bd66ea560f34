package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/testdb"
)

func TestUserAvatarLifecycle(t *testing.T) {
	db := testdb.New(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user := testdb.SeedUser(t, db, "alice")
	require.NoError(t, svc.SetAvatar(ctx, user.ID, "/media/a.png"))

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "/media/a.png", got.Avatar)

	require.NoError(t, svc.ClearAvatar(ctx, user.ID))
	got, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Avatar)

	// Clearing again is still fine; the row exists.
	require.NoError(t, svc.ClearAvatar(ctx, user.ID))

	assert.ErrorIs(t, svc.SetAvatar(ctx, uuid.New(), "/media/x.png"), ErrNotFound)
}

func TestUserSubscriptionsListing(t *testing.T) {
	db := testdb.New(t)
	users := NewUserService(db)
	relations := NewRelationService(db)
	ctx := context.Background()

	alice := testdb.SeedUser(t, db, "alice")
	bob := testdb.SeedUser(t, db, "bob")
	carol := testdb.SeedUser(t, db, "carol")

	require.NoError(t, relations.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, relations.Follow(ctx, alice.ID, carol.ID))

	authors, count, err := users.Subscriptions(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, authors, 2)
	// Subscription order, oldest first.
	assert.Equal(t, bob.ID, authors[0].ID)
	assert.Equal(t, carol.ID, authors[1].ID)

	subs, err := users.IsSubscribed(ctx, &alice.ID, []uuid.UUID{bob.ID, carol.ID, alice.ID})
	require.NoError(t, err)
	assert.True(t, subs[bob.ID])
	assert.True(t, subs[carol.ID])
	assert.False(t, subs[alice.ID])

	// Anonymous requesters never see subscription flags.
	subs, err = users.IsSubscribed(ctx, nil, []uuid.UUID{bob.ID})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestRecipesByAuthorLimit(t *testing.T) {
	db := testdb.New(t)
	users := NewUserService(db)
	recipes := NewRecipeService(db, testMaxCookingTime)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	tag := testdb.SeedTag(t, db, "Dinner", "dinner")
	for _, name := range []string{"One", "Two", "Three"} {
		in := validInput(flour.ID, tag.ID)
		in.Name = name
		_, err := recipes.Create(ctx, author, in)
		require.NoError(t, err)
	}

	got, count, err := users.RecipesByAuthor(ctx, author.ID, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Len(t, got, 2)

	got, count, err = users.RecipesByAuthor(ctx, author.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Len(t, got, 3)
}
