package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/testdb"
)

func TestFavoriteAddConflictAndRemove(t *testing.T) {
	db := testdb.New(t)
	recipes := NewRecipeService(db, testMaxCookingTime)
	relations := NewRelationService(db)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	fan := testdb.SeedUser(t, db, "bob")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	tag := testdb.SeedTag(t, db, "Dinner", "dinner")
	created, err := recipes.Create(ctx, author, validInput(flour.ID, tag.ID))
	require.NoError(t, err)
	recipeID := created.Recipe.ID

	require.NoError(t, relations.AddFavorite(ctx, fan.ID, recipeID))
	// A second add is a conflict, never a silent no-op.
	assert.ErrorIs(t, relations.AddFavorite(ctx, fan.ID, recipeID), ErrAlreadyExists)

	require.NoError(t, relations.RemoveFavorite(ctx, fan.ID, recipeID))
	assert.ErrorIs(t, relations.RemoveFavorite(ctx, fan.ID, recipeID), ErrNotFound)
}

func TestFavoriteConcurrentAddsHaveOneWinner(t *testing.T) {
	db := testdb.New(t)
	recipes := NewRecipeService(db, testMaxCookingTime)
	relations := NewRelationService(db)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	fan := testdb.SeedUser(t, db, "bob")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	tag := testdb.SeedTag(t, db, "Dinner", "dinner")
	created, err := recipes.Create(ctx, author, validInput(flour.ID, tag.ID))
	require.NoError(t, err)
	recipeID := created.Recipe.ID

	const adds = 8
	results := make(chan error, adds)
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- relations.AddFavorite(ctx, fan.ID, recipeID)
		}()
	}
	wg.Wait()
	close(results)

	// The unique constraint arbitrates: exactly one add wins, the rest
	// conflict. No other outcome is acceptable.
	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyExists):
			conflicts++
		default:
			t.Fatalf("unexpected error from concurrent add: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, adds-1, conflicts)
}

func TestFavoriteUnknownRecipe(t *testing.T) {
	db := testdb.New(t)
	relations := NewRelationService(db)
	fan := testdb.SeedUser(t, db, "bob")

	assert.ErrorIs(t, relations.AddFavorite(context.Background(), fan.ID, uuid.New()), ErrNotFound)
}

func TestShoppingCartToggle(t *testing.T) {
	db := testdb.New(t)
	recipes := NewRecipeService(db, testMaxCookingTime)
	relations := NewRelationService(db)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	tag := testdb.SeedTag(t, db, "Dinner", "dinner")
	created, err := recipes.Create(ctx, author, validInput(flour.ID, tag.ID))
	require.NoError(t, err)
	recipeID := created.Recipe.ID

	require.NoError(t, relations.AddToCart(ctx, author.ID, recipeID))
	assert.ErrorIs(t, relations.AddToCart(ctx, author.ID, recipeID), ErrAlreadyExists)

	// Cart and favorites are independent relation sets.
	require.NoError(t, relations.AddFavorite(ctx, author.ID, recipeID))

	require.NoError(t, relations.RemoveFromCart(ctx, author.ID, recipeID))
	assert.ErrorIs(t, relations.RemoveFromCart(ctx, author.ID, recipeID), ErrNotFound)
}

func TestFollowRules(t *testing.T) {
	db := testdb.New(t)
	relations := NewRelationService(db)
	ctx := context.Background()

	alice := testdb.SeedUser(t, db, "alice")
	bob := testdb.SeedUser(t, db, "bob")

	err := relations.Follow(ctx, alice.ID, alice.ID)
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "following")

	assert.ErrorIs(t, relations.Follow(ctx, alice.ID, uuid.New()), ErrNotFound)

	require.NoError(t, relations.Follow(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, relations.Follow(ctx, alice.ID, bob.ID), ErrAlreadyExists)

	// Follows are directional: bob following alice back is a distinct row.
	require.NoError(t, relations.Follow(ctx, bob.ID, alice.ID))

	require.NoError(t, relations.Unfollow(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, relations.Unfollow(ctx, alice.ID, bob.ID), ErrNotFound)
}
