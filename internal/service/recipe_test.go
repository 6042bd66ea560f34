package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/testdb"
)

const testMaxCookingTime = 1440

func validInput(ingredientID, tagID uint) ComposeInput {
	return ComposeInput{
		Name:        "Pancakes",
		Image:       "/media/pancakes.png",
		Text:        "Mix and fry.",
		CookingTime: 20,
		Ingredients: []IngredientLine{{ID: ingredientID, Amount: 200}},
		TagIDs:      []uint{tagID},
	}
}

func TestRecipeCreatePersistsAssociations(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	milk := testdb.SeedIngredient(t, db, "milk", "ml")
	breakfast := testdb.SeedTag(t, db, "Breakfast", "breakfast")

	in := validInput(flour.ID, breakfast.ID)
	in.Ingredients = append(in.Ingredients, IngredientLine{ID: milk.ID, Amount: 300})

	view, err := svc.Create(ctx, author, in)
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", view.Recipe.Name)
	assert.Equal(t, author.ID, view.Recipe.AuthorID)
	assert.Len(t, view.Recipe.Ingredients, 2)
	require.Len(t, view.Recipe.Tags, 1)
	assert.Equal(t, "breakfast", view.Recipe.Tags[0].Slug)

	var lines int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", view.Recipe.ID).Count(&lines).Error)
	assert.EqualValues(t, 2, lines)
}

func TestRecipeValidationCollectsAllErrors(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)
	author := testdb.SeedUser(t, db, "alice")

	_, err := svc.Create(context.Background(), author, ComposeInput{})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	for _, field := range []string{"name", "text", "image", "cooking_time", "ingredients", "tags"} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestRecipeDuplicateIngredientRejectedAtomically(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	tag := testdb.SeedTag(t, db, "Dinner", "dinner")

	in := validInput(flour.ID, tag.ID)
	in.Ingredients = append(in.Ingredients, IngredientLine{ID: flour.ID, Amount: 50})

	_, err := svc.Create(ctx, author, in)
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "ingredients")

	// Nothing may be persisted when composition fails.
	var recipes, lines int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipes).Error)
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Count(&lines).Error)
	assert.Zero(t, recipes)
	assert.Zero(t, lines)
}

func TestRecipeCookingTimeBounds(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	tag := testdb.SeedTag(t, db, "Dinner", "dinner")

	for _, minutes := range []int{0, -5, testMaxCookingTime + 1} {
		in := validInput(flour.ID, tag.ID)
		in.CookingTime = minutes
		_, err := svc.Create(ctx, author, in)
		require.Error(t, err, "cooking time %d should be rejected", minutes)
		verr, ok := err.(*ValidationError)
		require.True(t, ok)
		assert.Contains(t, verr.Fields, "cooking_time")
	}

	in := validInput(flour.ID, tag.ID)
	in.CookingTime = testMaxCookingTime
	_, err := svc.Create(ctx, author, in)
	assert.NoError(t, err)
}

func TestRecipeUnknownReferencesRejected(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)

	author := testdb.SeedUser(t, db, "alice")

	in := ComposeInput{
		Name:        "Mystery",
		Image:       "/media/m.png",
		Text:        "???",
		CookingTime: 10,
		Ingredients: []IngredientLine{{ID: 9999, Amount: 10}},
		TagIDs:      []uint{9999},
	}
	_, err := svc.Create(context.Background(), author, in)
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "ingredients")
	assert.Contains(t, verr.Fields, "tags")
}

func TestRecipeUpdateReplacesIngredientAndTagSets(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	sugar := testdb.SeedIngredient(t, db, "sugar", "g")
	breakfast := testdb.SeedTag(t, db, "Breakfast", "breakfast")
	dinner := testdb.SeedTag(t, db, "Dinner", "dinner")

	created, err := svc.Create(ctx, author, validInput(flour.ID, breakfast.ID))
	require.NoError(t, err)

	in := ComposeInput{
		Name:        "Pancakes v2",
		Image:       "/media/v2.png",
		Text:        "Now with sugar.",
		CookingTime: 25,
		Ingredients: []IngredientLine{{ID: sugar.ID, Amount: 40}},
		TagIDs:      []uint{dinner.ID},
	}
	updated, err := svc.Update(ctx, author, created.Recipe.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Pancakes v2", updated.Recipe.Name)
	require.Len(t, updated.Recipe.Ingredients, 1)
	assert.Equal(t, sugar.ID, updated.Recipe.Ingredients[0].IngredientID)
	require.Len(t, updated.Recipe.Tags, 1)
	assert.Equal(t, "dinner", updated.Recipe.Tags[0].Slug)

	// The old lines are gone, not merged.
	var lines int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", created.Recipe.ID).Count(&lines).Error)
	assert.EqualValues(t, 1, lines)
}

func TestRecipeUpdatePermissions(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	stranger := testdb.SeedUser(t, db, "bob")
	staff := testdb.SeedUser(t, db, "admin")
	require.NoError(t, db.Model(staff).Update("is_staff", true).Error)
	staff.IsStaff = true

	flour := testdb.SeedIngredient(t, db, "flour", "g")
	tag := testdb.SeedTag(t, db, "Dinner", "dinner")
	created, err := svc.Create(ctx, author, validInput(flour.ID, tag.ID))
	require.NoError(t, err)

	_, err = svc.Update(ctx, stranger, created.Recipe.ID, validInput(flour.ID, tag.ID))
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.Update(ctx, staff, created.Recipe.ID, validInput(flour.ID, tag.ID))
	assert.NoError(t, err)

	err = svc.Delete(ctx, stranger, created.Recipe.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestRecipeDeleteRemovesDependents(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)
	relations := NewRelationService(db)
	ctx := context.Background()

	author := testdb.SeedUser(t, db, "alice")
	fan := testdb.SeedUser(t, db, "bob")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	tag := testdb.SeedTag(t, db, "Dinner", "dinner")

	created, err := svc.Create(ctx, author, validInput(flour.ID, tag.ID))
	require.NoError(t, err)
	require.NoError(t, relations.AddFavorite(ctx, fan.ID, created.Recipe.ID))
	require.NoError(t, relations.AddToCart(ctx, fan.ID, created.Recipe.ID))

	require.NoError(t, svc.Delete(ctx, author, created.Recipe.ID))

	_, err = svc.Get(ctx, created.Recipe.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	for _, model := range []any{&models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCartItem{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestRecipeListFilters(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)
	relations := NewRelationService(db)
	ctx := context.Background()

	alice := testdb.SeedUser(t, db, "alice")
	bob := testdb.SeedUser(t, db, "bob")
	flour := testdb.SeedIngredient(t, db, "flour", "g")
	breakfast := testdb.SeedTag(t, db, "Breakfast", "breakfast")
	dinner := testdb.SeedTag(t, db, "Dinner", "dinner")

	aliceRecipe, err := svc.Create(ctx, alice, validInput(flour.ID, breakfast.ID))
	require.NoError(t, err)
	bobIn := validInput(flour.ID, dinner.ID)
	bobIn.Name = "Soup"
	bobRecipe, err := svc.Create(ctx, bob, bobIn)
	require.NoError(t, err)

	require.NoError(t, relations.AddFavorite(ctx, alice.ID, bobRecipe.Recipe.ID))

	views, count, err := svc.List(ctx, nil, RecipeFilter{TagSlugs: []string{"breakfast"}, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, views, 1)
	assert.Equal(t, aliceRecipe.Recipe.ID, views[0].Recipe.ID)

	views, count, err = svc.List(ctx, nil, RecipeFilter{AuthorID: &bob.ID, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, views, 1)
	assert.Equal(t, "Soup", views[0].Recipe.Name)

	// An authenticated favorited filter narrows to the requester's set.
	views, count, err = svc.List(ctx, &alice.ID, RecipeFilter{Favorited: true, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, views, 1)
	assert.Equal(t, bobRecipe.Recipe.ID, views[0].Recipe.ID)
	assert.True(t, views[0].IsFavorited)

	// Anonymous requesters get the unfiltered listing for membership filters.
	_, count, err = svc.List(ctx, nil, RecipeFilter{Favorited: true, InCart: true, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestRecipeGetNotFound(t *testing.T) {
	db := testdb.New(t)
	svc := NewRecipeService(db, testMaxCookingTime)

	_, err := svc.Get(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
