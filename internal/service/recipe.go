package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
)

// IngredientLine is one (ingredient, amount) pair in a compose request.
type IngredientLine struct {
	ID     uint
	Amount float64
}

// ComposeInput carries the full desired state of a recipe. Update is a
// full replace of the ingredient and tag sets, not a merge.
type ComposeInput struct {
	Name        string
	Image       string
	Text        string
	CookingTime int
	Ingredients []IngredientLine
	TagIDs      []uint
}

// RecipeFilter narrows a recipe listing. All supplied filters are combined
// with AND. Favorited and InCart are ignored for anonymous requesters.
type RecipeFilter struct {
	AuthorID  *uuid.UUID
	TagSlugs  []string
	Favorited bool
	InCart    bool
	Offset    int
	Limit     int
}

// RecipeView is a recipe together with its requester-relative flags, re-read
// through the query layer after any mutation.
type RecipeView struct {
	Recipe           *models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeService validates and atomically persists recipes with their
// ingredient-quantity lines and tag sets.
type RecipeService struct {
	db             *gorm.DB
	maxCookingTime int
}

func NewRecipeService(db *gorm.DB, maxCookingTime int) *RecipeService {
	return &RecipeService{db: db, maxCookingTime: maxCookingTime}
}

// validate evaluates every rule and collects all field errors. It resolves
// the tag set as a side product since the compose step needs the full rows.
func (s *RecipeService) validate(ctx context.Context, in ComposeInput) ([]models.Tag, error) {
	verr := NewValidationError()

	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "name is required")
	} else if len(in.Name) > 256 {
		verr.Add("name", "name must be at most 256 characters")
	}
	if strings.TrimSpace(in.Text) == "" {
		verr.Add("text", "text is required")
	}
	if in.Image == "" {
		verr.Add("image", "image is required")
	}
	if in.CookingTime < 1 || in.CookingTime > s.maxCookingTime {
		verr.Add("cooking_time", fmt.Sprintf("cooking time must be between 1 and %d minutes", s.maxCookingTime))
	}

	if len(in.Ingredients) == 0 {
		verr.Add("ingredients", "at least one ingredient is required")
	} else {
		seen := make(map[uint]bool, len(in.Ingredients))
		ids := make([]uint, 0, len(in.Ingredients))
		for _, line := range in.Ingredients {
			if seen[line.ID] {
				verr.Add("ingredients", fmt.Sprintf("duplicate ingredient id %d", line.ID))
				continue
			}
			seen[line.ID] = true
			ids = append(ids, line.ID)
			if line.Amount < 1 {
				verr.Add("ingredients", fmt.Sprintf("amount for ingredient %d must be at least 1", line.ID))
			}
		}
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
			return nil, err
		}
		if int(n) != len(ids) {
			verr.Add("ingredients", "some ingredients do not exist")
		}
	}

	var tags []models.Tag
	if len(in.TagIDs) == 0 {
		verr.Add("tags", "at least one tag is required")
	} else {
		seen := make(map[uint]bool, len(in.TagIDs))
		uniq := make([]uint, 0, len(in.TagIDs))
		for _, id := range in.TagIDs {
			if seen[id] {
				verr.Add("tags", fmt.Sprintf("duplicate tag id %d", id))
				continue
			}
			seen[id] = true
			uniq = append(uniq, id)
		}
		if err := s.db.WithContext(ctx).Where("id IN ?", uniq).Find(&tags).Error; err != nil {
			return nil, err
		}
		if len(tags) != len(uniq) {
			verr.Add("tags", "some tags do not exist")
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return tags, nil
}

// Create persists the recipe and all its associations in one transaction and
// returns the detail view.
func (s *RecipeService) Create(ctx context.Context, author *models.User, in ComposeInput) (*RecipeView, error) {
	tags, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        in.Name,
		Image:       in.Image,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		rows := ingredientRows(recipe.ID, in.Ingredients)
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipe.ID, &author.ID)
}

// Update replaces the recipe's scalar fields and its entire ingredient and
// tag sets. Only the owning author (or staff) may update. The clear and
// reinsert run in one transaction so readers never observe a recipe with
// empty associations.
func (s *RecipeService) Update(ctx context.Context, actor *models.User, recipeID uuid.UUID, in ComposeInput) (*RecipeView, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != actor.ID && !actor.IsStaff {
		return nil, ErrPermissionDenied
	}

	tags, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"name":         in.Name,
			"image":        in.Image,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		rows := ingredientRows(recipe.ID, in.Ingredients)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Model(&recipe).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipe.ID, &actor.ID)
}

// Delete removes a recipe and everything hanging off it. Owner or staff only.
func (s *RecipeService) Delete(ctx context.Context, actor *models.User, recipeID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if recipe.AuthorID != actor.ID && !actor.IsStaff {
		return ErrPermissionDenied
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
}

// Get loads a recipe with resolved ingredient display data, full tag objects
// and requester-relative flags.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID, requester *uuid.UUID) (*RecipeView, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	views, err := s.views(ctx, requester, []*models.Recipe{&recipe})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// List returns a newest-first page of recipes matching the filter plus the
// total match count.
func (s *RecipeService) List(ctx context.Context, requester *uuid.UUID, f RecipeFilter) ([]*RecipeView, int64, error) {
	filtered := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Recipe{})
		if f.AuthorID != nil {
			q = q.Where("recipes.author_id = ?", *f.AuthorID)
		}
		if len(f.TagSlugs) > 0 {
			sub := s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", f.TagSlugs)
			q = q.Where("recipes.id IN (?)", sub)
		}
		// Membership filters only apply for authenticated requesters.
		if requester != nil && f.Favorited {
			sub := s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *requester)
			q = q.Where("recipes.id IN (?)", sub)
		}
		if requester != nil && f.InCart {
			sub := s.db.Model(&models.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", *requester)
			q = q.Where("recipes.id IN (?)", sub)
		}
		return q
	}

	var count int64
	if err := filtered().Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var recipes []*models.Recipe
	err := filtered().
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at DESC, recipes.id").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	views, err := s.views(ctx, requester, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

// views decorates recipes with requester-relative membership flags using
// three set queries instead of per-recipe lookups.
func (s *RecipeService) views(ctx context.Context, requester *uuid.UUID, recipes []*models.Recipe) ([]*RecipeView, error) {
	views := make([]*RecipeView, len(recipes))
	for i, r := range recipes {
		views[i] = &RecipeView{Recipe: r}
	}
	if requester == nil || len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uuid.UUID, len(recipes))
	authorIDs := make([]uuid.UUID, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	var favIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", *requester, recipeIDs).
		Pluck("recipe_id", &favIDs).Error; err != nil {
		return nil, err
	}
	var cartIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.ShoppingCartItem{}).
		Where("user_id = ? AND recipe_id IN ?", *requester, recipeIDs).
		Pluck("recipe_id", &cartIDs).Error; err != nil {
		return nil, err
	}
	var subIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id IN ?", *requester, authorIDs).
		Pluck("following_id", &subIDs).Error; err != nil {
		return nil, err
	}

	fav := idSet(favIDs)
	cart := idSet(cartIDs)
	subs := idSet(subIDs)
	for _, v := range views {
		v.IsFavorited = fav[v.Recipe.ID]
		v.IsInShoppingCart = cart[v.Recipe.ID]
		v.AuthorSubscribed = subs[v.Recipe.AuthorID]
	}
	return views, nil
}

func ingredientRows(recipeID uuid.UUID, lines []IngredientLine) []models.RecipeIngredient {
	rows := make([]models.RecipeIngredient, len(lines))
	for i, l := range lines {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: l.ID,
			Amount:       l.Amount,
		}
	}
	return rows
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
