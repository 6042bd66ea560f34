package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// RelationService implements the add/remove logic shared by favorites,
// shopping-cart membership and follows. One routine decides conflicts via the
// unique constraint on the pair, never via a read-then-write check.
type RelationService struct {
	db *gorm.DB
}

func NewRelationService(db *gorm.DB) *RelationService {
	return &RelationService{db: db}
}

// add inserts a relation record. The composite unique index arbitrates
// concurrent adds: exactly one succeeds, the rest get ErrAlreadyExists.
func (s *RelationService) add(ctx context.Context, record any) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// remove deletes the relation row matching cond. Removing a relation that
// does not exist is ErrNotFound, symmetric with the add conflict.
func (s *RelationService) remove(ctx context.Context, model any, cond string, args ...any) error {
	res := s.db.WithContext(ctx).Where(cond, args...).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// recipeExists guards relation adds against dangling recipe ids.
func (s *RelationService) recipeExists(ctx context.Context, recipeID uuid.UUID) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	if err := s.recipeExists(ctx, recipeID); err != nil {
		return err
	}
	return s.add(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID})
}

func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	if err := s.recipeExists(ctx, recipeID); err != nil {
		return err
	}
	return s.remove(ctx, &models.Favorite{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	if err := s.recipeExists(ctx, recipeID); err != nil {
		return err
	}
	return s.add(ctx, &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID})
}

func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	if err := s.recipeExists(ctx, recipeID); err != nil {
		return err
	}
	return s.remove(ctx, &models.ShoppingCartItem{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

// Follow subscribes userID to followingID. Self-follow is rejected before the
// uniqueness check.
func (s *RelationService) Follow(ctx context.Context, userID, followingID uuid.UUID) error {
	if userID == followingID {
		verr := NewValidationError()
		verr.Add("following", "cannot subscribe to yourself")
		return verr
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", followingID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.add(ctx, &models.Follow{UserID: userID, FollowingID: followingID})
}

func (s *RelationService) Unfollow(ctx context.Context, userID, followingID uuid.UUID) error {
	return s.remove(ctx, &models.Follow{}, "user_id = ? AND following_id = ?", userID, followingID)
}
