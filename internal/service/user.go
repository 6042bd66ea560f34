package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// UserService serves public profile reads, avatar mutation and the
// subscriptions listing.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var users []*models.User
	err := s.db.WithContext(ctx).
		Order("last_name, first_name, id").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

// IsSubscribed reports, for each of userIDs, whether requester follows them.
// Anonymous requesters get an empty set.
func (s *UserService) IsSubscribed(ctx context.Context, requester *uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if requester == nil || len(userIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id IN ?", *requester, userIDs).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return idSet(ids), nil
}

// SetAvatar stores the avatar URL for a user.
func (s *UserService) SetAvatar(ctx context.Context, userID uuid.UUID, url string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("avatar", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAvatar removes the avatar reference. Clearing an absent avatar is
// still a success.
func (s *UserService) ClearAvatar(ctx context.Context, userID uuid.UUID) error {
	return s.SetAvatar(ctx, userID, "")
}

// Subscriptions lists the authors userID follows, in subscription order.
func (s *UserService) Subscriptions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.User, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var follows []models.Follow
	err := s.db.WithContext(ctx).
		Preload("Following").
		Where("user_id = ?", userID).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&follows).Error
	if err != nil {
		return nil, 0, err
	}

	users := make([]*models.User, len(follows))
	for i := range follows {
		u := follows[i].Following
		users[i] = &u
	}
	return users, count, nil
}

// RecipesByAuthor returns the author's recipes for the subscription
// projection, newest first, plus the total count. limit <= 0 means no limit.
func (s *UserService) RecipesByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]*models.Recipe, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	q := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recipes []*models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}
