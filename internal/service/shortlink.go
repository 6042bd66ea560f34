package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

const (
	shortLinkCharset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	shortLinkLength   = 3
	shortLinkAttempts = 5
	shortLinkCacheTTL = 24 * time.Hour
)

// ErrShortLinkExhausted is returned when no unique token could be generated.
var ErrShortLinkExhausted = errors.New("failed to generate unique short link token")

// ShortLinkService issues and resolves short tokens for recipe URLs. Redis is
// a read-through cache for resolution; a cache failure degrades to a database
// lookup.
type ShortLinkService struct {
	db     *gorm.DB
	rdb    *redis.Client
	logger *zap.Logger
}

func NewShortLinkService(db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *ShortLinkService {
	return &ShortLinkService{db: db, rdb: rdb, logger: logger}
}

// GetOrCreate returns the existing link for originalURL or creates one with a
// fresh random token, retrying on token collisions.
func (s *ShortLinkService) GetOrCreate(ctx context.Context, originalURL string) (*models.ShortLink, error) {
	var link models.ShortLink
	err := s.db.WithContext(ctx).First(&link, "original_url = ?", originalURL).Error
	if err == nil {
		return &link, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for i := 0; i < shortLinkAttempts; i++ {
		token, err := randomToken(shortLinkLength)
		if err != nil {
			return nil, err
		}
		link = models.ShortLink{Token: token, OriginalURL: originalURL}
		err = s.db.WithContext(ctx).Create(&link).Error
		if err == nil {
			return &link, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either the URL raced in concurrently or the token collided.
			if e := s.db.WithContext(ctx).First(&link, "original_url = ?", originalURL).Error; e == nil {
				return &link, nil
			}
			continue
		}
		return nil, err
	}
	return nil, ErrShortLinkExhausted
}

// Resolve returns the original URL for a token.
func (s *ShortLinkService) Resolve(ctx context.Context, token string) (string, error) {
	cacheKey := "shortlink:" + token
	if s.rdb != nil {
		url, err := s.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			return url, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("short link cache read failed", zap.Error(err))
		}
	}

	var link models.ShortLink
	if err := s.db.WithContext(ctx).First(&link, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey, link.OriginalURL, shortLinkCacheTTL).Err(); err != nil {
			s.logger.Warn("short link cache write failed", zap.Error(err))
		}
	}
	return link.OriginalURL, nil
}

func randomToken(length int) (string, error) {
	token := make([]byte, length)
	for i := range token {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(shortLinkCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		token[i] = shortLinkCharset[n.Int64()]
	}
	return string(token), nil
}
