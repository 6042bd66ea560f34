package models

import "time"

// ShortLink maps an opaque token to an original URL. Immutable once created.
type ShortLink struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	CreatedAt   time.Time `json:"-"`
	Token       string    `gorm:"size:8;uniqueIndex;not null" json:"token"`
	OriginalURL string    `gorm:"size:256;uniqueIndex;not null" json:"original_url"`
}

func (ShortLink) TableName() string { return "short_links" }
