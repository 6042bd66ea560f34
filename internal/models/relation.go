package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite marks a recipe as favorited by a user. Presence is membership;
// the pair is unique.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_favorite_pair,unique" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_favorite_pair,unique" json:"recipe_id"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Favorite) TableName() string { return "favorites" }

// ShoppingCartItem marks a recipe as queued for the user's shopping list.
// A recipe may be in the cart and favorited independently.
type ShoppingCartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_cart_pair,unique" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_cart_pair,unique" json:"recipe_id"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ShoppingCartItem) TableName() string { return "shopping_cart_items" }
