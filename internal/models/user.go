package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is created by the auth collaborator; this service only mutates the
// avatar and reads profile data.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName string    `gorm:"size:150" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	IsStaff   bool      `gorm:"not null;default:false" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// FullName is used in the shopping-list report header.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Follow links a subscriber to an author. The composite unique index is the
// arbiter for duplicate subscriptions under concurrent requests.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_follow_pair,unique" json:"user"`
	FollowingID uuid.UUID `gorm:"type:uuid;not null;index:idx_follow_pair,unique" json:"following"`
	Following   User      `gorm:"foreignKey:FollowingID" json:"-"`
}

func (Follow) TableName() string { return "follows" }
