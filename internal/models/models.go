package models

import (
	"time"

	"github.com/vineet-vishwakarma/Chat-App/internal/room"
)

const (
	DefaultProfilePicture = "https://res.cloudinary.com/dnqdcxldn/image/upload/v1726504736/l60Hf_te3txt.png"
	DefaultLanguage       = "English"
)

type User struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	Username         string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email            string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash     string     `gorm:"not null" json:"-"`
	ProfilePicture   string     `gorm:"size:512" json:"profilePicture"`
	SelectedLanguage string     `gorm:"size:64" json:"selectedLanguage"`
	LastSeen         *time.Time `json:"lastSeen,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type RefreshToken struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    string     `gorm:"index;size:36;not null"`
	Token     string     `gorm:"uniqueIndex;size:128;not null"`
	ExpiresAt time.Time  `gorm:"index;not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Message is immutable once stored. IsRead has no mutation path.
type Message struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID         room.ID   `gorm:"index:idx_msg_room_id;size:160;not null" json:"roomId" validate:"required"`
	SenderID       string    `gorm:"index:idx_msg_pair;size:64" json:"senderId"`
	ReceiverID     string    `gorm:"index:idx_msg_pair;size:64" json:"receiverId"`
	MessageText    string    `gorm:"type:text;not null" json:"messageText" validate:"required"`
	TranslatedText string    `gorm:"type:text" json:"translatedText,omitempty"`
	IsRead         bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
