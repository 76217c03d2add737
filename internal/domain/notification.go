package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationStatus string

const (
	NotificationActive   NotificationStatus = "active"
	NotificationInactive NotificationStatus = "inactive"
	NotificationArchived NotificationStatus = "archived"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case NotificationActive, NotificationInactive, NotificationArchived:
		return true
	}
	return false
}

type Notification struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description" json:"description"`
	BackgroundImage string             `bson:"backgroundImage,omitempty" json:"backgroundImage,omitempty"`
	Status          NotificationStatus `bson:"status" json:"status"`
	IsVisible       bool               `bson:"isVisible" json:"isVisible"`
	ExpirationDate  *time.Time         `bson:"expirationDate,omitempty" json:"expirationDate,omitempty"`
	Priority        int                `bson:"priority" json:"priority"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Expired reports whether the notification has an expiration date before now.
func (n Notification) Expired(now time.Time) bool {
	return n.ExpirationDate != nil && n.ExpirationDate.Before(now)
}

type NotificationUpdate struct {
	Title           *string
	Description     *string
	BackgroundImage *string
	Status          *NotificationStatus
	IsVisible       *bool
	ExpirationDate  *time.Time
	Priority        *int
}
