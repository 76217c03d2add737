package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Address struct {
	Street    string `bson:"street" json:"street" validate:"required"`
	City      string `bson:"city" json:"city" validate:"required"`
	State     string `bson:"state" json:"state" validate:"required"`
	ZipCode   string `bson:"zipCode" json:"zipCode" validate:"required"`
	Country   string `bson:"country" json:"country" validate:"required"`
	IsDefault bool   `bson:"isDefault" json:"isDefault"`
}

type Customer struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirebaseUID string             `bson:"firebaseUid" json:"firebaseUid"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	PhoneNumber string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	PhotoURL    string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Addresses   []Address          `bson:"addresses" json:"addresses"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CustomerUpdate struct {
	Email       *string
	DisplayName *string
	PhoneNumber *string
	PhotoURL    *string
	IsActive    *bool
	Addresses   *[]Address
}

// EnsureOneDefault leaves exactly one address flagged as default. With none
// flagged the first address becomes the default; with several flagged only the
// first flagged one keeps the flag.
func EnsureOneDefault(addresses []Address) {
	first := -1
	for i := range addresses {
		if !addresses[i].IsDefault {
			continue
		}
		if first == -1 {
			first = i
			continue
		}
		addresses[i].IsDefault = false
	}
	if first == -1 && len(addresses) > 0 {
		addresses[0].IsDefault = true
	}
}
