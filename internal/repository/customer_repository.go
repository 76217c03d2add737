package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type customerRepository struct {
	collection *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) CustomerRepository {
	return &customerRepository{collection: db.Collection("customers")}
}

func customerNotFound(uid string) error {
	return domain.Errorf(domain.ErrNotFound, "customer %s not found", uid)
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	if customer.Addresses == nil {
		customer.Addresses = []domain.Address{}
	}

	res, err := r.collection.InsertOne(ctx, customer)
	if err != nil {
		return writeError(err, fmt.Sprintf("customer %s already exists", customer.FirebaseUID), "create customer")
	}
	customer.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *customerRepository) FindByFirebaseUID(ctx context.Context, uid string) (*domain.Customer, error) {
	return findOne[domain.Customer](ctx, r.collection, bson.M{"firebaseUid": uid}, customerNotFound(uid))
}

func (r *customerRepository) UpdateByFirebaseUID(ctx context.Context, uid string, u domain.CustomerUpdate) (*domain.Customer, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Email != nil {
		set["email"] = *u.Email
	}
	if u.DisplayName != nil {
		set["displayName"] = *u.DisplayName
	}
	if u.PhoneNumber != nil {
		set["phoneNumber"] = *u.PhoneNumber
	}
	if u.PhotoURL != nil {
		set["photoURL"] = *u.PhotoURL
	}
	if u.IsActive != nil {
		set["isActive"] = *u.IsActive
	}
	if u.Addresses != nil {
		set["addresses"] = *u.Addresses
	}

	var customer domain.Customer
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"firebaseUid": uid}, bson.M{"$set": set}, after()).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customerNotFound(uid)
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return &customer, nil
}
