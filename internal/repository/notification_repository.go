package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/LeoQ9904/back-ecommerce/internal/search"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var byPriority = bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: -1}}

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{collection: db.Collection("notifications")}
}

func notificationNotFound(id string) error {
	return domain.Errorf(domain.ErrNotFound, "notification %s not found", id)
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		return writeError(err, fmt.Sprintf("notification %q already exists", n.Title), "create notification")
	}
	n.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *notificationRepository) FindAll(ctx context.Context) ([]domain.Notification, error) {
	return findMany[domain.Notification](ctx, r.collection, bson.M{}, options.Find().SetSort(byPriority))
}

// FindActive returns active, visible notifications that have not expired.
func (r *notificationRepository) FindActive(ctx context.Context, now time.Time) ([]domain.Notification, error) {
	filter := bson.M{
		"status":    domain.NotificationActive,
		"isVisible": true,
		"$or": bson.A{
			bson.M{"expirationDate": bson.M{"$gt": now}},
			bson.M{"expirationDate": bson.M{"$exists": false}},
			bson.M{"expirationDate": nil},
		},
	}
	return findMany[domain.Notification](ctx, r.collection, filter, options.Find().SetSort(byPriority))
}

func (r *notificationRepository) FindByStatus(ctx context.Context, status domain.NotificationStatus) ([]domain.Notification, error) {
	return findMany[domain.Notification](ctx, r.collection, bson.M{"status": status}, options.Find().SetSort(byPriority))
}

func (r *notificationRepository) Search(ctx context.Context, pred search.Predicate) ([]domain.Notification, error) {
	filter := bson.M{}
	if !pred.Empty() {
		filter = pred.Filter("title", "description")
	}
	return findMany[domain.Notification](ctx, r.collection, filter, options.Find().SetSort(byPriority))
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[domain.Notification](ctx, r.collection, bson.M{"_id": oid}, notificationNotFound(id))
}

func (r *notificationRepository) Update(ctx context.Context, id string, u domain.NotificationUpdate) (*domain.Notification, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.BackgroundImage != nil {
		set["backgroundImage"] = *u.BackgroundImage
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.IsVisible != nil {
		set["isVisible"] = *u.IsVisible
	}
	if u.ExpirationDate != nil {
		set["expirationDate"] = *u.ExpirationDate
	}
	if u.Priority != nil {
		set["priority"] = *u.Priority
	}

	return r.findOneAndUpdate(ctx, id, bson.M{"_id": oid}, bson.M{"$set": set})
}

// ToggleVisibility flips isVisible server side so concurrent toggles never
// read a stale value.
func (r *notificationRepository) ToggleVisibility(ctx context.Context, id string) (*domain.Notification, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"isVisible": bson.M{"$not": bson.A{"$isVisible"}},
			"updatedAt": time.Now().UTC(),
		}}},
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"_id": oid}, update)
}

func (r *notificationRepository) findOneAndUpdate(ctx context.Context, id string, filter, update any) (*domain.Notification, error) {
	var n domain.Notification
	err := r.collection.FindOneAndUpdate(ctx, filter, update, after()).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notificationNotFound(id)
		}
		return nil, writeError(err, "a notification with that title already exists", "update notification")
	}
	return &n, nil
}

// ArchiveExpired moves every notification whose expiration date has passed to
// the archived status and reports how many changed.
func (r *notificationRepository) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"expirationDate": bson.M{"$lt": now},
		"status":         bson.M{"$ne": domain.NotificationArchived},
	}
	update := bson.M{"$set": bson.M{"status": domain.NotificationArchived, "updatedAt": now}}

	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to archive notifications: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return notificationNotFound(id)
	}
	return nil
}

// UpsertByTitle inserts the notification unless one with the same title
// exists. Titles are uniquely indexed, so losing an insert race to another
// instance is reported as existing.
func (r *notificationRepository) UpsertByTitle(ctx context.Context, n *domain.Notification) (bool, error) {
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"title": n.Title},
		bson.M{"$setOnInsert": n},
		options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to seed notification: %w", err)
	}
	return res.UpsertedCount > 0, nil
}
