// Package mongo provides the MongoDB notification archive. Notifications are
// a delivery concern, not a financial one, so they live outside the
// transactional PostgreSQL store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marketplace-escrow-ledger/internal/domain/notification"
)

const (
	// NotificationCollectionName is the name of the notification collection in MongoDB
	NotificationCollectionName = "notifications"
)

// NotificationSink implements the notification.Sink interface for MongoDB
type NotificationSink struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewNotificationSink creates a new MongoDB notification sink
func NewNotificationSink(logger *slog.Logger, db *mongo.Database) notification.Sink {
	return &NotificationSink{
		db:     db,
		logger: logger,
	}
}

// Deliver archives a notification. Redelivery of the same notification ID is
// treated as success so the outbox poller can safely retry.
func (s *NotificationSink) Deliver(ctx context.Context, n *notification.Notification) error {
	collection := s.db.Collection(NotificationCollectionName)

	_, err := collection.InsertOne(ctx, n)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		s.logger.Error("Failed to deliver notification",
			"notification_id", n.ID.String(),
			"recipient_id", n.RecipientID.String(),
			"error", err)
		return fmt.Errorf("failed to deliver notification: %w", err)
	}

	return nil
}

// GetByRecipient retrieves paginated notifications for a user.
// Results are sorted by creation time in descending order (newest first).
func (s *NotificationSink) GetByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	collection := s.db.Collection(NotificationCollectionName)

	filter := bson.M{"recipient_id": recipientID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		s.logger.Error("Failed to get notifications",
			"recipient_id", recipientID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*notification.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		s.logger.Error("Failed to decode notifications",
			"recipient_id", recipientID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, nil
}

// GetByTimeRange retrieves paginated notifications within the specified time
// window for support and audit tooling.
func (s *NotificationSink) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*notification.Notification, error) {
	collection := s.db.Collection(NotificationCollectionName)

	filter := bson.M{
		"created_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		s.logger.Error("Failed to get notifications by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get notifications by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*notification.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		s.logger.Error("Failed to decode notifications",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}

	return notifications, nil
}
