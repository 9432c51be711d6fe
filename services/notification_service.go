package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"findplayer/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationSink accepts workflow events. Delivery is fire-and-forget for callers.
type NotificationSink interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// NotificationService stores notifications as rows and serves the inbox read path.
type NotificationService struct {
	DB    *gorm.DB
	Clock clockwork.Clock
}

func NewNotificationService(db *gorm.DB, clock clockwork.Clock) *NotificationService {
	return &NotificationService{DB: db, Clock: clock}
}

func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.Clock.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	q := s.DB.WithContext(ctx).Where("to_user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// StreamCursor is the (created_at, id) position of the last delivered notification.
type StreamCursor struct {
	CreatedAt time.Time
	ID        string
}

// Advance moves the cursor to the last row of a batch returned by Since.
func (c StreamCursor) Advance(batch []models.Notification) StreamCursor {
	if len(batch) == 0 {
		return c
	}
	last := batch[len(batch)-1]
	return StreamCursor{CreatedAt: last.CreatedAt, ID: last.ID}
}

// Since returns the user's notifications ordered after the cursor, oldest first.
// Rows sharing the cursor's timestamp are ordered by id.
func (s *NotificationService) Since(ctx context.Context, userID string, cursor StreamCursor) ([]models.Notification, error) {
	var out []models.Notification
	err := s.DB.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Where("created_at > ? OR (created_at = ? AND id > ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}

// MarkRead flags one of the user's notifications as read. Other users' rows are not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	res := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND to_user_id = ?", id, userID).
		UpdateColumn("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Notification{}).
			Where("id = ? AND to_user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return notFound("notification " + id)
		}
	}
	return nil
}

// UnreadCount is used by the inbox badge.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("to_user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func metadataJSON(v map[string]any) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
