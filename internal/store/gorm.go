package store

import (
	"context"

	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/metrics"
	"github.com/vineet-vishwakarma/Chat-App/internal/models"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
	"gorm.io/gorm"
)

// GormStore keeps messages in the relational database shared with users.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, msg *models.Message) error {
	if err := prepare(msg); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		metrics.StoreErrorsTotal.Inc()
		return apperr.Storage("failed to save message", err)
	}
	return nil
}

func (s *GormStore) FindByPair(ctx context.Context, a, b string) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		metrics.StoreErrorsTotal.Inc()
		return nil, apperr.Storage("failed to load messages", err)
	}
	return msgs, nil
}

func (s *GormStore) ListByRoom(ctx context.Context, id room.ID) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	if err := s.db.WithContext(ctx).Where("room_id = ?", id).Order("created_at asc").Find(&msgs).Error; err != nil {
		metrics.StoreErrorsTotal.Inc()
		return nil, apperr.Storage("failed to load messages", err)
	}
	return msgs, nil
}

// Close is a no-op; the connection pool belongs to the caller.
func (s *GormStore) Close() error { return nil }
