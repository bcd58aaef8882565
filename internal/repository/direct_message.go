package repository

import (
	"context"

	"faceblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DirectMessageRepository stores private messages. Conversations are derived.
type DirectMessageRepository interface {
	Create(ctx context.Context, msg *models.DirectMessage) error
	ListCounterparties(ctx context.Context, userID uint) ([]models.User, error)
	Thread(ctx context.Context, userID, otherID uint) ([]*models.DirectMessage, error)
}

type directMessageRepository struct {
	db *gorm.DB
}

// NewDirectMessageRepository creates a new direct message repository
func NewDirectMessageRepository(db *gorm.DB) DirectMessageRepository {
	return &directMessageRepository{db: db}
}

func (r *directMessageRepository) Create(ctx context.Context, msg *models.DirectMessage) error {
	if err := r.db.WithContext(ctx).Omit("Sender").Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListCounterparties returns everyone userID sent to or received from,
// ordered by username.
func (r *directMessageRepository) ListCounterparties(ctx context.Context, userID uint) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	sentTo := db.Model(&models.DirectMessage{}).Select("recipient_id").Where("sender_id = ?", userID)
	receivedFrom := db.Model(&models.DirectMessage{}).Select("sender_id").Where("recipient_id = ?", userID)

	var users []models.User
	err := db.
		Where("id IN (?) OR id IN (?)", sentTo, receivedFrom).
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Thread returns messages in both directions between the pair, oldest first.
// Thread(a, b) and Thread(b, a) are identical.
func (r *directMessageRepository) Thread(ctx context.Context, userID, otherID uint) ([]*models.DirectMessage, error) {
	var messages []*models.DirectMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "timestamp"}},
			{Column: clause.Column{Name: "id"}},
		}}).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}
