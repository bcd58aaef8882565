package repository

import (
	"context"

	"faceblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository stores chat rooms and their append-only message logs.
type RoomRepository interface {
	Create(ctx context.Context, room *models.ChatRoom) error
	GetByID(ctx context.Context, id uint) (*models.ChatRoom, error)
	List(ctx context.Context) ([]models.ChatRoom, error)
	Search(ctx context.Context, term string, limit int) ([]models.ChatRoom, error)
	AppendMessage(ctx context.Context, msg *models.RoomMessage) error
	ListMessages(ctx context.Context, roomID uint) ([]*models.RoomMessage, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.ChatRoom) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, lookupError(err, "ChatRoom", id)
	}
	return &room, nil
}

func (r *roomRepository) List(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

func (r *roomRepository) Search(ctx context.Context, term string, limit int) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	db := r.db.WithContext(ctx)
	q := db.Where(containsClause(db, "name"), containsPattern(term)).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

func (r *roomRepository) AppendMessage(ctx context.Context, msg *models.RoomMessage) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListMessages returns the whole log in commit order.
func (r *roomRepository) ListMessages(ctx context.Context, roomID uint) ([]*models.RoomMessage, error) {
	var messages []*models.RoomMessage
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("chatroom_id = ?", roomID).
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
