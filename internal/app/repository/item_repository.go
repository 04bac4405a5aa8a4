package repository

import (
	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"gorm.io/gorm"
)

type ItemRepository interface {
	Create(item *model.Item) error
	FindByID(id uuid.UUID) (*model.Item, error)
	FindContributions(itemID uuid.UUID) ([]model.Contribution, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(item *model.Item) error {
	logger.Debug("Creating item in database", map[string]interface{}{
		"wishlist_id":   item.WishlistID,
		"price":         item.Price.String(),
		"is_group_gift": item.IsGroupGift,
	})

	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create item in database", err, map[string]interface{}{
			"wishlist_id": item.WishlistID,
		})
		return err
	}

	logger.Debug("Item created in database", map[string]interface{}{
		"item_id": item.ID,
	})
	return nil
}

// FindByID loads the item with its wishlist, reservation and contributions,
// which is everything needed to derive its current state.
func (r *itemRepository) FindByID(id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.
		Preload("Wishlist").
		Preload("Reservation").
		Preload("Contributions", func(db *gorm.DB) *gorm.DB {
			return db.Order("contributions.created_at ASC")
		}).
		First(&item, "id = ?", id).Error
	if err != nil {
		logger.Debug("Item not found by ID in database", map[string]interface{}{
			"item_id": id,
			"error":   err.Error(),
		})
		return nil, err
	}
	if item.Wishlist == nil {
		// An item whose wishlist is gone is treated as gone too.
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r *itemRepository) FindContributions(itemID uuid.UUID) ([]model.Contribution, error) {
	var contributions []model.Contribution
	if err := r.db.Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&contributions).Error; err != nil {
		logger.Error("Failed to find contributions in database", err, map[string]interface{}{
			"item_id": itemID,
		})
		return nil, err
	}
	return contributions, nil
}
