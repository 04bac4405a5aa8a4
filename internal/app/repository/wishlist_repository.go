package repository

import (
	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"gorm.io/gorm"
)

type WishlistRepository interface {
	Create(wishlist *model.Wishlist) error
	FindBySlug(slug string) (*model.Wishlist, error)
	FindByOwnerID(ownerID uuid.UUID) ([]model.Wishlist, error)
	Update(wishlist *model.Wishlist) error
	Delete(id uuid.UUID) error
}

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

// preloadItems loads items in insertion order together with the ledger rows
// that derive their state.
func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("items.created_at ASC").
			Preload("Reservation").
			Preload("Contributions", func(ctx *gorm.DB) *gorm.DB {
				return ctx.Order("contributions.created_at ASC")
			})
	})
}

func (r *wishlistRepository) Create(wishlist *model.Wishlist) error {
	logger.Debug("Creating wishlist in database", map[string]interface{}{
		"owner_id": wishlist.OwnerID,
		"slug":     wishlist.Slug,
	})

	if err := r.db.Create(wishlist).Error; err != nil {
		logger.Error("Failed to create wishlist in database", err, map[string]interface{}{
			"owner_id": wishlist.OwnerID,
			"slug":     wishlist.Slug,
		})
		return err
	}

	logger.Debug("Wishlist created in database", map[string]interface{}{
		"wishlist_id": wishlist.ID,
		"slug":        wishlist.Slug,
	})
	return nil
}

func (r *wishlistRepository) FindBySlug(slug string) (*model.Wishlist, error) {
	logger.Debug("Finding wishlist by slug in database", map[string]interface{}{
		"slug": slug,
	})

	var wishlist model.Wishlist
	if err := preloadItems(r.db).Where("slug = ?", slug).First(&wishlist).Error; err != nil {
		logger.Debug("Wishlist not found by slug in database", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
		return nil, err
	}

	logger.Debug("Wishlist found by slug in database", map[string]interface{}{
		"wishlist_id": wishlist.ID,
		"item_count":  len(wishlist.Items),
	})
	return &wishlist, nil
}

func (r *wishlistRepository) FindByOwnerID(ownerID uuid.UUID) ([]model.Wishlist, error) {
	logger.Debug("Finding wishlists by owner in database", map[string]interface{}{
		"owner_id": ownerID,
	})

	var wishlists []model.Wishlist
	if err := preloadItems(r.db).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&wishlists).Error; err != nil {
		logger.Error("Failed to find wishlists by owner in database", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}

	logger.Debug("Wishlists found by owner in database", map[string]interface{}{
		"owner_id": ownerID,
		"count":    len(wishlists),
	})
	return wishlists, nil
}

func (r *wishlistRepository) Update(wishlist *model.Wishlist) error {
	logger.Debug("Updating wishlist in database", map[string]interface{}{
		"wishlist_id": wishlist.ID,
	})

	if err := r.db.Model(&model.Wishlist{}).
		Where("id = ?", wishlist.ID).
		Updates(map[string]interface{}{
			"title":       wishlist.Title,
			"description": wishlist.Description,
		}).Error; err != nil {
		logger.Error("Failed to update wishlist in database", err, map[string]interface{}{
			"wishlist_id": wishlist.ID,
		})
		return err
	}
	return nil
}

// Delete removes the wishlist and, in the same transaction, every item and
// ledger row that belongs to it.
func (r *wishlistRepository) Delete(id uuid.UUID) error {
	logger.Debug("Deleting wishlist from database", map[string]interface{}{
		"wishlist_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		itemIDs := tx.Model(&model.Item{}).Select("id").Where("wishlist_id = ?", id)
		if err := tx.Where("item_id IN (?)", itemIDs).Delete(&model.Contribution{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id IN (?)", itemIDs).Delete(&model.Reservation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wishlist_id = ?", id).Delete(&model.Item{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Wishlist{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete wishlist from database", err, map[string]interface{}{
			"wishlist_id": id,
		})
		return err
	}

	logger.Debug("Wishlist deleted from database", map[string]interface{}{
		"wishlist_id": id,
	})
	return nil
}
