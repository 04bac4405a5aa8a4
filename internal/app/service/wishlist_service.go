package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"gorm.io/gorm"
)

type WishlistInput struct {
	Title       string
	Description string
}

type ItemInput struct {
	Title       string
	URL         string
	Price       model.Money
	ImageURL    string
	IsGroupGift bool
}

// ItemDeletion reports the holders removed along with a deleted item.
type ItemDeletion struct {
	ItemID               uuid.UUID
	RemovedReservations  int64
	RemovedContributions int64
}

type WishlistService interface {
	CreateWishlist(ownerID uuid.UUID, input WishlistInput) (*model.WishlistView, error)
	ListOwnWishlists(ownerID uuid.UUID) ([]model.WishlistView, error)
	GetWishlist(slug string, viewerID *uuid.UUID) (*model.WishlistView, error)
	UpdateWishlist(slug string, ownerID uuid.UUID, input WishlistInput) (*model.WishlistView, error)
	DeleteWishlist(slug string, ownerID uuid.UUID) error

	AddItem(slug string, ownerID uuid.UUID, input ItemInput) (*model.ItemView, error)
	UpdateItem(ctx context.Context, itemID, ownerID uuid.UUID, patch model.ItemPatch) (*model.ItemView, error)
	DeleteItem(ctx context.Context, itemID, ownerID uuid.UUID) (*ItemDeletion, error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	itemRepo     repository.ItemRepository
	ledger       repository.LedgerRepository
	views        viewBuilder
	notifier     ChangeNotifier
}

func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	itemRepo repository.ItemRepository,
	ledger repository.LedgerRepository,
	userRepo repository.UserRepository,
	notifier ChangeNotifier,
) WishlistService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		itemRepo:     itemRepo,
		ledger:       ledger,
		views:        viewBuilder{userRepo: userRepo},
		notifier:     notifier,
	}
}

// NewSlug returns a shareable identifier such as "wishlist-3f9c2a7b1d04".
func NewSlug() string {
	return "wishlist-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *wishlistService) CreateWishlist(ownerID uuid.UUID, input WishlistInput) (*model.WishlistView, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}

	wishlist := &model.Wishlist{
		Slug:        NewSlug(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     ownerID,
	}
	if err := s.wishlistRepo.Create(wishlist); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.Info("Wishlist created", map[string]interface{}{
		"owner_id": ownerID,
		"slug":     wishlist.Slug,
	})

	view := s.views.wishlist(wishlist, &ownerID)
	return &view, nil
}

func (s *wishlistService) ListOwnWishlists(ownerID uuid.UUID) ([]model.WishlistView, error) {
	wishlists, err := s.wishlistRepo.FindByOwnerID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	views := make([]model.WishlistView, 0, len(wishlists))
	for i := range wishlists {
		views = append(views, s.views.wishlist(&wishlists[i], &ownerID))
	}
	return views, nil
}

// GetWishlist shapes the wishlist for its viewer: the owner gets the owner
// view, anyone else (including anonymous callers) the public view.
func (s *wishlistService) GetWishlist(slug string, viewerID *uuid.UUID) (*model.WishlistView, error) {
	wishlist, err := s.findWishlist(slug)
	if err != nil {
		return nil, err
	}

	view := s.views.wishlist(wishlist, viewerID)
	logger.Debug("Wishlist view built", map[string]interface{}{
		"slug":     slug,
		"is_owner": view.IsOwner,
		"items":    len(view.Items),
	})
	return &view, nil
}

func (s *wishlistService) UpdateWishlist(slug string, ownerID uuid.UUID, input WishlistInput) (*model.WishlistView, error) {
	wishlist, err := s.ownedWishlist(slug, ownerID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	wishlist.Title = title
	wishlist.Description = strings.TrimSpace(input.Description)

	if err := s.wishlistRepo.Update(wishlist); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.notifier.NotifyWishlistChanged(wishlist.Slug)

	view := s.views.wishlist(wishlist, &ownerID)
	return &view, nil
}

func (s *wishlistService) DeleteWishlist(slug string, ownerID uuid.UUID) error {
	wishlist, err := s.ownedWishlist(slug, ownerID)
	if err != nil {
		return err
	}

	if err := s.wishlistRepo.Delete(wishlist.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWishlistNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.notifier.NotifyWishlistChanged(wishlist.Slug)

	logger.Info("Wishlist deleted", map[string]interface{}{
		"slug":     slug,
		"owner_id": ownerID,
	})
	return nil
}

func (s *wishlistService) AddItem(slug string, ownerID uuid.UUID, input ItemInput) (*model.ItemView, error) {
	wishlist, err := s.ownedWishlist(slug, ownerID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidRequest)
	}
	if err := input.Price.Check(); err != nil {
		return nil, fmt.Errorf("%w: price: %v", ErrInvalidRequest, err)
	}

	creator := ownerID
	item := &model.Item{
		WishlistID:  wishlist.ID,
		Title:       title,
		URL:         strings.TrimSpace(input.URL),
		Price:       input.Price,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		IsGroupGift: input.IsGroupGift,
		CreatedBy:   &creator,
	}
	if err := s.itemRepo.Create(item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.notifier.NotifyWishlistChanged(wishlist.Slug)

	item.Wishlist = wishlist
	view := s.views.item(item, &ownerID)
	return &view, nil
}

func (s *wishlistService) UpdateItem(ctx context.Context, itemID, ownerID uuid.UUID, patch model.ItemPatch) (*model.ItemView, error) {
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
		}
		patch.Title = &trimmed
	}
	if patch.Price != nil {
		if !patch.Price.IsPositive() {
			return nil, fmt.Errorf("%w: price must be positive", ErrInvalidRequest)
		}
		if err := patch.Price.Check(); err != nil {
			return nil, fmt.Errorf("%w: price: %v", ErrInvalidRequest, err)
		}
	}

	receipt, err := s.ledger.UpdateItem(ctx, itemID, ownerID, patch)
	if err != nil {
		return nil, translateLedgerError(err)
	}
	s.notifier.NotifyWishlistChanged(receipt.WishlistSlug)

	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		return nil, translateLedgerError(err)
	}
	view := s.views.item(item, &ownerID)
	return &view, nil
}

// DeleteItem removes the item even when it is reserved or partly funded;
// the result tells the owner what went with it.
func (s *wishlistService) DeleteItem(ctx context.Context, itemID, ownerID uuid.UUID) (*ItemDeletion, error) {
	receipt, err := s.ledger.DeleteItem(ctx, itemID, ownerID)
	if err != nil {
		return nil, translateLedgerError(err)
	}
	s.notifier.NotifyWishlistChanged(receipt.WishlistSlug)

	return &ItemDeletion{
		ItemID:               receipt.ItemID,
		RemovedReservations:  receipt.RemovedReservations,
		RemovedContributions: receipt.RemovedContributions,
	}, nil
}

func (s *wishlistService) findWishlist(slug string) (*model.Wishlist, error) {
	wishlist, err := s.wishlistRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Wishlist not found", map[string]interface{}{
				"slug": slug,
			})
			return nil, ErrWishlistNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return wishlist, nil
}

func (s *wishlistService) ownedWishlist(slug string, ownerID uuid.UUID) (*model.Wishlist, error) {
	wishlist, err := s.findWishlist(slug)
	if err != nil {
		return nil, err
	}
	if !wishlist.IsOwnedBy(ownerID) {
		logger.Warn("Owner-only wishlist action by non-owner", map[string]interface{}{
			"slug":    slug,
			"user_id": ownerID,
		})
		return nil, ErrForbidden
	}
	return wishlist, nil
}
