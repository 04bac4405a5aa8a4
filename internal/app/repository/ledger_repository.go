package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/wishlist-backend/internal/app/model"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrItemNotFound            = errors.New("item not found")
	ErrWrongItemKind           = errors.New("operation does not apply to this kind of item")
	ErrAlreadyReserved         = errors.New("item is already reserved")
	ErrAmountExceedsRemaining  = errors.New("amount exceeds remaining balance")
	ErrReservationNotFound     = errors.New("item has no reservation")
	ErrForbidden               = errors.New("only the wishlist owner may do this")
	ErrPriceBelowContributions = errors.New("price is below collected contributions")
)

// LedgerReceipt describes a committed ledger mutation. The wishlist fields
// scope the change notification that follows it.
type LedgerReceipt struct {
	ItemID               uuid.UUID
	WishlistID           uuid.UUID
	WishlistSlug         string
	RemovedReservations  int64
	RemovedContributions int64
}

// LedgerViolation is a committed row set that breaks the ledger invariant.
type LedgerViolation struct {
	ItemID uuid.UUID
	Kind   string
	Detail string
}

const (
	ViolationDoubleReservation  = "double_reservation"
	ViolationOverfunded         = "overfunded"
	ViolationMixedProtocol      = "mixed_protocol"
	ViolationReservationOnGroup = "reservation_on_group_gift"
)

// LedgerRepository is the only writer of reservations and contributions.
// Every mutation runs with the item serialized twice: an in-process lock
// per item id, then a row lock on the item inside a transaction, so the
// invariant check and the write commit together.
type LedgerRepository interface {
	Reserve(ctx context.Context, itemID uuid.UUID, requester model.Requester) (*LedgerReceipt, error)
	Contribute(ctx context.Context, itemID uuid.UUID, requester model.Requester, amount model.Money) (*LedgerReceipt, error)
	ReleaseReservation(ctx context.Context, itemID, ownerID uuid.UUID) (*LedgerReceipt, error)
	UpdateItem(ctx context.Context, itemID, ownerID uuid.UUID, patch model.ItemPatch) (*LedgerReceipt, error)
	DeleteItem(ctx context.Context, itemID, ownerID uuid.UUID) (*LedgerReceipt, error)
	Audit(ctx context.Context) ([]LedgerViolation, error)
}

type ledgerRepository struct {
	db    *gorm.DB
	locks *itemLocks
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db, locks: newItemLocks()}
}

// lockedItem is the state read under the row lock.
type lockedItem struct {
	item        model.Item
	wishlist    model.Wishlist
	reservation *model.Reservation
	total       model.Money
	count       int64
}

func (l *lockedItem) receipt() *LedgerReceipt {
	return &LedgerReceipt{
		ItemID:       l.item.ID,
		WishlistID:   l.wishlist.ID,
		WishlistSlug: l.wishlist.Slug,
	}
}

// withLockedItem runs fn inside a transaction holding the item's row lock.
// fn sees the item, its wishlist, its reservation and its contribution total
// as committed at lock time.
func (r *ledgerRepository) withLockedItem(ctx context.Context, itemID uuid.UUID, fn func(tx *gorm.DB, state *lockedItem) (*LedgerReceipt, error)) (*LedgerReceipt, error) {
	release, err := r.locks.acquire(ctx, itemID)
	if err != nil {
		return nil, err
	}
	defer release()

	var receipt *LedgerReceipt
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state := &lockedItem{}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&state.item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		if err := tx.First(&state.wishlist, "id = ?", state.item.WishlistID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		var reservation model.Reservation
		err := tx.Where("item_id = ?", itemID).Limit(1).Find(&reservation).Error
		if err != nil {
			return err
		}
		if reservation.ID != uuid.Nil {
			state.reservation = &reservation
		}

		var contributions []model.Contribution
		if err := tx.Where("item_id = ?", itemID).Find(&contributions).Error; err != nil {
			return err
		}
		amounts := make([]model.Money, 0, len(contributions))
		for _, c := range contributions {
			amounts = append(amounts, c.Amount)
		}
		state.total = model.SumMoney(amounts)
		state.count = int64(len(contributions))

		receipt, err = fn(tx, state)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (r *ledgerRepository) Reserve(ctx context.Context, itemID uuid.UUID, requester model.Requester) (*LedgerReceipt, error) {
	logger.Debug("Reserving item in ledger", map[string]interface{}{
		"item_id":   itemID,
		"requester": requester.String(),
	})

	receipt, err := r.withLockedItem(ctx, itemID, func(tx *gorm.DB, state *lockedItem) (*LedgerReceipt, error) {
		if state.item.IsGroupGift {
			return nil, ErrWrongItemKind
		}
		if state.reservation != nil {
			return nil, ErrAlreadyReserved
		}

		userID, guestName := requester.Columns()
		reservation := model.Reservation{
			ItemID:    itemID,
			UserID:    userID,
			GuestName: guestName,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, ErrAlreadyReserved
			}
			return nil, err
		}
		return state.receipt(), nil
	})
	if err != nil {
		logLedgerFailure("Reserve rejected by ledger", err, itemID)
		return nil, err
	}

	logger.Info("Item reserved", map[string]interface{}{
		"item_id":       itemID,
		"wishlist_slug": receipt.WishlistSlug,
		"requester":     requester.String(),
	})
	return receipt, nil
}

func (r *ledgerRepository) Contribute(ctx context.Context, itemID uuid.UUID, requester model.Requester, amount model.Money) (*LedgerReceipt, error) {
	logger.Debug("Recording contribution in ledger", map[string]interface{}{
		"item_id":   itemID,
		"requester": requester.String(),
		"amount":    amount.String(),
	})

	receipt, err := r.withLockedItem(ctx, itemID, func(tx *gorm.DB, state *lockedItem) (*LedgerReceipt, error) {
		if !state.item.IsGroupGift {
			return nil, ErrWrongItemKind
		}

		remaining := state.item.Price.Sub(state.total)
		if remaining.IsNegative() {
			remaining = model.ZeroMoney()
		}
		if amount.GreaterThan(remaining.Decimal) {
			return nil, fmt.Errorf("%w: remaining %s", ErrAmountExceedsRemaining, remaining)
		}

		userID, guestName := requester.Columns()
		contribution := model.Contribution{
			ItemID:    itemID,
			UserID:    userID,
			GuestName: guestName,
			Amount:    amount,
		}
		if err := tx.Create(&contribution).Error; err != nil {
			return nil, err
		}
		return state.receipt(), nil
	})
	if err != nil {
		logLedgerFailure("Contribution rejected by ledger", err, itemID)
		return nil, err
	}

	logger.Info("Contribution recorded", map[string]interface{}{
		"item_id":       itemID,
		"wishlist_slug": receipt.WishlistSlug,
		"requester":     requester.String(),
		"amount":        amount.String(),
	})
	return receipt, nil
}

func (r *ledgerRepository) ReleaseReservation(ctx context.Context, itemID, ownerID uuid.UUID) (*LedgerReceipt, error) {
	receipt, err := r.withLockedItem(ctx, itemID, func(tx *gorm.DB, state *lockedItem) (*LedgerReceipt, error) {
		if !state.wishlist.IsOwnedBy(ownerID) {
			return nil, ErrForbidden
		}
		if state.reservation == nil {
			return nil, ErrReservationNotFound
		}
		if err := tx.Delete(state.reservation).Error; err != nil {
			return nil, err
		}
		receipt := state.receipt()
		receipt.RemovedReservations = 1
		return receipt, nil
	})
	if err != nil {
		logLedgerFailure("Reservation release rejected by ledger", err, itemID)
		return nil, err
	}

	logger.Info("Reservation released", map[string]interface{}{
		"item_id":  itemID,
		"owner_id": ownerID,
	})
	return receipt, nil
}

// UpdateItem applies owner edits under the item lock. The protocol flag
// cannot flip while any holder exists, and the price cannot drop below what
// has already been contributed.
func (r *ledgerRepository) UpdateItem(ctx context.Context, itemID, ownerID uuid.UUID, patch model.ItemPatch) (*LedgerReceipt, error) {
	receipt, err := r.withLockedItem(ctx, itemID, func(tx *gorm.DB, state *lockedItem) (*LedgerReceipt, error) {
		if !state.wishlist.IsOwnedBy(ownerID) {
			return nil, ErrForbidden
		}

		updates := map[string]interface{}{}
		if patch.IsGroupGift != nil && *patch.IsGroupGift != state.item.IsGroupGift {
			if state.reservation != nil || state.count > 0 {
				return nil, ErrWrongItemKind
			}
			updates["is_group_gift"] = *patch.IsGroupGift
		}
		if patch.Price != nil {
			if patch.Price.LessThan(state.total.Decimal) {
				return nil, ErrPriceBelowContributions
			}
			updates["price"] = *patch.Price
		}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.URL != nil {
			updates["url"] = *patch.URL
		}
		if patch.ImageURL != nil {
			updates["image_url"] = *patch.ImageURL
		}

		if len(updates) > 0 {
			if err := tx.Model(&state.item).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return state.receipt(), nil
	})
	if err != nil {
		logLedgerFailure("Item update rejected by ledger", err, itemID)
		return nil, err
	}

	logger.Info("Item updated", map[string]interface{}{
		"item_id":  itemID,
		"owner_id": ownerID,
	})
	return receipt, nil
}

// DeleteItem removes the item together with its reservation and
// contributions in one transaction. Holders do not block deletion.
func (r *ledgerRepository) DeleteItem(ctx context.Context, itemID, ownerID uuid.UUID) (*LedgerReceipt, error) {
	receipt, err := r.withLockedItem(ctx, itemID, func(tx *gorm.DB, state *lockedItem) (*LedgerReceipt, error) {
		if !state.wishlist.IsOwnedBy(ownerID) {
			return nil, ErrForbidden
		}

		receipt := state.receipt()

		res := tx.Where("item_id = ?", itemID).Delete(&model.Contribution{})
		if res.Error != nil {
			return nil, res.Error
		}
		receipt.RemovedContributions = res.RowsAffected

		res = tx.Where("item_id = ?", itemID).Delete(&model.Reservation{})
		if res.Error != nil {
			return nil, res.Error
		}
		receipt.RemovedReservations = res.RowsAffected

		if err := tx.Delete(&state.item).Error; err != nil {
			return nil, err
		}
		return receipt, nil
	})
	if err != nil {
		logLedgerFailure("Item delete rejected by ledger", err, itemID)
		return nil, err
	}

	if receipt.RemovedReservations > 0 || receipt.RemovedContributions > 0 {
		logger.Warn("Item deleted with active holders", map[string]interface{}{
			"item_id":               itemID,
			"removed_reservations":  receipt.RemovedReservations,
			"removed_contributions": receipt.RemovedContributions,
		})
	} else {
		logger.Info("Item deleted", map[string]interface{}{
			"item_id": itemID,
		})
	}
	return receipt, nil
}

// Audit re-checks the ledger invariant over committed rows.
func (r *ledgerRepository) Audit(ctx context.Context) ([]LedgerViolation, error) {
	var violations []LedgerViolation
	db := r.db.WithContext(ctx)

	var doubles []struct {
		ItemID uuid.UUID
		Count  int64
	}
	if err := db.Model(&model.Reservation{}).
		Select("item_id, COUNT(*) AS count").
		Group("item_id").
		Having("COUNT(*) > 1").
		Scan(&doubles).Error; err != nil {
		logger.Error("Failed to audit reservations", err)
		return nil, err
	}
	for _, d := range doubles {
		violations = append(violations, LedgerViolation{
			ItemID: d.ItemID,
			Kind:   ViolationDoubleReservation,
			Detail: fmt.Sprintf("%d reservations", d.Count),
		})
	}

	var items []model.Item
	err := db.Preload("Reservation").Preload("Contributions").
		FindInBatches(&items, 200, func(tx *gorm.DB, batch int) error {
			for i := range items {
				violations = append(violations, auditItem(&items[i])...)
			}
			return nil
		}).Error
	if err != nil {
		logger.Error("Failed to audit items", err)
		return nil, err
	}

	return violations, nil
}

func auditItem(item *model.Item) []LedgerViolation {
	var out []LedgerViolation
	if item.IsGroupGift {
		if item.Reservation != nil {
			out = append(out, LedgerViolation{ItemID: item.ID, Kind: ViolationReservationOnGroup})
		}
		if total := item.TotalContributions(); total.GreaterThan(item.Price.Decimal) {
			out = append(out, LedgerViolation{
				ItemID: item.ID,
				Kind:   ViolationOverfunded,
				Detail: fmt.Sprintf("total %s exceeds price %s", total, item.Price),
			})
		}
		return out
	}
	if len(item.Contributions) > 0 {
		out = append(out, LedgerViolation{
			ItemID: item.ID,
			Kind:   ViolationMixedProtocol,
			Detail: fmt.Sprintf("%d contributions on a regular item", len(item.Contributions)),
		})
	}
	return out
}

func logLedgerFailure(msg string, err error, itemID uuid.UUID) {
	fields := map[string]interface{}{"item_id": itemID}
	if isLedgerRejection(err) {
		fields["reason"] = err.Error()
		logger.Warn(msg, fields)
		return
	}
	logger.Error(msg, err, fields)
}

func isLedgerRejection(err error) bool {
	for _, target := range []error{
		ErrItemNotFound,
		ErrWrongItemKind,
		ErrAlreadyReserved,
		ErrAmountExceedsRemaining,
		ErrReservationNotFound,
		ErrForbidden,
		ErrPriceBelowContributions,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
