package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tax-harvest-go/internal/models"
	"tax-harvest-go/internal/washsale"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Execution is the outcome of realizing a recommendation.
type Execution struct {
	Recommendation    models.Recommendation `json:"recommendation"`
	Transaction       models.Transaction    `json:"transaction"`
	RemainingQuantity decimal.Decimal       `json:"remaining_quantity"`
	HoldingDeleted    bool                  `json:"holding_deleted"`
	// WashSale is set when the sale falls inside the window of a recent buy.
	WashSale *washsale.Check `json:"wash_sale,omitempty"`
}

// Reversal is the outcome of compensating a transaction.
type Reversal struct {
	Original         models.Transaction `json:"original"`
	Compensating     models.Transaction `json:"compensating"`
	Holding          *models.Holding    `json:"holding,omitempty"`
	HoldingRecreated bool               `json:"holding_recreated"`
}

// Executor is the only component that mutates holdings and transactions.
type Executor struct {
	db     *gorm.DB
	guard  WashSaleChecker
	logger *zap.Logger
	now    func() time.Time
	newRef func() string
}

// NewExecutor creates a new Executor. guard may be nil.
func NewExecutor(db *gorm.DB, guard WashSaleChecker, logger *zap.Logger) *Executor {
	return &Executor{
		db:     db,
		guard:  guard,
		logger: logger.Named("executor"),
		now:    time.Now,
		newRef: uuid.NewString,
	}
}

// SetClock overrides time.Now.
func (x *Executor) SetClock(now func() time.Time) { x.now = now }

// Execute turns a pending recommendation into a realized sale: it inserts a
// sell transaction, decrements the holding and marks the recommendation
// accepted, all in one database transaction. A second call for the same
// recommendation fails with ErrInvalidState and changes nothing.
func (x *Executor) Execute(ctx context.Context, id, userID uint) (*Execution, error) {
	ref := x.newRef()
	now := x.now().UTC()
	l := x.logger.With(zap.Uint("recommendation_id", id), zap.Uint("user_id", userID), zap.String("execution_ref", ref))

	var out Execution
	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.Recommendation
		err := tx.Where("id = ? AND user_id = ? AND status = ?", id, userID, models.StatusPending).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return unavailable(tx, id, userID)
		}
		if err != nil {
			return err
		}

		var h models.Holding
		err = tx.Where("id = ? AND user_id = ?", rec.HoldingID, userID).First(&h).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: holding %d", models.ErrNotFound, rec.HoldingID)
		}
		if err != nil {
			return err
		}

		acquired := h.AcquiredAt
		sell := models.Transaction{
			UserID:           userID,
			Type:             models.TransactionSell,
			Symbol:           rec.Symbol,
			Category:         h.Category,
			Quantity:         rec.Quantity,
			Price:            rec.CurrentPrice,
			Date:             now,
			CostBasisPrice:   h.AveragePrice,
			AcquiredAt:       &acquired,
			HoldingID:        &h.ID,
			RecommendationID: &rec.ID,
			ExecutionRef:     ref,
		}
		if err := tx.Create(&sell).Error; err != nil {
			return fmt.Errorf("failed to record sell transaction: %w", err)
		}

		remaining := h.Quantity.Sub(rec.Quantity)
		deleted, err := setQuantity(tx, h, remaining)
		if err != nil {
			return err
		}

		res := tx.Model(&models.Recommendation{}).
			Where("id = ? AND status = ?", rec.ID, models.StatusPending).
			Updates(map[string]interface{}{
				"status":        models.StatusAccepted,
				"executed_at":   now,
				"execution_ref": ref,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: recommendation %d not found or already executed", models.ErrInvalidState, id)
		}
		rec.Status = models.StatusAccepted
		rec.ExecutedAt = &now
		rec.ExecutionRef = ref

		out = Execution{
			Recommendation:    rec,
			Transaction:       sell,
			RemainingQuantity: decimal.Max(decimal.Zero, remaining),
			HoldingDeleted:    deleted,
		}
		return nil
	})
	if err != nil {
		l.Warn("Execution rolled back", zap.Error(err))
		return nil, err
	}

	if x.guard != nil {
		check, err := x.guard.CheckReverse(ctx, userID, out.Transaction.Symbol, now)
		switch {
		case err != nil:
			l.Warn("Wash-sale check failed", zap.Error(err))
		case check.IsWashSale:
			out.WashSale = check
			l.Warn("Executed sale falls inside wash-sale window", zap.Int("days_remaining", check.DaysRemaining))
		}
	}

	l.Info("Recommendation executed",
		zap.String("symbol", out.Transaction.Symbol),
		zap.String("quantity", out.Transaction.Quantity.String()),
		zap.Bool("holding_deleted", out.HoldingDeleted))
	return &out, nil
}

// Reverse compensates a transaction: a sell restores the holding, recreating
// it when needed; a buy decrements it. The original row is marked reversed and
// linked to the compensating entry.
func (x *Executor) Reverse(ctx context.Context, transactionID, userID uint) (*Reversal, error) {
	now := x.now().UTC()
	l := x.logger.With(zap.Uint("transaction_id", transactionID), zap.Uint("user_id", userID))

	var out Reversal
	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orig models.Transaction
		err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&orig).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: transaction %d", models.ErrNotFound, transactionID)
		}
		if err != nil {
			return err
		}
		if orig.Reversed {
			return fmt.Errorf("%w: transaction %d already reversed", models.ErrInvalidState, transactionID)
		}
		if orig.ReversalOfID != nil {
			return fmt.Errorf("%w: transaction %d is itself a reversal", models.ErrInvalidState, transactionID)
		}

		var (
			h        *models.Holding
			restored bool
		)
		if orig.Type == models.TransactionSell {
			h, restored, err = restoreHolding(tx, orig)
		} else {
			h, err = reduceHolding(tx, orig, l)
		}
		if err != nil {
			return err
		}

		comp := models.Transaction{
			UserID:         userID,
			Type:           orig.Type.Opposite(),
			Symbol:         orig.Symbol,
			Category:       orig.Category,
			Quantity:       orig.Quantity,
			Price:          orig.Price,
			Date:           now,
			CostBasisPrice: orig.CostBasisPrice,
			AcquiredAt:     orig.AcquiredAt,
			ExecutionRef:   orig.ExecutionRef,
			ReversalOfID:   &orig.ID,
		}
		if h != nil {
			comp.HoldingID = &h.ID
		}
		if err := tx.Create(&comp).Error; err != nil {
			return fmt.Errorf("failed to record reversal: %w", err)
		}

		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND reversed = ?", orig.ID, false).
			Updates(map[string]interface{}{"reversed": true, "reversed_by_id": comp.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: transaction %d already reversed", models.ErrInvalidState, transactionID)
		}
		orig.Reversed = true
		orig.ReversedByID = &comp.ID

		out = Reversal{Original: orig, Compensating: comp, Holding: h, HoldingRecreated: restored}
		return nil
	})
	if err != nil {
		l.Warn("Reversal rolled back", zap.Error(err))
		return nil, err
	}

	l.Info("Transaction reversed",
		zap.String("type", string(out.Original.Type)),
		zap.String("symbol", out.Original.Symbol),
		zap.Bool("holding_recreated", out.HoldingRecreated))
	return &out, nil
}

// setQuantity writes qty with a version check and soft-deletes the holding
// once qty reaches zero.
func setQuantity(tx *gorm.DB, h models.Holding, qty decimal.Decimal) (bool, error) {
	deleted := !qty.IsPositive()
	if deleted {
		qty = decimal.Zero
	}

	res := tx.Model(&models.Holding{}).
		Where("id = ? AND version = ?", h.ID, h.Version).
		Updates(map[string]interface{}{"quantity": qty, "version": h.Version + 1})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, fmt.Errorf("%w: holding %d", models.ErrConcurrentUpdate, h.ID)
	}

	if deleted {
		if err := tx.Delete(&models.Holding{}, h.ID).Error; err != nil {
			return false, fmt.Errorf("failed to delete holding %d: %w", h.ID, err)
		}
	}
	return deleted, nil
}

func restoreHolding(tx *gorm.DB, sell models.Transaction) (*models.Holding, bool, error) {
	var h models.Holding
	found := false
	if sell.HoldingID != nil {
		err := tx.Unscoped().Where("id = ? AND user_id = ?", *sell.HoldingID, sell.UserID).First(&h).Error
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, err
		}
	}

	if !found {
		acquired := sell.Date
		if sell.AcquiredAt != nil {
			acquired = *sell.AcquiredAt
		}
		h = models.Holding{
			UserID:       sell.UserID,
			Symbol:       sell.Symbol,
			Category:     sell.Category,
			Quantity:     sell.Quantity,
			AveragePrice: sell.CostBasisPrice,
			CurrentPrice: sell.Price,
			AcquiredAt:   acquired,
		}
		if err := tx.Create(&h).Error; err != nil {
			return nil, false, fmt.Errorf("failed to recreate holding: %w", err)
		}
		return &h, true, nil
	}

	recreated := h.DeletedAt.Valid
	qty := sell.Quantity
	if !recreated {
		qty = h.Quantity.Add(sell.Quantity)
	}
	res := tx.Unscoped().Model(&models.Holding{}).
		Where("id = ? AND version = ?", h.ID, h.Version).
		Updates(map[string]interface{}{"quantity": qty, "version": h.Version + 1, "deleted_at": nil})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, fmt.Errorf("%w: holding %d", models.ErrConcurrentUpdate, h.ID)
	}
	h.Quantity = qty
	h.Version++
	h.DeletedAt = gorm.DeletedAt{}
	return &h, recreated, nil
}

func reduceHolding(tx *gorm.DB, buy models.Transaction, l *zap.Logger) (*models.Holding, error) {
	var h models.Holding
	q := tx.Where("user_id = ?", buy.UserID)
	if buy.HoldingID != nil {
		q = q.Where("id = ?", *buy.HoldingID)
	} else {
		q = q.Where("symbol = ?", buy.Symbol).Order("acquired_at desc")
	}
	err := q.First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("No holding to decrement for reversed buy", zap.String("symbol", buy.Symbol))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	remaining := h.Quantity.Sub(buy.Quantity)
	if _, err := setQuantity(tx, h, remaining); err != nil {
		return nil, err
	}
	h.Quantity = decimal.Max(decimal.Zero, remaining)
	h.Version++
	return &h, nil
}
