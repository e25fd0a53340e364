package recommend

import (
	"context"
	"errors"
	"fmt"

	"tax-harvest-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateStatus moves a pending recommendation to accepted or rejected.
// It does not touch holdings; use Executor.Execute to realize the sale.
func (e *Engine) UpdateStatus(ctx context.Context, id, userID uint, status models.RecommendationStatus) (*models.Recommendation, error) {
	if status != models.StatusAccepted && status != models.StatusRejected {
		return nil, fmt.Errorf("%w: cannot move recommendation to %q", models.ErrInvalidState, status)
	}

	updates := map[string]interface{}{"status": status}
	if status == models.StatusAccepted {
		updates["executed_at"] = e.now().UTC()
	}

	var rec models.Recommendation
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recommendation{}).
			Where("id = ? AND user_id = ? AND status = ?", id, userID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return unavailable(tx, id, userID)
		}
		return tx.First(&rec, id).Error
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Recommendation status updated",
		zap.Uint("recommendation_id", id),
		zap.Uint("user_id", userID),
		zap.String("status", string(status)))
	return &rec, nil
}

// unavailable explains why a pending-only operation matched no row.
func unavailable(tx *gorm.DB, id, userID uint) error {
	var rec models.Recommendation
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: recommendation %d not found or already executed", models.ErrNotFound, id)
	case err != nil:
		return err
	}
	return fmt.Errorf("%w: recommendation %d not found or already executed (status %s)", models.ErrInvalidState, id, rec.Status)
}
