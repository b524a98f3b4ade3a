package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

func (s *Store) Allocate(ctx context.Context, stockRecordID int64, quantity int, enforce bool) error {
	q := `UPDATE stockrecords SET num_allocated = num_allocated + ?, updated_at = ? WHERE id = ?`
	args := []any{quantity, formatTime(time.Now()), stockRecordID}
	if enforce {
		q += ` AND num_in_stock - num_allocated >= ?`
		args = append(args, quantity)
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("sqlite: allocate stock record %d: %w", stockRecordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: allocate stock record %d: %w", stockRecordID, err)
	}
	if n == 0 {
		if _, err := s.GetStockRecord(ctx, stockRecordID); err != nil {
			return err
		}
		return &entity.NotAcceptableError{
			Reason: fmt.Sprintf("insufficient stock to allocate %d units of stock record %d", quantity, stockRecordID),
		}
	}
	return nil
}

func (s *Store) Deallocate(ctx context.Context, stockRecordID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stockrecords
		SET    num_allocated = MAX(num_allocated - ?, 0), updated_at = ?
		WHERE  id = ?`, quantity, formatTime(time.Now()), stockRecordID)
	if err != nil {
		return fmt.Errorf("sqlite: deallocate stock record %d: %w", stockRecordID, err)
	}
	return expectOne(res, fmt.Sprintf("deallocate stock record %d", stockRecordID))
}
