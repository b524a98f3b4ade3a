package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

const voucherColumns = `id, name, code, usage, start_at, end_at, benefit_type, benefit_value, num_orders, created_at`

func scanVoucher(row interface{ Scan(...any) error }) (*entity.Voucher, error) {
	var (
		v                         entity.Voucher
		usage, benefitType        string
		startAt, endAt, createdAt string
	)
	if err := row.Scan(&v.ID, &v.Name, &v.Code, &usage, &startAt, &endAt,
		&benefitType, &v.BenefitValue, &v.NumOrders, &createdAt); err != nil {
		return nil, err
	}
	v.Usage = entity.VoucherUsage(usage)
	v.BenefitType = entity.BenefitType(benefitType)

	var err error
	if v.StartAt, err = parseTime(startAt); err != nil {
		return nil, err
	}
	if v.EndAt, err = parseTime(endAt); err != nil {
		return nil, err
	}
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVoucher stores codes upper-cased; lookups are case-insensitive.
func (s *Store) CreateVoucher(ctx context.Context, v *entity.Voucher) error {
	v.Code = strings.ToUpper(strings.TrimSpace(v.Code))
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO vouchers (name, code, usage, start_at, end_at, benefit_type, benefit_value, num_orders, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Name, v.Code, string(v.Usage), formatTime(v.StartAt), formatTime(v.EndAt),
		string(v.BenefitType), v.BenefitValue.String(), v.NumOrders, formatTime(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: insert voucher %q: %w", v.Code, err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetVoucherByCode(ctx context.Context, code string) (*entity.Voucher, error) {
	v, err := scanVoucher(s.db.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE code = ?`, strings.ToUpper(strings.TrimSpace(code))))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get voucher %q", code))
	}
	return v, nil
}

// RecordVoucherUsage fails with *entity.NotAcceptableError when the usage
// rule no longer allows another order: a used single use voucher, or a once
// per customer voucher this user (or an anonymous order) would use again.
func (s *Store) RecordVoucherUsage(ctx context.Context, voucherID int64, userID *int64, orderID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		uid := nullableInt(userID)
		res, err := tx.ExecContext(ctx, `
			UPDATE vouchers SET num_orders = num_orders + 1
			WHERE  id = ?
			AND    (usage <> ? OR num_orders = 0)
			AND    (usage <> ? OR (? IS NOT NULL AND NOT EXISTS (
			           SELECT 1 FROM voucher_applications a
			           WHERE  a.voucher_id = vouchers.id AND a.user_id = ?)))`,
			voucherID, string(entity.SingleUse), string(entity.OncePerCustomer), uid, uid)
		if err != nil {
			return fmt.Errorf("sqlite: bump voucher %d: %w", voucherID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: bump voucher %d: %w", voucherID, err)
		}
		if n == 0 {
			var code string
			if err := tx.QueryRowContext(ctx, `SELECT code FROM vouchers WHERE id = ?`, voucherID).Scan(&code); err != nil {
				return notFound(err, fmt.Sprintf("bump voucher %d", voucherID))
			}
			return &entity.NotAcceptableError{Reason: fmt.Sprintf("The '%s' voucher is no longer available", code)}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO voucher_applications (voucher_id, user_id, order_id, created_at)
			VALUES (?, ?, ?, ?)`, voucherID, uid, orderID, formatTime(time.Now())); err != nil {
			return fmt.Errorf("sqlite: record voucher %d usage: %w", voucherID, err)
		}
		return nil
	})
}

func (s *Store) RemoveVoucherUsage(ctx context.Context, voucherID int64, orderID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM voucher_applications WHERE voucher_id = ? AND order_id = ?`, voucherID, orderID)
		if err != nil {
			return fmt.Errorf("sqlite: remove voucher %d usage: %w", voucherID, err)
		}
		if err := expectOne(res, fmt.Sprintf("remove voucher %d usage", voucherID)); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE vouchers SET num_orders = num_orders - 1 WHERE id = ? AND num_orders > 0`, voucherID)
		return err
	})
}

func (s *Store) CountVoucherUsesByUser(ctx context.Context, voucherID, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM voucher_applications WHERE voucher_id = ? AND user_id = ?`,
		voucherID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count voucher %d uses: %w", voucherID, err)
	}
	return n, nil
}
