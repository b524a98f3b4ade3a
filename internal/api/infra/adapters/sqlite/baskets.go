package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

const basketColumns = `id, owner_id, status, created_at, submitted_at`

func scanBasket(row interface{ Scan(...any) error }) (*entity.Basket, error) {
	var (
		b         entity.Basket
		owner     sql.NullInt64
		status    string
		created   string
		submitted sql.NullString
	)
	if err := row.Scan(&b.ID, &owner, &status, &created, &submitted); err != nil {
		return nil, err
	}
	b.OwnerID = intPtr(owner)
	b.Status = entity.BasketStatus(status)

	var err error
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if b.SubmittedAt, err = parseNullTime(submitted); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBasket(ctx context.Context, ownerID *int64) (*entity.Basket, error) {
	b := &entity.Basket{
		OwnerID:   ownerID,
		Status:    entity.BasketOpen,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO baskets (owner_id, status, created_at) VALUES (?, ?, ?)`,
		nullableInt(ownerID), string(b.Status), formatTime(b.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("sqlite: insert basket: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) GetBasket(ctx context.Context, id int64) (*entity.Basket, error) {
	b, err := scanBasket(s.db.QueryRowContext(ctx, `SELECT `+basketColumns+` FROM baskets WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get basket %d", id))
	}
	if err := s.loadBasketContents(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) OpenBasketForUser(ctx context.Context, userID int64) (*entity.Basket, error) {
	b, err := scanBasket(s.db.QueryRowContext(ctx, `
		SELECT `+basketColumns+` FROM baskets
		WHERE  owner_id = ? AND status = ?
		ORDER  BY id LIMIT 1`, userID, string(entity.BasketOpen)))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("open basket for user %d", userID))
	}
	if err := s.loadBasketContents(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) ListBaskets(ctx context.Context) ([]entity.Basket, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+basketColumns+` FROM baskets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list baskets: %w", err)
	}
	var baskets []entity.Basket
	for rows.Next() {
		b, err := scanBasket(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("sqlite: scan basket: %w", err)
		}
		baskets = append(baskets, *b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for i := range baskets {
		if err := s.loadBasketContents(ctx, &baskets[i]); err != nil {
			return nil, err
		}
	}
	return baskets, nil
}

func (s *Store) UpdateBasketStatus(ctx context.Context, id int64, status entity.BasketStatus) error {
	var submitted any
	if status == entity.BasketSubmitted {
		submitted = formatTime(time.Now())
	}
	res, err := s.db.ExecContext(ctx, `UPDATE baskets SET status = ?, submitted_at = ? WHERE id = ?`,
		string(status), submitted, id)
	if err != nil {
		return fmt.Errorf("sqlite: update basket %d status: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("update basket %d status", id))
}

func (s *Store) SetBasketOwner(ctx context.Context, id int64, ownerID int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE baskets SET owner_id = ? WHERE id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("sqlite: set basket %d owner: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("set basket %d owner", id))
}

func (s *Store) DeleteBasket(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM baskets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete basket %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("delete basket %d", id))
}

func (s *Store) AddBasketVoucher(ctx context.Context, basketID int64, code string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO basket_vouchers (basket_id, code) VALUES (?, ?)`,
		basketID, strings.ToUpper(code))
	if err != nil {
		return fmt.Errorf("sqlite: add voucher to basket %d: %w", basketID, err)
	}
	return nil
}

func (s *Store) loadBasketContents(ctx context.Context, b *entity.Basket) error {
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM basket_vouchers WHERE basket_id = ? ORDER BY code`, b.ID)
	if err != nil {
		return fmt.Errorf("sqlite: basket %d vouchers: %w", b.ID, err)
	}
	b.VoucherCodes = nil
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			_ = rows.Close()
			return err
		}
		b.VoucherCodes = append(b.VoucherCodes, code)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+lineColumns+` FROM basket_lines WHERE basket_id = ? ORDER BY id`, b.ID)
	if err != nil {
		return fmt.Errorf("sqlite: basket %d lines: %w", b.ID, err)
	}
	b.Lines = nil
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			_ = rows.Close()
			return fmt.Errorf("sqlite: scan basket line: %w", err)
		}
		b.Lines = append(b.Lines, *l)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for i := range b.Lines {
		attrs, err := s.lineAttributes(ctx, b.Lines[i].ID)
		if err != nil {
			return err
		}
		b.Lines[i].Attributes = attrs
	}
	return nil
}

const lineColumns = `id, basket_id, line_reference, product_id, stockrecord_id, quantity,
	price_currency, price_excl_tax, price_incl_tax, created_at`

func scanLine(row interface{ Scan(...any) error }) (*entity.BasketLine, error) {
	var (
		l       entity.BasketLine
		created string
	)
	if err := row.Scan(&l.ID, &l.BasketID, &l.LineReference, &l.ProductID, &l.StockRecordID, &l.Quantity,
		&l.PriceCurrency, &l.PriceExclTax, &l.PriceInclTax, &created); err != nil {
		return nil, err
	}
	var err error
	if l.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) SaveLine(ctx context.Context, l *entity.BasketLine) error {
	if l.ID != 0 {
		res, err := s.db.ExecContext(ctx, `
			UPDATE basket_lines
			SET    quantity = ?, price_currency = ?, price_excl_tax = ?, price_incl_tax = ?, basket_id = ?
			WHERE  id = ?`,
			l.Quantity, l.PriceCurrency, l.PriceExclTax.StringFixed(2), l.PriceInclTax.StringFixed(2), l.BasketID, l.ID)
		if err != nil {
			return fmt.Errorf("sqlite: update basket line %d: %w", l.ID, err)
		}
		return expectOne(res, fmt.Sprintf("update basket line %d", l.ID))
	}

	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO basket_lines
				(basket_id, line_reference, product_id, stockrecord_id, quantity,
				 price_currency, price_excl_tax, price_incl_tax, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.BasketID, l.LineReference, l.ProductID, l.StockRecordID, l.Quantity,
			l.PriceCurrency, l.PriceExclTax.StringFixed(2), l.PriceInclTax.StringFixed(2), formatTime(l.CreatedAt))
		if err != nil {
			return fmt.Errorf("sqlite: insert basket line: %w", err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		for i := range l.Attributes {
			a := &l.Attributes[i]
			a.LineID = l.ID
			res, err := tx.ExecContext(ctx, `
				INSERT INTO basket_line_attributes (line_id, option_id, value) VALUES (?, ?, ?)`,
				a.LineID, a.OptionID, a.Value)
			if err != nil {
				return fmt.Errorf("sqlite: insert line attribute: %w", err)
			}
			if a.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetLine(ctx context.Context, id int64) (*entity.BasketLine, error) {
	l, err := scanLine(s.db.QueryRowContext(ctx, `SELECT `+lineColumns+` FROM basket_lines WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get basket line %d", id))
	}
	if l.Attributes, err = s.lineAttributes(ctx, l.ID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Store) lineAttributes(ctx context.Context, lineID int64) ([]entity.LineAttribute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, line_id, option_id, value FROM basket_line_attributes
		WHERE  line_id = ? ORDER BY id`, lineID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: line %d attributes: %w", lineID, err)
	}
	defer rows.Close()

	var attrs []entity.LineAttribute
	for rows.Next() {
		var a entity.LineAttribute
		if err := rows.Scan(&a.ID, &a.LineID, &a.OptionID, &a.Value); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

func (s *Store) ListLineAttributes(ctx context.Context) ([]entity.LineAttribute, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, line_id, option_id, value FROM basket_line_attributes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list line attributes: %w", err)
	}
	defer rows.Close()

	var attrs []entity.LineAttribute
	for rows.Next() {
		var a entity.LineAttribute
		if err := rows.Scan(&a.ID, &a.LineID, &a.OptionID, &a.Value); err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

func (s *Store) GetLineAttribute(ctx context.Context, id int64) (*entity.LineAttribute, error) {
	var a entity.LineAttribute
	err := s.db.QueryRowContext(ctx, `
		SELECT id, line_id, option_id, value FROM basket_line_attributes WHERE id = ?`, id).
		Scan(&a.ID, &a.LineID, &a.OptionID, &a.Value)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get line attribute %d", id))
	}
	return &a, nil
}

func (s *Store) CreateLineAttribute(ctx context.Context, a *entity.LineAttribute) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO basket_line_attributes (line_id, option_id, value) VALUES (?, ?, ?)`,
		a.LineID, a.OptionID, a.Value)
	if err != nil {
		return fmt.Errorf("sqlite: create line attribute: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("sqlite: create line attribute: %w", err)
	}
	return nil
}
