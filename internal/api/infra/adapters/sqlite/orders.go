package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

const orderColumns = `id, number, basket_id, user_id, currency, total_incl_tax, total_excl_tax,
	shipping_incl_tax, shipping_excl_tax, shipping_method, shipping_code, status, guest_email,
	shipping_address_id, billing_address_id, date_placed`

type orderRow struct {
	order             entity.Order
	shippingAddressID sql.NullInt64
	billingAddressID  sql.NullInt64
}

func scanOrder(row interface{ Scan(...any) error }) (*orderRow, error) {
	var (
		r            orderRow
		basket, user sql.NullInt64
		placed       string
	)
	o := &r.order
	if err := row.Scan(&o.ID, &o.Number, &basket, &user, &o.Currency, &o.TotalInclTax, &o.TotalExclTax,
		&o.ShippingInclTax, &o.ShippingExclTax, &o.ShippingMethod, &o.ShippingCode, &o.Status, &o.GuestEmail,
		&r.shippingAddressID, &r.billingAddressID, &placed); err != nil {
		return nil, err
	}
	o.BasketID = intPtr(basket)
	o.UserID = intPtr(user)

	var err error
	if o.DatePlaced, err = parseTime(placed); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateOrder writes the order, its addresses, lines and discounts in one transaction.
func (s *Store) CreateOrder(ctx context.Context, o *entity.Order) error {
	if o.DatePlaced.IsZero() {
		o.DatePlaced = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var shippingID, billingID any
		if o.ShippingAddress != nil {
			id, err := insertAddress(ctx, tx, "shipping_addresses", o.ShippingAddress.Address)
			if err != nil {
				return err
			}
			o.ShippingAddress.ID = id
			shippingID = id
		}
		if o.BillingAddress != nil {
			id, err := insertAddress(ctx, tx, "billing_addresses", o.BillingAddress.Address)
			if err != nil {
				return err
			}
			o.BillingAddress.ID = id
			billingID = id
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders
				(number, basket_id, user_id, currency, total_incl_tax, total_excl_tax,
				 shipping_incl_tax, shipping_excl_tax, shipping_method, shipping_code, status,
				 guest_email, shipping_address_id, billing_address_id, date_placed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.Number, nullableInt(o.BasketID), nullableInt(o.UserID), o.Currency,
			o.TotalInclTax.StringFixed(2), o.TotalExclTax.StringFixed(2),
			o.ShippingInclTax.StringFixed(2), o.ShippingExclTax.StringFixed(2),
			o.ShippingMethod, o.ShippingCode, o.Status, o.GuestEmail,
			shippingID, billingID, formatTime(o.DatePlaced))
		if err != nil {
			return fmt.Errorf("sqlite: insert order %s: %w", o.Number, err)
		}
		if o.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		for i := range o.Lines {
			if err := insertOrderLine(ctx, tx, o.ID, &o.Lines[i]); err != nil {
				return err
			}
		}

		for i := range o.Discounts {
			d := &o.Discounts[i]
			d.OrderID = o.ID
			res, err := tx.ExecContext(ctx, `
				INSERT INTO order_discounts
					(order_id, category, offer_id, offer_name, voucher_id, voucher_code, amount, message)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				d.OrderID, d.Category, nullableInt(d.OfferID), d.OfferName,
				nullableInt(d.VoucherID), d.VoucherCode, d.Amount.StringFixed(2), d.Message)
			if err != nil {
				return fmt.Errorf("sqlite: insert order discount: %w", err)
			}
			if d.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertAddress(ctx context.Context, tx *sql.Tx, table string, a entity.Address) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO `+table+`
			(title, first_name, last_name, line1, line2, line3, line4, state, postcode,
			 country_code, phone_number, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.FirstName, a.LastName, a.Line1, a.Line2, a.Line3, a.Line4, a.State, a.Postcode,
		a.CountryCode, a.PhoneNumber, a.Notes)
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert %s: %w", table, err)
	}
	return res.LastInsertId()
}

func insertOrderLine(ctx context.Context, tx *sql.Tx, orderID int64, l *entity.OrderLine) error {
	l.OrderID = orderID
	res, err := tx.ExecContext(ctx, `
		INSERT INTO order_lines
			(order_id, partner_id, partner_name, partner_sku, product_id, stockrecord_id, title, upc,
			 quantity, line_price_incl_tax, line_price_excl_tax,
			 line_price_before_discounts_incl_tax, line_price_before_discounts_excl_tax,
			 unit_price_incl_tax, unit_price_excl_tax, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderID, nullableInt(l.PartnerID), l.PartnerName, l.PartnerSKU,
		nullableInt(l.ProductID), nullableInt(l.StockRecordID), l.Title, l.UPC, l.Quantity,
		l.LinePriceInclTax.StringFixed(2), l.LinePriceExclTax.StringFixed(2),
		l.LinePriceBeforeDiscountsInclTax.StringFixed(2), l.LinePriceBeforeDiscountsExclTax.StringFixed(2),
		l.UnitPriceInclTax.StringFixed(2), l.UnitPriceExclTax.StringFixed(2), l.Status)
	if err != nil {
		return fmt.Errorf("sqlite: insert order line: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for i := range l.Attributes {
		a := &l.Attributes[i]
		a.LineID = l.ID
		res, err := tx.ExecContext(ctx, `
			INSERT INTO order_line_attributes (line_id, option_id, type, value) VALUES (?, ?, ?, ?)`,
			a.LineID, nullableInt(a.OptionID), a.Type, a.Value)
		if err != nil {
			return fmt.Errorf("sqlite: insert order line attribute: %w", err)
		}
		if a.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*entity.Order, error) {
	r, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get order %d", id))
	}
	return s.completeOrder(ctx, r)
}

func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*entity.Order, error) {
	r, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = ?`, number))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get order %s", number))
	}
	return s.completeOrder(ctx, r)
}

func (s *Store) ListOrders(ctx context.Context, userID *int64) ([]entity.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if userID != nil {
		q += ` WHERE user_id = ?`
		args = append(args, *userID)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY date_placed DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	var scanned []*orderRow
	for rows.Next() {
		r, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		scanned = append(scanned, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	orders := make([]entity.Order, 0, len(scanned))
	for _, r := range scanned {
		o, err := s.completeOrder(ctx, r)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// DeleteOrder removes an order and its lines and discounts. Only used to
// undo a placement that could not be completed.
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete order %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("delete order %d", id))
}

func (s *Store) completeOrder(ctx context.Context, r *orderRow) (*entity.Order, error) {
	o := &r.order
	if r.shippingAddressID.Valid {
		a, err := s.getAddress(ctx, "shipping_addresses", r.shippingAddressID.Int64)
		if err != nil {
			return nil, err
		}
		o.ShippingAddress = &entity.ShippingAddress{ID: r.shippingAddressID.Int64, Address: *a}
	}
	if r.billingAddressID.Valid {
		a, err := s.getAddress(ctx, "billing_addresses", r.billingAddressID.Int64)
		if err != nil {
			return nil, err
		}
		o.BillingAddress = &entity.BillingAddress{ID: r.billingAddressID.Int64, Address: *a}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+orderLineColumns+` FROM order_lines WHERE order_id = ? ORDER BY id`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: order %d lines: %w", o.ID, err)
	}
	o.Lines = nil
	for rows.Next() {
		l, err := scanOrderLine(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("sqlite: scan order line: %w", err)
		}
		o.Lines = append(o.Lines, *l)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	for i := range o.Lines {
		if o.Lines[i].Attributes, err = s.orderLineAttributes(ctx, o.Lines[i].ID); err != nil {
			return nil, err
		}
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, order_id, category, offer_id, offer_name, voucher_id, voucher_code, amount, message
		FROM   order_discounts WHERE order_id = ? ORDER BY id`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: order %d discounts: %w", o.ID, err)
	}
	defer rows.Close()
	o.Discounts = nil
	for rows.Next() {
		var (
			d              entity.OrderDiscount
			offer, voucher sql.NullInt64
		)
		if err := rows.Scan(&d.ID, &d.OrderID, &d.Category, &offer, &d.OfferName, &voucher,
			&d.VoucherCode, &d.Amount, &d.Message); err != nil {
			return nil, fmt.Errorf("sqlite: scan order discount: %w", err)
		}
		d.OfferID = intPtr(offer)
		d.VoucherID = intPtr(voucher)
		o.Discounts = append(o.Discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) getAddress(ctx context.Context, table string, id int64) (*entity.Address, error) {
	var a entity.Address
	err := s.db.QueryRowContext(ctx, `
		SELECT title, first_name, last_name, line1, line2, line3, line4, state, postcode,
		       country_code, phone_number, notes
		FROM   `+table+` WHERE id = ?`, id).
		Scan(&a.Title, &a.FirstName, &a.LastName, &a.Line1, &a.Line2, &a.Line3, &a.Line4, &a.State,
			&a.Postcode, &a.CountryCode, &a.PhoneNumber, &a.Notes)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get %s %d", table, id))
	}
	return &a, nil
}

const orderLineColumns = `id, order_id, partner_id, partner_name, partner_sku, product_id, stockrecord_id,
	title, upc, quantity, line_price_incl_tax, line_price_excl_tax,
	line_price_before_discounts_incl_tax, line_price_before_discounts_excl_tax,
	unit_price_incl_tax, unit_price_excl_tax, status`

func scanOrderLine(row interface{ Scan(...any) error }) (*entity.OrderLine, error) {
	var (
		l                          entity.OrderLine
		partner, product, stockrec sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.OrderID, &partner, &l.PartnerName, &l.PartnerSKU, &product, &stockrec,
		&l.Title, &l.UPC, &l.Quantity, &l.LinePriceInclTax, &l.LinePriceExclTax,
		&l.LinePriceBeforeDiscountsInclTax, &l.LinePriceBeforeDiscountsExclTax,
		&l.UnitPriceInclTax, &l.UnitPriceExclTax, &l.Status); err != nil {
		return nil, err
	}
	l.PartnerID = intPtr(partner)
	l.ProductID = intPtr(product)
	l.StockRecordID = intPtr(stockrec)
	return &l, nil
}

func (s *Store) GetOrderLine(ctx context.Context, id int64) (*entity.OrderLine, error) {
	l, err := scanOrderLine(s.db.QueryRowContext(ctx, `SELECT `+orderLineColumns+` FROM order_lines WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get order line %d", id))
	}
	if l.Attributes, err = s.orderLineAttributes(ctx, l.ID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Store) orderLineAttributes(ctx context.Context, lineID int64) ([]entity.OrderLineAttribute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, line_id, option_id, type, value FROM order_line_attributes
		WHERE  line_id = ? ORDER BY id`, lineID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: order line %d attributes: %w", lineID, err)
	}
	defer rows.Close()

	var attrs []entity.OrderLineAttribute
	for rows.Next() {
		var (
			a      entity.OrderLineAttribute
			option sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.LineID, &option, &a.Type, &a.Value); err != nil {
			return nil, err
		}
		a.OptionID = intPtr(option)
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

func (s *Store) GetOrderLineAttribute(ctx context.Context, id int64) (*entity.OrderLineAttribute, error) {
	var (
		a      entity.OrderLineAttribute
		option sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, line_id, option_id, type, value FROM order_line_attributes WHERE id = ?`, id).
		Scan(&a.ID, &a.LineID, &option, &a.Type, &a.Value)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get order line attribute %d", id))
	}
	a.OptionID = intPtr(option)
	return &a, nil
}
