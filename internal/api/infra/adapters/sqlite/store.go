// Package sqlite is the SQLite-backed implementation of the storefront
// repositories in core/ports.
//
// A single *Store satisfies every repository interface so that one database
// file holds the catalogue, baskets, orders and users. WAL mode is enabled
// on Open so readers do not block the writer.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

var (
	_ ports.CatalogueRepository = (*Store)(nil)
	_ ports.BasketRepository    = (*Store)(nil)
	_ ports.StockRepository     = (*Store)(nil)
	_ ports.OrderRepository     = (*Store)(nil)
	_ ports.UserRepository      = (*Store)(nil)
	_ ports.VoucherRepository   = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS product_classes (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    name              TEXT    NOT NULL,
    slug              TEXT    NOT NULL UNIQUE,
    requires_shipping INTEGER NOT NULL DEFAULT 1,
    track_stock       INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS categories (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT    NOT NULL,
    slug        TEXT    NOT NULL,
    description TEXT    NOT NULL DEFAULT '',
    -- Materialised path, four characters per level.
    path        TEXT    NOT NULL UNIQUE,
    depth       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    upc         TEXT    NOT NULL DEFAULT '',
    title       TEXT    NOT NULL,
    description TEXT    NOT NULL DEFAULT '',
    structure   TEXT    NOT NULL DEFAULT 'standalone',
    class_id    INTEGER REFERENCES product_classes(id),
    created_at  TEXT    NOT NULL,
    updated_at  TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS product_categories (
    product_id  INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    PRIMARY KEY (product_id, category_id)
);

CREATE TABLE IF NOT EXISTS product_images (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id    INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    original      TEXT    NOT NULL,
    caption       TEXT    NOT NULL DEFAULT '',
    display_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS product_attribute_values (
    product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    name       TEXT    NOT NULL,
    code       TEXT    NOT NULL,
    value      TEXT    NOT NULL,
    PRIMARY KEY (product_id, code)
);

CREATE TABLE IF NOT EXISTS options (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'Optional'
);

CREATE TABLE IF NOT EXISTS partners (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS stockrecords (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id     INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    partner_id     INTEGER NOT NULL REFERENCES partners(id),
    partner_sku    TEXT    NOT NULL,
    currency       TEXT    NOT NULL,
    -- Decimal amounts are TEXT so SQLite never coerces them to REAL.
    price_excl_tax TEXT    NOT NULL,
    num_in_stock   INTEGER NOT NULL DEFAULT 0,
    num_allocated  INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT    NOT NULL,
    updated_at     TEXT    NOT NULL,
    UNIQUE (partner_id, partner_sku)
);

CREATE TABLE IF NOT EXISTS countries (
    iso_code            TEXT PRIMARY KEY,
    name                TEXT    NOT NULL,
    printable_name      TEXT    NOT NULL,
    is_shipping_country INTEGER NOT NULL DEFAULT 0,
    display_order       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    email         TEXT    NOT NULL UNIQUE COLLATE NOCASE,
    password_hash TEXT    NOT NULL,
    first_name    TEXT    NOT NULL DEFAULT '',
    last_name     TEXT    NOT NULL DEFAULT '',
    is_active     INTEGER NOT NULL DEFAULT 1,
    is_staff      INTEGER NOT NULL DEFAULT 0,
    date_joined   TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS vouchers (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT    NOT NULL,
    code          TEXT    NOT NULL UNIQUE,
    usage         TEXT    NOT NULL,
    start_at      TEXT    NOT NULL,
    end_at        TEXT    NOT NULL,
    benefit_type  TEXT    NOT NULL,
    benefit_value TEXT    NOT NULL,
    num_orders    INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS voucher_applications (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    voucher_id INTEGER NOT NULL REFERENCES vouchers(id) ON DELETE CASCADE,
    user_id    INTEGER REFERENCES users(id),
    order_id   INTEGER NOT NULL,
    created_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS baskets (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id     INTEGER REFERENCES users(id),
    status       TEXT    NOT NULL,
    created_at   TEXT    NOT NULL,
    submitted_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_baskets_owner ON baskets(owner_id, status);

CREATE TABLE IF NOT EXISTS basket_vouchers (
    basket_id INTEGER NOT NULL REFERENCES baskets(id) ON DELETE CASCADE,
    code      TEXT    NOT NULL,
    PRIMARY KEY (basket_id, code)
);

CREATE TABLE IF NOT EXISTS basket_lines (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    basket_id      INTEGER NOT NULL REFERENCES baskets(id) ON DELETE CASCADE,
    line_reference TEXT    NOT NULL,
    product_id     INTEGER NOT NULL REFERENCES products(id),
    stockrecord_id INTEGER NOT NULL REFERENCES stockrecords(id),
    quantity       INTEGER NOT NULL,
    price_currency TEXT    NOT NULL,
    price_excl_tax TEXT    NOT NULL,
    price_incl_tax TEXT    NOT NULL,
    created_at     TEXT    NOT NULL,
    UNIQUE (basket_id, line_reference)
);

CREATE TABLE IF NOT EXISTS basket_line_attributes (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    line_id   INTEGER NOT NULL REFERENCES basket_lines(id) ON DELETE CASCADE,
    option_id INTEGER NOT NULL REFERENCES options(id),
    value     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS shipping_addresses (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    title        TEXT NOT NULL DEFAULT '',
    first_name   TEXT NOT NULL DEFAULT '',
    last_name    TEXT NOT NULL DEFAULT '',
    line1        TEXT NOT NULL,
    line2        TEXT NOT NULL DEFAULT '',
    line3        TEXT NOT NULL DEFAULT '',
    line4        TEXT NOT NULL DEFAULT '',
    state        TEXT NOT NULL DEFAULT '',
    postcode     TEXT NOT NULL DEFAULT '',
    country_code TEXT NOT NULL REFERENCES countries(iso_code),
    phone_number TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS billing_addresses (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    title        TEXT NOT NULL DEFAULT '',
    first_name   TEXT NOT NULL DEFAULT '',
    last_name    TEXT NOT NULL DEFAULT '',
    line1        TEXT NOT NULL,
    line2        TEXT NOT NULL DEFAULT '',
    line3        TEXT NOT NULL DEFAULT '',
    line4        TEXT NOT NULL DEFAULT '',
    state        TEXT NOT NULL DEFAULT '',
    postcode     TEXT NOT NULL DEFAULT '',
    country_code TEXT NOT NULL REFERENCES countries(iso_code),
    phone_number TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS orders (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    number              TEXT    NOT NULL UNIQUE,
    basket_id           INTEGER,
    user_id             INTEGER REFERENCES users(id),
    currency            TEXT    NOT NULL,
    total_incl_tax      TEXT    NOT NULL,
    total_excl_tax      TEXT    NOT NULL,
    shipping_incl_tax   TEXT    NOT NULL,
    shipping_excl_tax   TEXT    NOT NULL,
    shipping_method     TEXT    NOT NULL DEFAULT '',
    shipping_code       TEXT    NOT NULL DEFAULT '',
    status              TEXT    NOT NULL,
    guest_email         TEXT    NOT NULL DEFAULT '',
    shipping_address_id INTEGER REFERENCES shipping_addresses(id),
    billing_address_id  INTEGER REFERENCES billing_addresses(id),
    date_placed         TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, date_placed);

CREATE TABLE IF NOT EXISTS order_lines (
    id                                   INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id                             INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    partner_id                           INTEGER,
    partner_name                         TEXT    NOT NULL DEFAULT '',
    partner_sku                          TEXT    NOT NULL DEFAULT '',
    product_id                           INTEGER,
    stockrecord_id                       INTEGER,
    title                                TEXT    NOT NULL,
    upc                                  TEXT    NOT NULL DEFAULT '',
    quantity                             INTEGER NOT NULL,
    line_price_incl_tax                  TEXT    NOT NULL,
    line_price_excl_tax                  TEXT    NOT NULL,
    line_price_before_discounts_incl_tax TEXT    NOT NULL,
    line_price_before_discounts_excl_tax TEXT    NOT NULL,
    unit_price_incl_tax                  TEXT    NOT NULL,
    unit_price_excl_tax                  TEXT    NOT NULL,
    status                               TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS order_line_attributes (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    line_id   INTEGER NOT NULL REFERENCES order_lines(id) ON DELETE CASCADE,
    option_id INTEGER,
    type      TEXT    NOT NULL,
    value     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS order_discounts (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id     INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    category     TEXT    NOT NULL,
    offer_id     INTEGER,
    offer_name   TEXT    NOT NULL DEFAULT '',
    voucher_id   INTEGER,
    voucher_code TEXT    NOT NULL DEFAULT '',
    amount       TEXT    NOT NULL,
    message      TEXT    NOT NULL DEFAULT ''
);
`

// Store is the SQLite implementation of the storefront repositories.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
//
//	store, err := sqlite.Open("./data/shop.db")
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite allows one writer at a time; a single connection also makes
	// the check-then-update in Allocate race free.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle so other SQLite-backed components (the
// saga log) can share the same file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to entity.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: %s: %w", what, entity.ErrNotFound)
	}
	return fmt.Errorf("sqlite: %s: %w", what, err)
}

// expectOne returns entity.ErrNotFound when an UPDATE or DELETE touched no rows.
func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: %s: %w", what, entity.ErrNotFound)
	}
	return nil
}

func nullableInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func limitClause(page ports.Page) (string, []any) {
	if page.Limit <= 0 {
		if page.Offset > 0 {
			return " LIMIT -1 OFFSET ?", []any{page.Offset}
		}
		return "", nil
	}
	return " LIMIT ? OFFSET ?", []any{page.Limit, page.Offset}
}
