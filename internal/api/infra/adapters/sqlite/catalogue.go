package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
)

const productColumns = `p.id, p.upc, p.title, p.description, p.structure, COALESCE(p.class_id, 0),
	p.created_at, p.updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*entity.Product, error) {
	var (
		p                entity.Product
		created, updated string
		structure        string
	)
	if err := row.Scan(&p.ID, &p.UPC, &p.Title, &p.Description, &structure, &p.ClassID, &created, &updated); err != nil {
		return nil, err
	}
	p.Structure = entity.ProductStructure(structure)
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, page ports.Page) ([]entity.Product, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: count products: %w", err)
	}

	limit, args := limitClause(page)
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: list products: %w", err)
	}
	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			_ = rows.Close()
			return nil, 0, fmt.Errorf("sqlite: scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Close(); err != nil {
		return nil, 0, err
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: list products: %w", err)
	}

	for i := range products {
		if err := s.loadProductRelations(ctx, &products[i]); err != nil {
			return nil, 0, err
		}
	}
	return products, total, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get product %d", id))
	}
	if err := s.loadProductRelations(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) loadProductRelations(ctx context.Context, p *entity.Product) error {
	if p.ClassID != 0 {
		class, err := s.GetProductClass(ctx, p.ClassID)
		if err != nil {
			return err
		}
		p.Class = class
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, original, caption, display_order
		FROM   product_images
		WHERE  product_id = ?
		ORDER  BY display_order, id`, p.ID)
	if err != nil {
		return fmt.Errorf("sqlite: product %d images: %w", p.ID, err)
	}
	p.Images = nil
	for rows.Next() {
		var img entity.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.Original, &img.Caption, &img.DisplayOrder); err != nil {
			_ = rows.Close()
			return fmt.Errorf("sqlite: scan image: %w", err)
		}
		p.Images = append(p.Images, img)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT name, code, value FROM product_attribute_values
		WHERE  product_id = ? ORDER BY code`, p.ID)
	if err != nil {
		return fmt.Errorf("sqlite: product %d attributes: %w", p.ID, err)
	}
	p.Attributes = nil
	for rows.Next() {
		var a entity.ProductAttributeValue
		if err := rows.Scan(&a.Name, &a.Code, &a.Value); err != nil {
			_ = rows.Close()
			return fmt.Errorf("sqlite: scan attribute: %w", err)
		}
		p.Attributes = append(p.Attributes, a)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT c.id FROM categories c
		JOIN   product_categories pc ON pc.category_id = c.id
		WHERE  pc.product_id = ? ORDER BY c.path`, p.ID)
	if err != nil {
		return fmt.Errorf("sqlite: product %d categories: %w", p.ID, err)
	}
	var categoryIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return err
		}
		categoryIDs = append(categoryIDs, id)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	p.Categories = nil
	for _, id := range categoryIDs {
		c, err := s.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		p.Categories = append(p.Categories, *c)
	}
	return nil
}

// CreateProduct inserts p together with its images, attributes and category links.
func (s *Store) CreateProduct(ctx context.Context, p *entity.Product) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Structure == "" {
		p.Structure = entity.StructureStandalone
	}
	var classID any
	if p.ClassID != 0 {
		classID = p.ClassID
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO products (upc, title, description, structure, class_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.UPC, p.Title, p.Description, string(p.Structure), classID,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("sqlite: insert product %q: %w", p.Title, err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		for i := range p.Images {
			img := &p.Images[i]
			img.ProductID = p.ID
			res, err := tx.ExecContext(ctx, `
				INSERT INTO product_images (product_id, original, caption, display_order)
				VALUES (?, ?, ?, ?)`, p.ID, img.Original, img.Caption, img.DisplayOrder)
			if err != nil {
				return fmt.Errorf("sqlite: insert product image: %w", err)
			}
			if img.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		for _, a := range p.Attributes {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO product_attribute_values (product_id, name, code, value)
				VALUES (?, ?, ?, ?)`, p.ID, a.Name, a.Code, a.Value); err != nil {
				return fmt.Errorf("sqlite: insert product attribute: %w", err)
			}
		}
		for _, c := range p.Categories {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO product_categories (product_id, category_id) VALUES (?, ?)`,
				p.ID, c.ID); err != nil {
				return fmt.Errorf("sqlite: link product category: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) ListProductClasses(ctx context.Context) ([]entity.ProductClass, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, requires_shipping, track_stock
		FROM   product_classes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list product classes: %w", err)
	}
	defer rows.Close()

	var classes []entity.ProductClass
	for rows.Next() {
		var c entity.ProductClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.RequiresShipping, &c.TrackStock); err != nil {
			return nil, fmt.Errorf("sqlite: scan product class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (s *Store) GetProductClass(ctx context.Context, id int64) (*entity.ProductClass, error) {
	var c entity.ProductClass
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, requires_shipping, track_stock
		FROM   product_classes WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.RequiresShipping, &c.TrackStock)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get product class %d", id))
	}
	return &c, nil
}

func (s *Store) CreateProductClass(ctx context.Context, c *entity.ProductClass) error {
	if c.Slug == "" {
		c.Slug = entity.Slugify(c.Name)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO product_classes (name, slug, requires_shipping, track_stock)
		VALUES (?, ?, ?, ?)`, c.Name, c.Slug, c.RequiresShipping, c.TrackStock)
	if err != nil {
		return fmt.Errorf("sqlite: insert product class %q: %w", c.Name, err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

const categoryColumns = `id, name, slug, description, path, depth`

func scanCategory(row interface{ Scan(...any) error }) (*entity.Category, error) {
	var c entity.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Path, &c.Depth); err != nil {
		return nil, err
	}
	return &c, nil
}

// loadAncestors fills c.Ancestors with the names of every category whose
// path is a prefix of c.Path, root first.
func (s *Store) loadAncestors(ctx context.Context, c *entity.Category) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM categories
		WHERE  substr(?, 1, length(path)) = path
		ORDER  BY depth`, c.Path)
	if err != nil {
		return fmt.Errorf("sqlite: category %d ancestors: %w", c.ID, err)
	}
	defer rows.Close()

	c.Ancestors = nil
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		c.Ancestors = append(c.Ancestors, name)
	}
	return rows.Err()
}

func (s *Store) ListCategories(ctx context.Context, page ports.Page) ([]entity.Category, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: count categories: %w", err)
	}

	limit, args := limitClause(page)
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY path`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: list categories: %w", err)
	}
	var categories []entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			_ = rows.Close()
			return nil, 0, fmt.Errorf("sqlite: scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Close(); err != nil {
		return nil, 0, err
	}

	for i := range categories {
		if err := s.loadAncestors(ctx, &categories[i]); err != nil {
			return nil, 0, err
		}
	}
	return categories, total, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*entity.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get category %d", id))
	}
	if err := s.loadAncestors(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddCategory creates a category under parentID, or a root when parentID is zero.
func (s *Store) AddCategory(ctx context.Context, parentID int64, name, description string) (*entity.Category, error) {
	c := &entity.Category{
		Name:        name,
		Slug:        entity.Slugify(name),
		Description: description,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		parentPath := ""
		depth := 1
		if parentID != 0 {
			if err := tx.QueryRowContext(ctx, `SELECT path, depth FROM categories WHERE id = ?`, parentID).
				Scan(&parentPath, &depth); err != nil {
				return notFound(err, fmt.Sprintf("get parent category %d", parentID))
			}
			depth++
		}

		var siblings int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM categories WHERE depth = ? AND substr(path, 1, ?) = ?`,
			depth, len(parentPath), parentPath).Scan(&siblings); err != nil {
			return fmt.Errorf("sqlite: count sibling categories: %w", err)
		}

		c.Depth = depth
		c.Path = parentPath + fmt.Sprintf("%0*d", entity.CategoryPathStep, siblings+1)

		res, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, slug, description, path, depth)
			VALUES (?, ?, ?, ?, ?)`, c.Name, c.Slug, c.Description, c.Path, c.Depth)
		if err != nil {
			return fmt.Errorf("sqlite: insert category %q: %w", name, err)
		}
		c.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.loadAncestors(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

const stockRecordColumns = `id, product_id, partner_id, partner_sku, currency, price_excl_tax,
	num_in_stock, num_allocated, created_at, updated_at`

func scanStockRecord(row interface{ Scan(...any) error }) (*entity.StockRecord, error) {
	var (
		sr               entity.StockRecord
		created, updated string
	)
	if err := row.Scan(&sr.ID, &sr.ProductID, &sr.PartnerID, &sr.PartnerSKU, &sr.Currency,
		&sr.PriceExclTax, &sr.NumInStock, &sr.NumAllocated, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if sr.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if sr.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &sr, nil
}

// ListStockRecords lists the records for one product, or all records when productID is zero.
func (s *Store) ListStockRecords(ctx context.Context, productID int64) ([]entity.StockRecord, error) {
	q := `SELECT ` + stockRecordColumns + ` FROM stockrecords`
	var args []any
	if productID != 0 {
		q += ` WHERE product_id = ?`
		args = append(args, productID)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list stock records: %w", err)
	}
	defer rows.Close()

	var records []entity.StockRecord
	for rows.Next() {
		sr, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan stock record: %w", err)
		}
		records = append(records, *sr)
	}
	return records, rows.Err()
}

func (s *Store) GetStockRecord(ctx context.Context, id int64) (*entity.StockRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stockRecordColumns+` FROM stockrecords WHERE id = ?`, id)
	sr, err := scanStockRecord(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get stock record %d", id))
	}
	return sr, nil
}

func (s *Store) CreateStockRecord(ctx context.Context, sr *entity.StockRecord) error {
	now := time.Now().UTC()
	sr.CreatedAt, sr.UpdatedAt = now, now
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO stockrecords
			(product_id, partner_id, partner_sku, currency, price_excl_tax,
			 num_in_stock, num_allocated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sr.ProductID, sr.PartnerID, sr.PartnerSKU, sr.Currency, sr.PriceExclTax.StringFixed(2),
		sr.NumInStock, sr.NumAllocated, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("sqlite: insert stock record %q: %w", sr.PartnerSKU, err)
	}
	sr.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListOptions(ctx context.Context) ([]entity.Option, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, code, type FROM options ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list options: %w", err)
	}
	defer rows.Close()

	var options []entity.Option
	for rows.Next() {
		var o entity.Option
		if err := rows.Scan(&o.ID, &o.Name, &o.Code, &o.Type); err != nil {
			return nil, fmt.Errorf("sqlite: scan option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (s *Store) GetOption(ctx context.Context, id int64) (*entity.Option, error) {
	var o entity.Option
	err := s.db.QueryRowContext(ctx, `SELECT id, name, code, type FROM options WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.Code, &o.Type)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get option %d", id))
	}
	return &o, nil
}

func (s *Store) CreateOption(ctx context.Context, o *entity.Option) error {
	if o.Code == "" {
		o.Code = entity.Slugify(o.Name)
	}
	if o.Type == "" {
		o.Type = "Optional"
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO options (name, code, type) VALUES (?, ?, ?)`,
		o.Name, o.Code, o.Type)
	if err != nil {
		return fmt.Errorf("sqlite: insert option %q: %w", o.Name, err)
	}
	o.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListPartners(ctx context.Context) ([]entity.Partner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, code FROM partners ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list partners: %w", err)
	}
	defer rows.Close()

	var partners []entity.Partner
	for rows.Next() {
		var p entity.Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.Code); err != nil {
			return nil, fmt.Errorf("sqlite: scan partner: %w", err)
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (s *Store) GetPartner(ctx context.Context, id int64) (*entity.Partner, error) {
	var p entity.Partner
	err := s.db.QueryRowContext(ctx, `SELECT id, name, code FROM partners WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Code)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get partner %d", id))
	}
	return &p, nil
}

func (s *Store) CreatePartner(ctx context.Context, p *entity.Partner) error {
	if p.Code == "" {
		p.Code = entity.Slugify(p.Name)
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO partners (name, code) VALUES (?, ?)`, p.Name, p.Code)
	if err != nil {
		return fmt.Errorf("sqlite: insert partner %q: %w", p.Name, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListCountries(ctx context.Context) ([]entity.Country, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT iso_code, name, printable_name, is_shipping_country, display_order
		FROM   countries ORDER BY display_order DESC, printable_name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list countries: %w", err)
	}
	defer rows.Close()

	var countries []entity.Country
	for rows.Next() {
		var c entity.Country
		if err := rows.Scan(&c.ISOCode, &c.Name, &c.PrintableName, &c.IsShippingCountry, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("sqlite: scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (s *Store) GetCountry(ctx context.Context, isoCode string) (*entity.Country, error) {
	var c entity.Country
	err := s.db.QueryRowContext(ctx, `
		SELECT iso_code, name, printable_name, is_shipping_country, display_order
		FROM   countries WHERE iso_code = ?`, strings.ToUpper(isoCode)).
		Scan(&c.ISOCode, &c.Name, &c.PrintableName, &c.IsShippingCountry, &c.DisplayOrder)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("get country %q", isoCode))
	}
	return &c, nil
}

func (s *Store) CreateCountry(ctx context.Context, c *entity.Country) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO countries (iso_code, name, printable_name, is_shipping_country, display_order)
		VALUES (?, ?, ?, ?, ?)`,
		strings.ToUpper(c.ISOCode), c.Name, c.PrintableName, c.IsShippingCountry, c.DisplayOrder)
	if err != nil {
		return fmt.Errorf("sqlite: insert country %q: %w", c.ISOCode, err)
	}
	return nil
}
