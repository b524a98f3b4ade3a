package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

// Demo holds what Seed created, in creation order.
type Demo struct {
	Products     []entity.Product
	StockRecords []entity.StockRecord
	Users        map[string]*entity.User
	Vouchers     map[string]*entity.Voucher
	Options      []entity.Option
}

// Seed loads a small demo shop into an empty database. Every demo user gets
// passwordHash. It does nothing when products already exist.
func (s *Store) Seed(ctx context.Context, passwordHash string) (*Demo, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return nil, fmt.Errorf("sqlite: seed: %w", err)
	}
	if n > 0 {
		return nil, nil
	}

	demo := &Demo{
		Users:    map[string]*entity.User{},
		Vouchers: map[string]*entity.Voucher{},
	}

	countries := []entity.Country{
		{ISOCode: "GB", Name: "United Kingdom of Great Britain and Northern Ireland", PrintableName: "United Kingdom", IsShippingCountry: true, DisplayOrder: 2},
		{ISOCode: "NL", Name: "Netherlands", PrintableName: "Netherlands", IsShippingCountry: true, DisplayOrder: 1},
		{ISOCode: "US", Name: "United States of America", PrintableName: "United States"},
	}
	for i := range countries {
		if err := s.CreateCountry(ctx, &countries[i]); err != nil {
			return nil, err
		}
	}

	books := entity.ProductClass{Name: "Books", RequiresShipping: true, TrackStock: true}
	ebooks := entity.ProductClass{Name: "Ebooks"}
	for _, c := range []*entity.ProductClass{&books, &ebooks} {
		if err := s.CreateProductClass(ctx, c); err != nil {
			return nil, err
		}
	}

	root, err := s.AddCategory(ctx, 0, "Books", "Printed and digital books")
	if err != nil {
		return nil, err
	}
	fiction, err := s.AddCategory(ctx, root.ID, "Fiction", "")
	if err != nil {
		return nil, err
	}
	computing, err := s.AddCategory(ctx, root.ID, "Computing", "Programming and systems")
	if err != nil {
		return nil, err
	}

	partner := entity.Partner{Name: "Gopher Books"}
	if err := s.CreatePartner(ctx, &partner); err != nil {
		return nil, err
	}

	gift := entity.Option{Name: "Gift message"}
	if err := s.CreateOption(ctx, &gift); err != nil {
		return nil, err
	}
	demo.Options = append(demo.Options, gift)

	products := []struct {
		product entity.Product
		price   string
		stock   int
	}{
		{
			product: entity.Product{
				UPC: "9780134190440", Title: "The Go Programming Language", ClassID: books.ID,
				Description: "The authoritative resource for writing clear and idiomatic Go.",
				Categories:  []entity.Category{*computing},
				Images:      []entity.ProductImage{{Original: "images/products/gopl.jpg", Caption: "Front cover"}},
				Attributes:  []entity.ProductAttributeValue{{Name: "Pages", Code: "pages", Value: "380"}},
			},
			price: "30.00", stock: 20,
		},
		{
			product: entity.Product{
				UPC: "9781491941195", Title: "Concurrency in Go", ClassID: books.ID,
				Categories: []entity.Category{*computing},
				Images:     []entity.ProductImage{{Original: "images/products/cig.jpg"}},
			},
			price: "25.00", stock: 5,
		},
		{
			product: entity.Product{
				UPC: "GT-0001", Title: "Gopher Tales", ClassID: books.ID,
				Categories: []entity.Category{*fiction},
			},
			price: "8.50", stock: 0,
		},
		{
			product: entity.Product{
				UPC: "EB-0001", Title: "Go Ebook Sampler", ClassID: ebooks.ID,
				Categories: []entity.Category{*computing},
			},
			price: "5.00", stock: 0,
		},
	}
	for _, p := range products {
		product := p.product
		if err := s.CreateProduct(ctx, &product); err != nil {
			return nil, err
		}
		sr := entity.StockRecord{
			ProductID:    product.ID,
			PartnerID:    partner.ID,
			PartnerSKU:   "SKU-" + product.UPC,
			Currency:     "GBP",
			PriceExclTax: decimal.RequireFromString(p.price),
			NumInStock:   p.stock,
		}
		if err := s.CreateStockRecord(ctx, &sr); err != nil {
			return nil, err
		}
		demo.Products = append(demo.Products, product)
		demo.StockRecords = append(demo.StockRecords, sr)
	}

	users := []entity.User{
		{Email: "alice@example.com", FirstName: "Alice", IsActive: true},
		{Email: "carol@example.com", FirstName: "Carol", IsActive: true},
		{Email: "bob@example.com", FirstName: "Bob", IsActive: false},
		{Email: "admin@example.com", FirstName: "Admin", IsActive: true, IsStaff: true},
	}
	for i := range users {
		u := users[i]
		u.PasswordHash = passwordHash
		if err := s.CreateUser(ctx, &u); err != nil {
			return nil, err
		}
		demo.Users[u.Email] = &u
	}

	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	vouchers := []entity.Voucher{
		{Name: "Ten percent off", Code: "TENOFF", Usage: entity.MultiUse, StartAt: start,
			EndAt: start.AddDate(100, 0, 0), BenefitType: entity.BenefitPercentage, BenefitValue: decimal.NewFromInt(10)},
		{Name: "Five off once", Code: "WELCOME5", Usage: entity.OncePerCustomer, StartAt: start,
			EndAt: start.AddDate(100, 0, 0), BenefitType: entity.BenefitAbsolute, BenefitValue: decimal.NewFromInt(5)},
		{Name: "One lucky customer", Code: "LUCKY", Usage: entity.SingleUse, StartAt: start,
			EndAt: start.AddDate(100, 0, 0), BenefitType: entity.BenefitAbsolute, BenefitValue: decimal.NewFromInt(3)},
		{Name: "Millennium sale", Code: "Y2K", Usage: entity.MultiUse, StartAt: start,
			EndAt: start.AddDate(0, 1, 0), BenefitType: entity.BenefitPercentage, BenefitValue: decimal.NewFromInt(50)},
	}
	for i := range vouchers {
		v := vouchers[i]
		if err := s.CreateVoucher(ctx, &v); err != nil {
			return nil, err
		}
		demo.Vouchers[v.Code] = &v
	}

	return demo, nil
}
