package ports

import (
	"context"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
)

// Page is a limit/offset window over a listing. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

type CatalogueRepository interface {
	ListProducts(ctx context.Context, page Page) ([]entity.Product, int, error)
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	ListProductClasses(ctx context.Context) ([]entity.ProductClass, error)
	GetProductClass(ctx context.Context, id int64) (*entity.ProductClass, error)
	ListCategories(ctx context.Context, page Page) ([]entity.Category, int, error)
	GetCategory(ctx context.Context, id int64) (*entity.Category, error)
	ListStockRecords(ctx context.Context, productID int64) ([]entity.StockRecord, error)
	GetStockRecord(ctx context.Context, id int64) (*entity.StockRecord, error)
	ListOptions(ctx context.Context) ([]entity.Option, error)
	GetOption(ctx context.Context, id int64) (*entity.Option, error)
	ListPartners(ctx context.Context) ([]entity.Partner, error)
	GetPartner(ctx context.Context, id int64) (*entity.Partner, error)
	ListCountries(ctx context.Context) ([]entity.Country, error)
	GetCountry(ctx context.Context, isoCode string) (*entity.Country, error)
}

type BasketRepository interface {
	CreateBasket(ctx context.Context, ownerID *int64) (*entity.Basket, error)
	GetBasket(ctx context.Context, id int64) (*entity.Basket, error)
	// OpenBasketForUser returns entity.ErrNotFound when the user has no open basket.
	OpenBasketForUser(ctx context.Context, userID int64) (*entity.Basket, error)
	ListBaskets(ctx context.Context) ([]entity.Basket, error)
	UpdateBasketStatus(ctx context.Context, id int64, status entity.BasketStatus) error
	SetBasketOwner(ctx context.Context, id int64, ownerID int64) error
	DeleteBasket(ctx context.Context, id int64) error
	AddBasketVoucher(ctx context.Context, basketID int64, code string) error
	// SaveLine inserts the line when its ID is zero and updates it otherwise.
	SaveLine(ctx context.Context, line *entity.BasketLine) error
	GetLine(ctx context.Context, id int64) (*entity.BasketLine, error)
	ListLineAttributes(ctx context.Context) ([]entity.LineAttribute, error)
	GetLineAttribute(ctx context.Context, id int64) (*entity.LineAttribute, error)
	CreateLineAttribute(ctx context.Context, attr *entity.LineAttribute) error
}

type StockRepository interface {
	// Allocate reserves quantity units of a stock record. When enforce is set
	// it fails with *entity.NotAcceptableError if not enough stock is free.
	Allocate(ctx context.Context, stockRecordID int64, quantity int, enforce bool) error
	Deallocate(ctx context.Context, stockRecordID int64, quantity int) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *entity.Order) error
	GetOrder(ctx context.Context, id int64) (*entity.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*entity.Order, error)
	// ListOrders lists every order when userID is nil.
	ListOrders(ctx context.Context, userID *int64) ([]entity.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	GetOrderLine(ctx context.Context, id int64) (*entity.OrderLine, error)
	GetOrderLineAttribute(ctx context.Context, id int64) (*entity.OrderLineAttribute, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *entity.User) error
	GetUser(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	ListUsers(ctx context.Context) ([]entity.User, error)
}

type VoucherRepository interface {
	CreateVoucher(ctx context.Context, v *entity.Voucher) error
	GetVoucherByCode(ctx context.Context, code string) (*entity.Voucher, error)
	// RecordVoucherUsage bumps the voucher's order count and remembers who used it.
	RecordVoucherUsage(ctx context.Context, voucherID int64, userID *int64, orderID int64) error
	RemoveVoucherUsage(ctx context.Context, voucherID int64, orderID int64) error
	CountVoucherUsesByUser(ctx context.Context, voucherID, userID int64) (int, error)
}
