package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-storefront/internal/api/core/ports"
)

// --- AllocateStockStep ---

// Allocation is a quantity to reserve against one stock record.
type Allocation struct {
	StockRecordID int64
	Quantity      int
	// Enforce fails the allocation when not enough stock is free.
	Enforce bool
}

type AllocateStockStep struct {
	stock       ports.StockRepository
	allocations []Allocation
	done        []Allocation
}

func NewAllocateStockStep(stock ports.StockRepository, allocations []Allocation) *AllocateStockStep {
	return &AllocateStockStep{stock: stock, allocations: allocations}
}

func (s *AllocateStockStep) Name() string { return "Allocate_Stock_Step" }

// Execute reserves every allocation. Allocations made before a failure are
// released here since a failed step is never compensated.
func (s *AllocateStockStep) Execute(ctx context.Context) error {
	for _, a := range s.allocations {
		if err := s.stock.Allocate(ctx, a.StockRecordID, a.Quantity, a.Enforce); err != nil {
			if cerr := s.Compensate(ctx); cerr != nil {
				return errors.Join(err, cerr)
			}
			return err
		}
		s.done = append(s.done, a)
	}
	return nil
}

func (s *AllocateStockStep) Compensate(ctx context.Context) error {
	var errs []error
	for i := len(s.done) - 1; i >= 0; i-- {
		a := s.done[i]
		if err := s.stock.Deallocate(ctx, a.StockRecordID, a.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("deallocate stock record %d: %w", a.StockRecordID, err))
		}
	}
	s.done = nil
	return errors.Join(errs...)
}

// --- CreateOrderStep ---

type CreateOrderStep struct {
	orders ports.OrderRepository
	order  *entity.Order
}

// NewCreateOrderStep is the constructor for CreateOrderStep. The order's ID
// is set once the step has run.
func NewCreateOrderStep(orders ports.OrderRepository, order *entity.Order) *CreateOrderStep {
	return &CreateOrderStep{orders: orders, order: order}
}

func (s *CreateOrderStep) Name() string { return "Create_Order_Step" }

func (s *CreateOrderStep) Execute(ctx context.Context) error {
	if err := s.orders.CreateOrder(ctx, s.order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *CreateOrderStep) Compensate(ctx context.Context) error {
	if s.order.ID == 0 {
		return nil
	}
	return s.orders.DeleteOrder(ctx, s.order.ID)
}

// --- RecordVoucherUsageStep ---

type RecordVoucherUsageStep struct {
	vouchers   ports.VoucherRepository
	voucherIDs []int64
	userID     *int64
	order      *entity.Order
	recorded   []int64
}

// NewRecordVoucherUsageStep records one use of each voucher against order,
// which must have been created by an earlier step.
func NewRecordVoucherUsageStep(vouchers ports.VoucherRepository, voucherIDs []int64, userID *int64, order *entity.Order) *RecordVoucherUsageStep {
	return &RecordVoucherUsageStep{vouchers: vouchers, voucherIDs: voucherIDs, userID: userID, order: order}
}

func (s *RecordVoucherUsageStep) Name() string { return "Record_Voucher_Usage_Step" }

func (s *RecordVoucherUsageStep) Execute(ctx context.Context) error {
	for _, id := range s.voucherIDs {
		if err := s.vouchers.RecordVoucherUsage(ctx, id, s.userID, s.order.ID); err != nil {
			if cerr := s.Compensate(ctx); cerr != nil {
				return errors.Join(err, cerr)
			}
			return fmt.Errorf("record usage of voucher %d: %w", id, err)
		}
		s.recorded = append(s.recorded, id)
	}
	return nil
}

func (s *RecordVoucherUsageStep) Compensate(ctx context.Context) error {
	var errs []error
	for _, id := range s.recorded {
		if err := s.vouchers.RemoveVoucherUsage(ctx, id, s.order.ID); err != nil {
			errs = append(errs, err)
		}
	}
	s.recorded = nil
	return errors.Join(errs...)
}

// --- SubmitBasketStep ---

type SubmitBasketStep struct {
	baskets  ports.BasketRepository
	basketID int64
	previous entity.BasketStatus
}

func NewSubmitBasketStep(baskets ports.BasketRepository, basketID int64, current entity.BasketStatus) *SubmitBasketStep {
	return &SubmitBasketStep{baskets: baskets, basketID: basketID, previous: current}
}

func (s *SubmitBasketStep) Name() string { return "Submit_Basket_Step" }

func (s *SubmitBasketStep) Execute(ctx context.Context) error {
	return s.baskets.UpdateBasketStatus(ctx, s.basketID, entity.BasketSubmitted)
}

func (s *SubmitBasketStep) Compensate(ctx context.Context) error {
	return s.baskets.UpdateBasketStatus(ctx, s.basketID, s.previous)
}
