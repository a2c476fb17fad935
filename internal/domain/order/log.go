package order

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

var _ Repository = LogRepository{}

// LogRepository records orders as structured log entries only. It backs
// deployments without a database.
type LogRepository struct{}

// Create writes o to the context logger.
func (LogRepository) Create(ctx context.Context, o *Order) error {
	products := make([]string, len(o.Items))
	quantities := make([]int, len(o.Items))
	for i, item := range o.Items {
		products[i] = item.ProductID
		quantities[i] = item.Quantity
	}

	zctx.From(ctx).Info("Order recorded",
		zap.String("order_id", o.ID),
		zap.String("customer", o.Customer.FullName),
		zap.String("district", o.Customer.District),
		zap.String("payment_method", o.PaymentMethod),
		zap.String("coupon", o.CouponCode),
		zap.Strings("products", products),
		zap.Ints("quantities", quantities),
		zap.Stringer("delivery_fee", o.DeliveryFee),
		zap.Stringer("discount", o.Discount),
		zap.Stringer("total", o.Total),
	)
	return nil
}
