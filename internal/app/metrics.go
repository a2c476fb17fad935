package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/storefront/internal/domain/cart"
)

// cartMetrics records cart activity reported by the registry.
type cartMetrics struct {
	mutations metric.Int64Counter
	subtotal  metric.Float64Histogram
	units     metric.Int64Histogram
}

func newCartMetrics(mp metric.MeterProvider) (*cartMetrics, error) {
	meter := mp.Meter("github.com/xenking/storefront/cart")

	mutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "mutations counter")
	}
	subtotal, err := meter.Float64Histogram("storefront.cart.subtotal",
		metric.WithDescription("Cart subtotal after a mutation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "subtotal histogram")
	}
	units, err := meter.Int64Histogram("storefront.cart.units",
		metric.WithDescription("Units in a cart after a mutation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "units histogram")
	}
	return &cartMetrics{mutations: mutations, subtotal: subtotal, units: units}, nil
}

// observe is a cart.RegistryListener.
func (m *cartMetrics) observe(_ string, s cart.State) {
	ctx := context.Background()
	empty := attribute.Bool("cart.empty", len(s.Items) == 0)

	m.mutations.Add(ctx, 1, metric.WithAttributes(empty))
	m.subtotal.Record(ctx, s.Subtotal().InexactFloat64())
	m.units.Record(ctx, int64(cart.TotalQuantity(s.Items)))
}
