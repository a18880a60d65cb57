package checkout

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sokohub/soko-backend/internal/modules/order"
	"github.com/sokohub/soko-backend/internal/modules/payment"
)

// Reconciler fetches the authoritative payment status from the provider and
// updates the local order to match. It is invoked by provider notifications
// and by storefront polling, and may run any number of times per order.
type Reconciler struct {
	orders   order.Service
	gateways payment.Registry
	log      zerolog.Logger
}

func NewReconciler(orders order.Service, gateways payment.Registry, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		orders:   orders,
		gateways: gateways,
		log:      log.With().Str("component", "reconciler").Logger(),
	}
}

// ByTracking reconciles the order carrying the provider tracking id.
func (r *Reconciler) ByTracking(ctx context.Context, trackingID string) (*order.Order, *payment.TransactionStatus, error) {
	o, err := r.orders.GetByTracking(ctx, trackingID)
	if err != nil {
		return nil, nil, err
	}
	return r.reconcile(ctx, o)
}

// ByOrderID reconciles a locally identified order.
func (r *Reconciler) ByOrderID(ctx context.Context, orderID string) (*order.Order, *payment.TransactionStatus, error) {
	o, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return r.reconcile(ctx, o)
}

func (r *Reconciler) reconcile(ctx context.Context, o *order.Order) (*order.Order, *payment.TransactionStatus, error) {
	if o.TrackingID == nil || *o.TrackingID == "" {
		// Submission never succeeded; there is nothing to ask the provider.
		return o, nil, nil
	}

	gateway, ok := r.gateways[payment.Provider(o.Provider)]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProvider, o.Provider)
	}

	ts, err := gateway.TransactionStatus(ctx, *o.TrackingID)
	if err != nil {
		r.log.Error().Err(err).Str("order_id", o.ID.String()).Str("tracking_id", *o.TrackingID).
			Msg("transaction status query failed")
		return nil, nil, err
	}

	mapped, isPaid := payment.MapStatusCode(ts.StatusCode)
	status := order.Status(mapped)

	err = r.orders.ApplyReconciliation(ctx, o.ID.String(), status, isPaid, order.PaymentMetadata{
		Method:           ts.Method,
		ConfirmationCode: ts.ConfirmationCode,
		Description:      ts.Description,
		Account:          ts.Account,
		Date:             ts.CreatedDate,
	})
	if err != nil {
		return nil, nil, err
	}

	r.log.Info().Str("order_id", o.ID.String()).Str("status", string(status)).Bool("is_paid", isPaid).
		Msg("order reconciled")

	updated, err := r.orders.Get(ctx, o.ID.String())
	if err != nil {
		return nil, nil, err
	}
	return updated, ts, nil
}
