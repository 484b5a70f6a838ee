package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/order"
	"shopcore/internal/domain/payment"
	"shopcore/internal/domain/storage"
	"shopcore/internal/pkg/logging"
	"shopcore/internal/pkg/metrics"
)

// maxTxAttempts bounds transparent retries of a unit of work aborted by
// a concurrent writer.
const maxTxAttempts = 3

// Service orchestrates order settlement: stock validation at order
// creation and the charge / conditional decrement / state transition
// sequence at payment time. Stock is validated but not reserved at
// creation, so a pending order can still lose its stock to another
// order's settlement; the loser sees catalog.ErrInsufficientStock when
// it pays.
type Service struct {
	store       storage.Store
	gateway     payment.Gateway
	notifier    Notifier
	ids         IDGenerator
	adminUserID string
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

func NewService(
	store storage.Store,
	gw payment.Gateway,
	notifier Notifier,
	ids IDGenerator,
	adminUserID string,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:       store,
		gateway:     gw,
		notifier:    notifier,
		ids:         ids,
		adminUserID: adminUserID,
		metrics:     m,
		tracer:      otel.Tracer("shopcore/settlement"),
	}
}

type LineInput struct {
	ProductID  string
	VariantSKU string
	Quantity   int
}

type CreateOrderInput struct {
	UserID     string
	Lines      []LineInput
	TotalPrice int64
}

// CreateOrder validates stock for every requested line and inserts the
// order inside one serializable transaction. Unit prices are captured
// from the variant at this moment; the caller-declared total is stored
// as given and never recomputed.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (_ *order.Order, err error) {
	ctx, done := s.instrument(ctx, "create_order")
	defer func() { done(err) }()

	logger := logging.FromContext(ctx).With(zap.String("component", "settlement"))
	logger.Info("create_order_start",
		zap.String("user_id", input.UserID),
		zap.Int("lines", len(input.Lines)),
		zap.Int64("total_price", input.TotalPrice),
	)

	if input.UserID == "" {
		return nil, errors.New("settlement: user id is required")
	}

	var created *order.Order
	err = s.withRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			lines := make([]order.Line, 0, len(input.Lines))
			for _, in := range input.Lines {
				v, ferr := tx.Catalog().FindVariant(ctx, in.ProductID, in.VariantSKU)
				if ferr != nil {
					return ferr
				}
				if v.Stock < in.Quantity {
					return catalog.ErrInsufficientStock
				}
				lines = append(lines, order.Line{
					ProductID:  in.ProductID,
					VariantSKU: in.VariantSKU,
					Quantity:   in.Quantity,
					UnitPrice:  v.Price,
				})
			}

			entity, derr := order.New(s.ids.NewID(), input.UserID, lines, input.TotalPrice)
			if derr != nil {
				return derr
			}
			if ierr := tx.Orders().Insert(ctx, entity); ierr != nil {
				return ierr
			}
			created = entity
			return nil
		})
	})
	if err != nil {
		logger.Warn("create_order_failed", zap.Error(err))
		return nil, err
	}

	s.notify(ctx, created.UserID, notification.TypeOrder, "Your order has been created.")
	s.notify(ctx, s.adminUserID, notification.TypeOrder,
		fmt.Sprintf("A new order has been placed by user %s.", created.UserID))

	logger.Info("create_order_success", zap.String("order_id", created.ID))
	return created, nil
}

type ApplyPaymentInput struct {
	OrderID string
	UserID  string
	Method  string
	Card    payment.Card
}

type ApplyPaymentResult struct {
	Order         *order.Order
	Payment       *payment.Payment
	TransactionID string
}

// ApplyPayment settles an order: charge the gateway, then atomically
// re-validate and decrement stock, mark the order paid and append the
// payment row. A paid order rejects further attempts with
// order.ErrAlreadyPaid; a declined charge leaves the order retryable
// with paymentStatus=failed and stock untouched.
func (s *Service) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (_ *ApplyPaymentResult, err error) {
	ctx, done := s.instrument(ctx, "apply_payment")
	defer func() { done(err) }()

	logger := logging.FromContext(ctx).With(
		zap.String("component", "settlement"),
		zap.String("order_id", input.OrderID),
	)
	logger.Info("apply_payment_start", zap.String("method", input.Method))

	entity, err := s.store.Orders().Get(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if entity.UserID != input.UserID {
		// Ownership failures are indistinguishable from absence.
		return nil, order.ErrNotFound
	}
	if entity.PaymentStatus == order.PaymentPaid {
		return nil, order.ErrAlreadyPaid
	}

	result, err := s.gateway.Charge(ctx, entity.TotalPrice, input.Card)
	if err != nil {
		logger.Error("gateway_charge_error", zap.Error(err))
		return nil, fmt.Errorf("settlement: gateway: %w", err)
	}

	if !result.Authorized {
		if derr := s.recordDecline(ctx, input, result); derr != nil {
			return nil, derr
		}
		logger.Info("apply_payment_declined",
			zap.String("transaction_id", result.TransactionID),
			zap.String("reason", result.Reason),
		)
		return nil, &payment.DeclinedError{Reason: result.Reason}
	}

	var (
		settled *order.Order
		row     *payment.Payment
	)
	err = s.withRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			fresh, gerr := tx.Orders().Get(ctx, input.OrderID)
			if gerr != nil {
				return gerr
			}
			// Re-checked inside the transaction: a concurrent settlement
			// may have won the race since the guard above.
			if merr := fresh.MarkPaid(); merr != nil {
				return merr
			}
			for _, line := range fresh.Lines {
				if derr := tx.Catalog().DecrementStock(ctx, line.ProductID, line.VariantSKU, line.Quantity); derr != nil {
					return derr
				}
			}
			if uerr := tx.Orders().Update(ctx, fresh); uerr != nil {
				return uerr
			}
			p := &payment.Payment{
				ID:            s.ids.NewID(),
				OrderID:       fresh.ID,
				Method:        input.Method,
				TransactionID: result.TransactionID,
				Status:        payment.StatusSucceeded,
				CreatedAt:     time.Now().UTC(),
			}
			if aerr := tx.Payments().Append(ctx, p); aerr != nil {
				return aerr
			}
			settled = fresh
			row = p
			return nil
		})
	})
	if err != nil {
		logger.Warn("apply_payment_failed", zap.Error(err))
		return nil, err
	}

	s.notify(ctx, settled.UserID, notification.TypeOrder,
		fmt.Sprintf("Payment successful! Your order #%s has been confirmed.", shortID(settled.ID)))

	logger.Info("apply_payment_success",
		zap.String("transaction_id", result.TransactionID),
		zap.String("payment_id", row.ID),
	)
	return &ApplyPaymentResult{
		Order:         settled,
		Payment:       row,
		TransactionID: result.TransactionID,
	}, nil
}

// recordDecline persists the failed attempt: an appended ledger row and
// paymentStatus=failed. Stock is never touched on this path.
func (s *Service) recordDecline(ctx context.Context, input ApplyPaymentInput, result payment.ChargeResult) error {
	return s.withRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			fresh, err := tx.Orders().Get(ctx, input.OrderID)
			if err != nil {
				return err
			}
			// The ledger records every attempt. Only the status write is
			// skipped when a concurrent settlement already won: paid must
			// not regress to failed.
			switch merr := fresh.MarkPaymentFailed(); {
			case merr == nil:
				if err := tx.Orders().Update(ctx, fresh); err != nil {
					return err
				}
			case !errors.Is(merr, order.ErrAlreadyPaid):
				return merr
			}
			return tx.Payments().Append(ctx, &payment.Payment{
				ID:            s.ids.NewID(),
				OrderID:       fresh.ID,
				Method:        input.Method,
				TransactionID: result.TransactionID,
				Status:        payment.StatusFailed,
				CreatedAt:     time.Now().UTC(),
			})
		})
	})
}

// GetOrder is an ownership-checked read.
func (s *Service) GetOrder(ctx context.Context, orderID, userID string) (*order.Order, error) {
	entity, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if entity.UserID != userID {
		return nil, order.ErrNotFound
	}
	return entity, nil
}

// UpdateFulfillmentStatus moves the fulfillment axis on behalf of an
// administrator and notifies the order owner.
func (s *Service) UpdateFulfillmentStatus(ctx context.Context, orderID string, next order.Status) (_ *order.Order, err error) {
	ctx, done := s.instrument(ctx, "update_fulfillment")
	defer func() { done(err) }()

	var updated *order.Order
	err = s.withRetry(ctx, func() error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			entity, gerr := tx.Orders().Get(ctx, orderID)
			if gerr != nil {
				return gerr
			}
			if ferr := entity.Fulfill(next); ferr != nil {
				return ferr
			}
			if uerr := tx.Orders().Update(ctx, entity); uerr != nil {
				return uerr
			}
			updated = entity
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.UserID, notification.TypeOrder, fulfillmentMessage(updated))
	return updated, nil
}

// ListPayments returns the append-only attempt history for an order the
// caller owns.
func (s *Service) ListPayments(ctx context.Context, orderID, userID string) ([]*payment.Payment, error) {
	if _, err := s.GetOrder(ctx, orderID, userID); err != nil {
		return nil, err
	}
	return s.store.Payments().ListByOrder(ctx, orderID)
}

func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
	return err
}

func (s *Service) notify(ctx context.Context, userID string, typ notification.Type, content string) {
	if s.notifier == nil || userID == "" {
		return
	}
	if err := s.notifier.Notify(ctx, userID, typ, content); err != nil {
		logging.FromContext(ctx).Warn("notification_dispatch_failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func (s *Service) instrument(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "Settlement."+op)
	start := time.Now()
	return ctx, func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		if s.metrics != nil {
			s.metrics.SettlementRequests.WithLabelValues(op, outcome).Inc()
			s.metrics.SettlementDurations.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}
	}
}

func fulfillmentMessage(o *order.Order) string {
	ref := shortID(o.ID)
	switch o.Status {
	case order.StatusShipped:
		return fmt.Sprintf("Your order #%s has been shipped!", ref)
	case order.StatusDelivered:
		return fmt.Sprintf("Your order #%s has been delivered!", ref)
	case order.StatusCancelled:
		return fmt.Sprintf("Your order #%s has been cancelled.", ref)
	default:
		return fmt.Sprintf("Your order #%s status has been updated to %s.", ref, o.Status)
	}
}

func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}
