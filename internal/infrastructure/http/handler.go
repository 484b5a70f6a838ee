package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"shopcore/internal/application/notify"
	"shopcore/internal/application/settlement"
	"shopcore/internal/auth"
	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/order"
	"shopcore/internal/domain/payment"
	"shopcore/internal/domain/storage"
)

type Handler struct {
	settlement *settlement.Service
	notify     *notify.Service
	verifier   auth.Verifier
	realtime   http.Handler
	log        *zap.Logger
}

func NewHandler(
	settlementSvc *settlement.Service,
	notifySvc *notify.Service,
	verifier auth.Verifier,
	realtime http.Handler,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		settlement: settlementSvc,
		notify:     notifySvc,
		verifier:   verifier,
		realtime:   realtime,
		log:        logger,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if h.realtime != nil {
		// The websocket handshake authenticates itself; bearer headers
		// are not available to browser websocket clients.
		r.Handle("/ws", h.realtime)
	}

	r.Group(func(r chi.Router) {
		r.Use(authenticate(h.verifier, h.log))

		r.Post("/api/orders", h.handleCreateOrder)
		r.Get("/api/orders/{orderID}", h.handleGetOrder)
		r.Get("/api/orders/{orderID}/payments", h.handleListPayments)
		r.Post("/api/payments", h.handleApplyPayment)

		r.Get("/api/notifications", h.handleListNotifications)
		r.Patch("/api/notifications/read-all", h.handleMarkAllRead)
		r.Patch("/api/notifications/{notificationID}/read", h.handleMarkRead)
		r.Delete("/api/notifications/{notificationID}", h.handleDeleteNotification)

		r.With(requireAdmin).Patch("/api/orders/{orderID}/status", h.handleUpdateStatus)
	})

	return r
}

type orderLineRequest struct {
	ProductID  string `json:"product_id"`
	VariantSKU string `json:"variant_sku"`
	Quantity   int    `json:"quantity"`
}

type createOrderRequest struct {
	Lines      []orderLineRequest `json:"lines"`
	TotalPrice int64              `json:"total_price"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lines := make([]settlement.LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, settlement.LineInput{
			ProductID:  l.ProductID,
			VariantSKU: l.VariantSKU,
			Quantity:   l.Quantity,
		})
	}

	created, err := h.settlement.CreateOrder(r.Context(), settlement.CreateOrderInput{
		UserID:     identity.UserID,
		Lines:      lines,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, orderResponse(created))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	found, err := h.settlement.GetOrder(r.Context(), chi.URLParam(r, "orderID"), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(found))
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	attempts, err := h.settlement.ListPayments(r.Context(), chi.URLParam(r, "orderID"), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]paymentPayload, 0, len(attempts))
	for _, p := range attempts {
		out = append(out, paymentResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": out})
}

type paymentDataRequest struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	CVC        string `json:"cvc"`
}

type applyPaymentRequest struct {
	OrderID     string             `json:"order_id"`
	Method      string             `json:"method"`
	PaymentData paymentDataRequest `json:"payment_data"`
}

type applyPaymentResponse struct {
	Order         orderPayload   `json:"order"`
	Payment       paymentPayload `json:"payment"`
	TransactionID string         `json:"transaction_id"`
}

func (h *Handler) handleApplyPayment(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req applyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.settlement.ApplyPayment(r.Context(), settlement.ApplyPaymentInput{
		OrderID: req.OrderID,
		UserID:  identity.UserID,
		Method:  req.Method,
		Card: payment.Card{
			Number: req.PaymentData.CardNumber,
			Expiry: req.PaymentData.ExpiryDate,
			CVC:    req.PaymentData.CVC,
		},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, applyPaymentResponse{
		Order:         orderResponse(result.Order),
		Payment:       paymentResponse(result.Payment),
		TransactionID: result.TransactionID,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	next, ok := order.ParseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("unknown status"))
		return
	}

	updated, err := h.settlement.UpdateFulfillmentStatus(r.Context(), chi.URLParam(r, "orderID"), next)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(updated))
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	list, err := h.notify.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []*notification.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	updated, err := h.notify.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	if err := h.notify.MarkAllRead(r.Context(), identity.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	if err := h.notify.Delete(r.Context(), chi.URLParam(r, "notificationID"), identity.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type orderLinePayload struct {
	ProductID  string `json:"product_id"`
	VariantSKU string `json:"variant_sku"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}

type orderPayload struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	Lines         []orderLinePayload `json:"lines"`
	TotalPrice    int64              `json:"total_price"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"payment_status"`
}

func orderResponse(o *order.Order) orderPayload {
	lines := make([]orderLinePayload, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLinePayload{
			ProductID:  l.ProductID,
			VariantSKU: l.VariantSKU,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		})
	}
	return orderPayload{
		ID:            o.ID,
		UserID:        o.UserID,
		Lines:         lines,
		TotalPrice:    o.TotalPrice,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
	}
}

type paymentPayload struct {
	ID            string `json:"id"`
	OrderID       string `json:"order_id"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

func paymentResponse(p *payment.Payment) paymentPayload {
	return paymentPayload{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Method:        p.Method,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var declined *payment.DeclinedError
	switch {
	case errors.As(err, &declined):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, notification.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, order.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, catalog.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidAmount),
		errors.Is(err, order.ErrNoLines),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, catalog.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, storage.ErrConflict):
		// Retries are exhausted at this point; the client may try again.
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
