package handlers

import (
	"context"
	"courier-dispatch-service/internal/api/dto"
	"courier-dispatch-service/internal/platform/obs"
	"courier-dispatch-service/internal/ports"
	"courier-dispatch-service/internal/services"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ShopDispatcher plans deliveries for one shop.
type ShopDispatcher interface {
	CreateShopDeliveries(ctx context.Context, req services.ShopDeliveriesRequest) (*services.ShopDeliveries, error)
}

type DeliveryHandler struct {
	Repo       ports.ShopRepository
	Dispatcher ShopDispatcher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Create loads a shop's orders and couriers and returns the dispatch plan.
// Nothing is persisted; each call plans from the current stored state.
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.DeliveriesRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if req.ShopID <= 0 {
		writeError(w, r, http.StatusBadRequest, "shop_id is required")
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	calcTime := now()
	if req.CalcTime != nil {
		calcTime = *req.CalcTime
	}

	ctx := r.Context()

	shop, err := h.Repo.GetShop(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, ports.ErrShopNotFound) {
			writeError(w, r, http.StatusNotFound, "shop not found")
			return
		}
		log.Printf("get shop failed: req_id=%s shop_id=%d err=%v", obs.RequestID(ctx), req.ShopID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	orders, err := h.Repo.ListOrders(ctx, shop.ShopID)
	if err != nil {
		log.Printf("list orders failed: req_id=%s shop_id=%d err=%v", obs.RequestID(ctx), shop.ShopID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	couriers, err := h.Repo.ListCouriers(ctx, shop.ShopID)
	if err != nil {
		log.Printf("list couriers failed: req_id=%s shop_id=%d err=%v", obs.RequestID(ctx), shop.ShopID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	plan, err := h.Dispatcher.CreateShopDeliveries(ctx, services.ShopDeliveriesRequest{
		Shop:     shop,
		Orders:   orders,
		Couriers: couriers,
		CalcTime: calcTime,
	})
	if err != nil {
		log.Printf("create shop deliveries failed: req_id=%s shop_id=%d code=%d err=%v",
			obs.RequestID(ctx), shop.ShopID, services.ErrorCode(err), err)
		status := services.HTTPStatus(err)
		msg := services.Kind(err)
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
		writeCodedError(w, r, status, msg, services.ErrorCode(err))
		return
	}

	res := dto.ShopDeliveriesResponse{
		PlanID:      uuid.NewString(),
		ShopID:      shop.ShopID,
		CalcTime:    plan.CalcTime,
		Assembled:   dto.NewDeliveryResponses(plan.Assembled),
		Pending:     dto.NewDeliveryResponses(plan.Pending),
		Undelivered: make([]dto.OrderResponse, 0, len(plan.Undelivered)),
	}
	for _, o := range plan.Undelivered {
		res.Undelivered = append(res.Undelivered, dto.NewOrderResponse(o))
	}

	writeJSON(w, r, http.StatusOK, res)
}
