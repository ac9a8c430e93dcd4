package handlers

import (
	"courier-dispatch-service/internal/api/dto"
	"courier-dispatch-service/internal/ports"
	"errors"
	"log"
	"net/http"
)

// OrderHandler exposes read-only order retrieval endpoints.
type OrderHandler struct {
	Repo ports.ShopRepository
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	shopID, ok := pathShopID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "shop id must be a positive integer")
		return
	}

	if _, err := h.Repo.GetShop(r.Context(), shopID); err != nil {
		if errors.Is(err, ports.ErrShopNotFound) {
			writeError(w, r, http.StatusNotFound, "shop not found")
			return
		}
		log.Printf("get shop failed: shop_id=%d err=%v", shopID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	orders, err := h.Repo.ListOrders(r.Context(), shopID)
	if err != nil {
		log.Printf("list orders failed: shop_id=%d err=%v", shopID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListOrdersResponse{
		ShopID: shopID,
		Orders: make([]dto.OrderResponse, 0, len(orders)),
	}
	for _, o := range orders {
		res.Orders = append(res.Orders, dto.NewOrderResponse(o))
	}

	writeJSON(w, r, http.StatusOK, res)
}
