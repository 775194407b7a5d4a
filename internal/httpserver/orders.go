package httpserver

import (
	"net/http"
	"strings"

	"bakery-chat/internal/menu"
	"bakery-chat/internal/repo"
)

// GET /menu returns the catalog, or the ranked matches for ?q= and ?budget=.
func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	rawBudget := strings.TrimSpace(r.URL.Query().Get("budget"))
	if query != "" || rawBudget != "" {
		var budget float64
		if rawBudget != "" {
			b, err := menu.ParseBudget(rawBudget)
			if err != nil {
				writeError(w, http.StatusBadRequest, msgInvalidBudget)
				return
			}
			budget = b
		}
		results := menu.Search(query, budget)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"results": results,
			"count":   len(results),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"menu":    menu.Catalog(),
	})
}

// handleCreateOrder serves POST /menu and POST /orders. Both persist.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req menu.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidItems)
		return
	}

	order, err := menu.BuildOrder(req, s.deps.Store.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidItems)
		return
	}

	created, err := s.deps.Store.CreateOrder(r.Context(), order)
	if err != nil {
		s.writeStoreError(w, "create order", err)
		return
	}
	s.logger.Info("order created", "order_id", created.OrderID, "total", created.Total, "items", len(created.Items))
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"order":   created,
		"message": msgOrderCreated,
	})
}

// GET /orders lists every order, or one with ?order_id=.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("order_id"); id != "" {
		order, err := s.deps.Store.GetOrder(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, "get order", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
		return
	}

	orders, err := s.deps.Store.GetAllOrders(r.Context())
	if err != nil {
		s.writeStoreError(w, "list orders", err)
		return
	}
	if orders == nil {
		orders = []repo.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": orders})
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	switch {
	case strings.TrimSpace(req.OrderID) == "":
		writeError(w, http.StatusBadRequest, msgOrderRequired)
		return
	case strings.TrimSpace(req.Status) == "":
		writeError(w, http.StatusBadRequest, msgStatusRequired)
		return
	}

	order, err := s.deps.Store.UpdateOrderStatus(r.Context(), req.OrderID, req.Status)
	if err != nil {
		s.writeStoreError(w, "update order", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}
