package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/postsale"
)

type exchangeDTO struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	ProductID   string    `json:"product_id"`
	StatusID    string    `json:"status_id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	NewQuantity int       `json:"new_quantity"`
	NewSize     string    `json:"new_size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toExchangeDTO(ex *postsale.Exchange) exchangeDTO {
	return exchangeDTO{
		ID:          ex.ID,
		OrderID:     ex.OrderID,
		ProductID:   ex.ProductID,
		StatusID:    ex.StatusID,
		UserID:      ex.UserID,
		Reason:      ex.Reason,
		ImageURL:    ex.ImageURL,
		NewQuantity: ex.NewQuantity,
		NewSize:     ex.NewSize,
		CreatedAt:   ex.CreatedAt,
		UpdatedAt:   ex.UpdatedAt,
	}
}

func toExchangeDTOs(exchanges []postsale.Exchange) []exchangeDTO {
	out := make([]exchangeDTO, len(exchanges))
	for i := range exchanges {
		out[i] = toExchangeDTO(&exchanges[i])
	}
	return out
}

func (h *Handler) createExchange(w http.ResponseWriter, r *http.Request) {
	req := postsale.CreateExchangeRequest{UserID: identity(r).UserID}
	var cleanup func()

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, r, fault.Invalid("malformed multipart form"))
			return
		}
		req.OrderItemID = r.FormValue("order_item_id")
		req.Reason = r.FormValue("reason")
		req.NewSize = r.FormValue("new_size")
		req.NewQuantity, _ = strconv.Atoi(r.FormValue("new_quantity"))

		var err error
		req.Image, cleanup, err = formUpload(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer cleanup()
	} else {
		var body struct {
			OrderItemID string `json:"order_item_id"`
			Reason      string `json:"reason"`
			NewQuantity int    `json:"new_quantity"`
			NewSize     string `json:"new_size"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		req.OrderItemID = body.OrderItemID
		req.Reason = body.Reason
		req.NewQuantity = body.NewQuantity
		req.NewSize = body.NewSize
	}

	if req.OrderItemID == "" {
		writeError(w, r, fault.Invalid("order_item_id is required"))
		return
	}

	ex, err := h.exchanges.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExchangeDTO(ex))
}

func (h *Handler) listMyExchanges(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.exchanges.ListMine(r.Context(), identity(r).UserID, postSalePage(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExchangeDTOs(exchanges))
}

func (h *Handler) getMyExchange(w http.ResponseWriter, r *http.Request) {
	ex, err := h.exchanges.GetMine(r.Context(), chi.URLParam(r, "id"), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExchangeDTO(ex))
}

func (h *Handler) adminListExchanges(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.exchanges.AdminList(r.Context(), postSaleFilter(r), postSalePage(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExchangeDTOs(exchanges))
}

func (h *Handler) adminGetExchange(w http.ResponseWriter, r *http.Request) {
	ex, err := h.exchanges.AdminGet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExchangeDTO(ex))
}

func (h *Handler) adminUpdateExchangeStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ex, err := h.exchanges.AdminUpdateStatus(r.Context(), chi.URLParam(r, "id"), req.StatusID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExchangeDTO(ex))
}

func (h *Handler) adminDeleteExchange(w http.ResponseWriter, r *http.Request) {
	if err := h.exchanges.AdminDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
