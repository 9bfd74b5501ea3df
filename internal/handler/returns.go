package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/postsale"
)

// maxUploadBytes bounds post-sale image uploads.
const maxUploadBytes = 10 << 20

type returnDTO struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	StatusID  string    `json:"status_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Quantity  int       `json:"quantity"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toReturnDTO(ret *postsale.Return) returnDTO {
	return returnDTO{
		ID:        ret.ID,
		OrderID:   ret.OrderID,
		ProductID: ret.ProductID,
		StatusID:  ret.StatusID,
		UserID:    ret.UserID,
		Reason:    ret.Reason,
		ImageURL:  ret.ImageURL,
		Quantity:  ret.Quantity,
		Amount:    ret.Amount.StringFixed(2),
		CreatedAt: ret.CreatedAt,
		UpdatedAt: ret.UpdatedAt,
	}
}

func toReturnDTOs(returns []postsale.Return) []returnDTO {
	out := make([]returnDTO, len(returns))
	for i := range returns {
		out[i] = toReturnDTO(&returns[i])
	}
	return out
}

// formUpload extracts the optional image from a multipart form. The caller
// owns closing the returned file via the cleanup func.
func formUpload(r *http.Request) (*postsale.Upload, func(), error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, fault.Invalid("malformed image upload")
	}
	return &postsale.Upload{Filename: header.Filename, Content: file}, func() { _ = file.Close() }, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	req := postsale.CreateReturnRequest{UserID: identity(r).UserID}
	var cleanup func()

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, r, fault.Invalid("malformed multipart form"))
			return
		}
		req.OrderItemID = r.FormValue("order_item_id")
		req.Reason = r.FormValue("reason")
		req.Quantity, _ = strconv.Atoi(r.FormValue("quantity"))

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
			Quantity    int    `json:"quantity"`
			Reason      string `json:"reason"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		req.OrderItemID = body.OrderItemID
		req.Quantity = body.Quantity
		req.Reason = body.Reason
	}

	if req.OrderItemID == "" {
		writeError(w, r, fault.Invalid("order_item_id is required"))
		return
	}

	ret, err := h.returns.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReturnDTO(ret))
}

func (h *Handler) listMyReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.returns.ListMine(r.Context(), identity(r).UserID, postsale.Page{
		Skip:  queryInt(r, "skip"),
		Limit: queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReturnDTOs(returns))
}

func (h *Handler) getMyReturn(w http.ResponseWriter, r *http.Request) {
	ret, err := h.returns.GetMine(r.Context(), chi.URLParam(r, "id"), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReturnDTO(ret))
}

func postSaleFilter(r *http.Request) postsale.Filter {
	return postsale.Filter{
		UserID:    r.URL.Query().Get("user_id"),
		OrderID:   r.URL.Query().Get("order_id"),
		ProductID: r.URL.Query().Get("product_id"),
		StatusID:  r.URL.Query().Get("status_id"),
	}
}

func postSalePage(r *http.Request) postsale.Page {
	return postsale.Page{
		Skip:  queryInt(r, "skip"),
		Limit: queryInt(r, "limit"),
	}
}

func (h *Handler) adminListReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.returns.AdminList(r.Context(), postSaleFilter(r), postSalePage(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReturnDTOs(returns))
}

func (h *Handler) adminGetReturn(w http.ResponseWriter, r *http.Request) {
	ret, err := h.returns.AdminGet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReturnDTO(ret))
}

type updateStatusRequest struct {
	StatusID string `json:"status_id"`
}

func (h *Handler) adminUpdateReturnStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ret, err := h.returns.AdminUpdateStatus(r.Context(), chi.URLParam(r, "id"), req.StatusID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReturnDTO(ret))
}

func (h *Handler) adminDeleteReturn(w http.ResponseWriter, r *http.Request) {
	if err := h.returns.AdminDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
