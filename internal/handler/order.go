package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/order"
	"github.com/marketbay/fulfillment/internal/domain/payment"
)

type addressDTO struct {
	MobileNo   string `json:"mobile_no"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	State      string `json:"state"`
	City       string `json:"city"`
	Street     string `json:"street"`
}

type orderDTO struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	StatusID     string     `json:"status_id"`
	Total        string     `json:"total"`
	DeliveryDate string     `json:"delivery_date"`
	DeliveryOTP  *string    `json:"delivery_otp,omitempty"`
	Address      addressDTO `json:"address"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toOrderDTO(o *order.Order) orderDTO {
	return orderDTO{
		ID:           o.ID,
		UserID:       o.UserID,
		StatusID:     o.StatusID,
		Total:        o.Total.StringFixed(2),
		DeliveryDate: o.DeliveryDate.Format(dateLayout),
		DeliveryOTP:  o.DeliveryOTP,
		Address: addressDTO{
			MobileNo:   o.Address.MobileNo,
			PostalCode: o.Address.PostalCode,
			Country:    o.Address.Country,
			State:      o.Address.State,
			City:       o.Address.City,
			Street:     o.Address.Street,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toOrderDTOs(orders []order.Order) []orderDTO {
	out := make([]orderDTO, len(orders))
	for i := range orders {
		out[i] = toOrderDTO(&orders[i])
	}
	return out
}

type placeOrderRequest struct {
	AddressID      string `json:"address_id"`
	PaymentTypeID  string `json:"payment_type_id"`
	PaymentDetails struct {
		CardName string `json:"card_name"`
		CardNo   string `json:"card_no"`
		UpiID    string `json:"upi_id"`
	} `json:"payment_details"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.AddressID == "" {
		writeError(w, r, fault.Invalid("address_id is required"))
		return
	}
	if req.PaymentTypeID == "" {
		writeError(w, r, fault.Invalid("payment_type_id is required"))
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:        identity(r).UserID,
		AddressID:     req.AddressID,
		PaymentTypeID: req.PaymentTypeID,
		PaymentDetails: payment.RawInput{
			CardName: req.PaymentDetails.CardName,
			CardNo:   req.PaymentDetails.CardNo,
			UpiID:    req.PaymentDetails.UpiID,
		},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(o))
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMine(r.Context(), identity(r).UserID, order.Page{
		Skip:  queryInt(r, "skip"),
		Limit: queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *Handler) getMyOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetMine(r.Context(), chi.URLParam(r, "id"), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) cancelMyOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.CancelMine(r.Context(), chi.URLParam(r, "id"), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	f := order.ListFilter{
		UserID:        r.URL.Query().Get("user_id"),
		StatusID:      r.URL.Query().Get("status_id"),
		PaymentTypeID: r.URL.Query().Get("payment_type_id"),
		Search:        r.URL.Query().Get("search"),
		Sort:          r.URL.Query().Get("sort"),
		Page: order.Page{
			Skip:  queryInt(r, "skip"),
			Limit: queryInt(r, "limit"),
		},
	}

	var err error
	if f.CreatedFrom, err = queryDate(r, "created_from"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.CreatedTo, err = queryDate(r, "created_to"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.DeliveryFrom, err = queryDate(r, "delivery_from"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.DeliveryTo, err = queryDate(r, "delivery_to"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.MinTotal, err = queryDecimal(r, "min_total"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.MaxTotal, err = queryDecimal(r, "max_total"); err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.orders.AdminList(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *Handler) adminGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.AdminGet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

type updateOrderStatusRequest struct {
	StatusID     string `json:"status_id"`
	DeliveryDate string `json:"delivery_date"`
}

func (h *Handler) adminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var deliveryDate *time.Time
	if req.DeliveryDate != "" {
		t, err := time.Parse(dateLayout, req.DeliveryDate)
		if err != nil {
			writeError(w, r, fault.Invalid("delivery_date must be a date in the form YYYY-MM-DD"))
			return
		}
		deliveryDate = &t
	}

	o, err := h.orders.AdminUpdateStatus(r.Context(), chi.URLParam(r, "id"), req.StatusID, deliveryDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) adminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.AdminDelete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
