package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aiox-platform/shopassist/internal/api"
	"github.com/aiox-platform/shopassist/internal/auth"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	c, err := h.svc.GetCart(r.Context(), userID)
	if err != nil {
		slog.Error("loading cart", "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, c)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req AddItemRequest
	if err := api.DecodeAndValidate(r, h.validate, &req); err != nil {
		api.HandleError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.svc.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.handleCartError(w, err, "adding cart item", userID)
		return
	}
	api.JSON(w, http.StatusCreated, item)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		api.HandleError(w, api.NewBadRequestError("invalid product ID"))
		return
	}

	if _, err := h.svc.RemoveItem(r.Context(), userID, productID); err != nil {
		h.handleCartError(w, err, "removing cart item", userID)
		return
	}
	api.JSONMessage(w, http.StatusOK, "item removed from cart")
}

func (h *Handler) handleCartError(w http.ResponseWriter, err error, op, userID string) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		api.HandleError(w, api.NewNotFoundError(err.Error()))
	case errors.Is(err, ErrItemNotInCart):
		api.HandleError(w, api.NewNotFoundError(err.Error()))
	case errors.Is(err, ErrOutOfStock):
		api.HandleError(w, api.NewConflictError(err.Error()))
	case errors.Is(err, ErrInvalidQuantity):
		api.HandleError(w, api.NewValidationError(err.Error()))
	default:
		slog.Error(op, "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
	}
}
