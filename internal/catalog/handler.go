package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aiox-platform/shopassist/internal/api"
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

// Search handles POST /products/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := api.DecodeAndValidate(r, h.validate, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	products, err := h.svc.Search(r.Context(), req.Criteria())
	if err != nil {
		slog.Error("searching products", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if products == nil {
		products = []Product{}
	}

	api.JSON(w, http.StatusOK, products)
}

// Get handles GET /products/{productID}; ProductCtx has already loaded the row.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p := GetProductFromContext(r.Context())
	if p == nil {
		api.HandleError(w, api.NewNotFoundError("product not found"))
		return
	}
	api.JSON(w, http.StatusOK, p)
}

// ProductCtx loads the product named by the {productID} URL param into the request context.
func (h *Handler) ProductCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil || id <= 0 {
			api.HandleError(w, api.NewBadRequestError("invalid product ID"))
			return
		}

		p, err := h.svc.GetByID(r.Context(), id)
		if err != nil {
			slog.Error("loading product", "error", err, "product_id", id)
			api.HandleError(w, api.ErrInternalServer)
			return
		}
		if p == nil {
			api.HandleError(w, api.NewNotFoundError("product not found"))
			return
		}

		next.ServeHTTP(w, r.WithContext(SetProductInContext(r.Context(), p)))
	})
}
