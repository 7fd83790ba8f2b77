package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *fakeRepo) http.Handler {
	h := NewHandler(NewService(repo))
	r := chi.NewRouter()
	r.Post("/products/search", h.Search)
	r.With(h.ProductCtx).Get("/products/{productID}", h.Get)
	return r
}

func TestHandler_Search(t *testing.T) {
	repo := &fakeRepo{products: []Product{{ID: 101, Name: "Linen Shirt", Price: 120000, Stock: 3}}}
	router := newTestRouter(repo)

	t.Run("valid request", func(t *testing.T) {
		body := `{"category":"shirt","color":"white","max_price":150000}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/products/search", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []Product `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 1)
		assert.Equal(t, "white", repo.last.Color)
		require.NotNil(t, repo.last.PriceRange)
		assert.Equal(t, 150000.0, repo.last.PriceRange.Max)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/products/search", strings.NewReader(`{"category":"sofa"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/products/search", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Get(t *testing.T) {
	router := newTestRouter(&fakeRepo{products: []Product{{ID: 5, Name: "Chelsea Boots"}}})

	tests := []struct {
		path   string
		status int
	}{
		{"/products/5", http.StatusOK},
		{"/products/6", http.StatusNotFound},
		{"/products/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
