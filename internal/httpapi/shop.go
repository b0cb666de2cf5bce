package httpapi

import (
	"net/http"

	"github.com/erauner12/storefront/internal/models"
	"github.com/rs/zerolog/hlog"
)

// ListProducts handles GET /api/products
// Anonymous visitors may browse; a signed-in session forwards its token
func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	token, err := s.accessToken(w, r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	products, err := s.Shop.ListProducts(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// CreateProduct handles POST /api/products
func (s *Server) CreateProduct(w http.ResponseWriter, r *http.Request) {
	token, err := s.accessToken(w, r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var form models.ProductForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.Shop.CreateProduct(r.Context(), token, form.Product())
	if err != nil {
		writeError(w, r, err)
		return
	}

	hlog.FromRequest(r).Info().Str("skuCode", created.SkuCode).Msg("product created")
	writeJSON(w, http.StatusCreated, created)
}

// ListOrders handles GET /api/orders
func (s *Server) ListOrders(w http.ResponseWriter, r *http.Request) {
	token, err := s.accessToken(w, r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := s.Shop.ListOrders(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// PlaceOrder handles POST /api/orders
// The buyer's details are taken from the session profile, never from the body
func (s *Server) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	token, err := s.accessToken(w, r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var form models.OrderForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	var buyer *models.UserDetails
	if sess, ok := SessionFrom(r.Context()); ok && sess.Profile != nil {
		buyer = &models.UserDetails{
			Email:     sess.Profile.Email,
			FirstName: sess.Profile.GivenName,
			LastName:  sess.Profile.FamilyName,
		}
	}

	res, err := s.Shop.PlaceOrder(r.Context(), token, form.Order(buyer))
	if err != nil {
		writeError(w, r, err)
		return
	}

	hlog.FromRequest(r).Info().Str("skuCode", form.SkuCode).Msg("order placed")
	writeJSON(w, http.StatusCreated, res)
}
