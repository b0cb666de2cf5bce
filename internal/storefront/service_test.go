package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erauner12/storefront/internal/apiclient"
	"github.com/erauner12/storefront/internal/models"
)

// newGateway starts a fake API gateway and returns a Service wired to it
func newGateway(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(apiclient.New(server.URL))
}

func TestListProducts_Anonymous(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/product" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("anonymous listing must not send Authorization, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"p1","skuCode":"iphone_15","name":"iPhone 15","description":"Apple smartphone","price":1000}]`))
	})

	products, err := svc.ListProducts(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 1 || products[0].SkuCode != "iphone_15" || products[0].Price != 1000 {
		t.Errorf("unexpected products: %+v", products)
	}
}

func TestListProducts_EmptyBody(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	products, err := svc.ListProducts(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", products)
	}
}

func TestListProducts_TextIsAnError(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>login</html>"))
	})

	if _, err := svc.ListProducts(context.Background(), ""); err == nil {
		t.Fatal("expected error for non-JSON listing")
	}
}

func TestCreateProduct(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/product" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		var p models.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		p.ID = "p42"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	})

	created, err := svc.CreateProduct(context.Background(), "tok", models.Product{
		SkuCode: "pixel_8", Name: "Pixel 8", Description: "Google smartphone", Price: 699,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "p42" || created.Name != "Pixel 8" {
		t.Errorf("unexpected product: %+v", created)
	}
}

func TestCreateProduct_NoBody(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	in := models.Product{SkuCode: "pixel_8", Name: "Pixel 8", Description: "Google smartphone", Price: 699}
	created, err := svc.CreateProduct(context.Background(), "tok", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != in {
		t.Errorf("expected submitted product back, got %+v", created)
	}
}

func TestCreateProduct_BackendRejection(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("skuCode must not be blank"))
	})

	_, err := svc.CreateProduct(context.Background(), "tok", models.Product{Name: "No SKU"})

	var apiErr apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", apiErr.HTTPStatus)
	}
	if apiErr.Message != "API request failed: 400 Bad Request - skuCode must not be blank" {
		t.Errorf("unexpected message: %s", apiErr.Message)
	}
}

func TestListOrders(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/order" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":7,"orderNumber":"c0ffee","skuCode":"iphone_15","price":1000,"quantity":1}]`))
	})

	orders, err := svc.ListOrders(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 1 || orders[0].ID == nil || *orders[0].ID != 7 || orders[0].OrderNumber != "c0ffee" {
		t.Errorf("unexpected orders: %+v", orders)
	}
}

func TestListOrders_Unauthorized(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := svc.ListOrders(context.Background(), "expired")
	if !apiclient.IsUnauthorized(err) {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestPlaceOrder_TextConfirmation(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var o models.Order
		if err := json.Unmarshal(body, &o); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		if o.SkuCode != "iphone_15" || o.Quantity != 2 {
			t.Errorf("unexpected order: %s", body)
		}
		w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("Order Placed Successfully"))
	})

	res, err := svc.PlaceOrder(context.Background(), "tok", models.Order{SkuCode: "iphone_15", Price: 1000, Quantity: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != "Order Placed Successfully" || res.Order != nil {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPlaceOrder_JSONOrder(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1,"orderNumber":"abc","skuCode":"iphone_15","price":1000,"quantity":2}`))
	})

	res, err := svc.PlaceOrder(context.Background(), "tok", models.Order{SkuCode: "iphone_15", Price: 1000, Quantity: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Order == nil || res.Order.OrderNumber != "abc" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPlaceOrder_OutOfStock(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Product with Skucode iphone_15 is not in stock"))
	})

	_, err := svc.PlaceOrder(context.Background(), "tok", models.Order{SkuCode: "iphone_15", Quantity: 1000})
	if apiclient.StatusOf(err) != http.StatusInternalServerError {
		t.Errorf("expected 500 APIError, got %v", err)
	}
}

func TestPlaceOrder_ReturnsCreatedOrder(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer valid" {
			t.Errorf("expected bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":3,"orderNumber":"9b2e","skuCode":"iphone_13","price":999,"quantity":2}`))
	})

	res, err := svc.PlaceOrder(context.Background(), "valid", models.Order{SkuCode: "iphone_13", Price: 999, Quantity: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Order == nil || res.Order.SkuCode != "iphone_13" || res.Order.Quantity != 2 || res.Order.Price != 999 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPlaceOrder_MissingSkuCodeRejectedByBackend(t *testing.T) {
	svc := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var o models.Order
		json.NewDecoder(r.Body).Decode(&o)
		if o.SkuCode == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"skuCode is required"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	_, err := svc.PlaceOrder(context.Background(), "valid", models.Order{Price: 999, Quantity: 2})

	var apiErr apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", apiErr.HTTPStatus)
	}
	if apiErr.RawBody != `{"error":"skuCode is required"}` {
		t.Errorf("unexpected raw body: %s", apiErr.RawBody)
	}
}
