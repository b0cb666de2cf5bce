package storefront

import (
	"context"
	"fmt"

	"github.com/erauner12/storefront/internal/apiclient"
	"github.com/erauner12/storefront/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	productPath = "/api/product"
	orderPath   = "/api/order"
)

// API is the gateway surface the services call. *apiclient.Client implements it.
type API interface {
	Get(ctx context.Context, endpoint, accessToken string, headers map[string]string) (apiclient.Result, error)
	Post(ctx context.Context, endpoint string, body any, accessToken string, headers map[string]string) (apiclient.Result, error)
}

var _ API = (*apiclient.Client)(nil)

// Service exposes the product and order operations of the gateway.
// It does not validate input: the backend is the authority and its
// rejections are returned as apiclient.APIError.
type Service struct {
	api API
}

// New creates a Service over api
func New(api API) *Service {
	return &Service{api: api}
}

// ListProducts returns the catalog. accessToken may be empty.
func (s *Service) ListProducts(ctx context.Context, accessToken string) ([]models.Product, error) {
	var products []models.Product
	if err := s.list(ctx, productPath, accessToken, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// CreateProduct creates product and returns the stored version
func (s *Service) CreateProduct(ctx context.Context, accessToken string, product models.Product) (models.Product, error) {
	res, err := s.api.Post(ctx, productPath, product, accessToken, nil)
	if err != nil {
		return models.Product{}, err
	}

	switch res.Kind {
	case apiclient.KindJSON:
		var created models.Product
		if err := res.Decode(&created); err != nil {
			return models.Product{}, fmt.Errorf("failed to decode created product: %w", err)
		}
		return created, nil
	default:
		// Nothing echoed back: the submitted product is what was stored
		log.Ctx(ctx).Debug().Str("kind", res.Kind.String()).Msg("product created without body")
		return product, nil
	}
}

// ListOrders returns the orders visible to the bearer of accessToken
func (s *Service) ListOrders(ctx context.Context, accessToken string) ([]models.Order, error) {
	var orders []models.Order
	if err := s.list(ctx, orderPath, accessToken, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// PlaceOrder submits order. The order service answers either with the
// created order or with a plain confirmation message.
func (s *Service) PlaceOrder(ctx context.Context, accessToken string, order models.Order) (models.OrderResult, error) {
	res, err := s.api.Post(ctx, orderPath, order, accessToken, nil)
	if err != nil {
		return models.OrderResult{}, err
	}

	switch res.Kind {
	case apiclient.KindJSON:
		var placed models.Order
		if err := res.Decode(&placed); err != nil {
			return models.OrderResult{}, fmt.Errorf("failed to decode placed order: %w", err)
		}
		return models.OrderResult{Order: &placed}, nil
	case apiclient.KindText:
		return models.OrderResult{Message: res.Text}, nil
	default:
		return models.OrderResult{}, nil
	}
}

func (s *Service) list(ctx context.Context, path, accessToken string, out any) error {
	res, err := s.api.Get(ctx, path, accessToken, nil)
	if err != nil {
		return err
	}

	switch res.Kind {
	case apiclient.KindEmpty:
		return nil
	case apiclient.KindJSON:
		if err := res.Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("unexpected %s response from %s", res.Kind, path)
	}
}
