package models

// Product is a catalog entry of the product service
type Product struct {
	ID          string  `json:"id,omitempty"` // set by the backend
	SkuCode     string  `json:"skuCode"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// UserDetails identifies the buyer of an order
type UserDetails struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Order is an order as exchanged with the order service.
// ID and OrderNumber are assigned by the backend.
type Order struct {
	ID          *int64       `json:"id,omitempty"`
	OrderNumber string       `json:"orderNumber,omitempty"`
	SkuCode     string       `json:"skuCode"`
	Price       float64      `json:"price"`
	Quantity    int          `json:"quantity"`
	UserDetails *UserDetails `json:"userDetails,omitempty"`
}

// OrderResult is what placing an order produced: the created order when the
// backend answered with JSON, otherwise its confirmation text.
type OrderResult struct {
	Order   *Order `json:"order,omitempty"`
	Message string `json:"message,omitempty"`
}
