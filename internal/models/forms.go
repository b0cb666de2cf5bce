package models

import "strings"

// ProductForm is the add-product form as submitted by the browser
type ProductForm struct {
	SkuCode     string   `json:"skuCode"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

// Validate returns a ValidationError listing every invalid field
func (f ProductForm) Validate() error {
	errs := fieldErrors{}
	errs.check("skuCode", ValidateSkuCode(f.SkuCode))
	errs.check("name", ValidateName(f.Name))
	errs.check("description", ValidateDescription(f.Description))
	errs.check("price", ValidatePrice(f.Price))
	return errs.err()
}

// Product converts a validated form into the backend DTO
func (f ProductForm) Product() Product {
	p := Product{
		SkuCode:     strings.TrimSpace(f.SkuCode),
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	return p
}

// OrderForm is the order-a-product form as submitted by the browser
type OrderForm struct {
	SkuCode  string  `json:"skuCode"`
	Price    float64 `json:"price"`
	Quantity *int    `json:"quantity"`
}

// Validate returns a ValidationError listing every invalid field
func (f OrderForm) Validate() error {
	errs := fieldErrors{}
	if strings.TrimSpace(f.SkuCode) == "" {
		errs.check("skuCode", "This product cannot be ordered because it has no SKU Code.")
	}
	errs.check("quantity", ValidateQuantity(f.Quantity))
	return errs.err()
}

// Order converts a validated form into the backend DTO placed by user
func (f OrderForm) Order(user *UserDetails) Order {
	o := Order{
		SkuCode:     strings.TrimSpace(f.SkuCode),
		Price:       f.Price,
		UserDetails: user,
	}
	if f.Quantity != nil {
		o.Quantity = *f.Quantity
	}
	return o
}
