package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFieldValidators(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"sku empty", ValidateSkuCode(""), "SKU Code is required."},
		{"sku blank", ValidateSkuCode("   "), "SKU Code is required."},
		{"sku short", ValidateSkuCode("ab"), "SKU Code must be at least 3 characters long."},
		{"sku ok", ValidateSkuCode("SKU-1"), ""},
		{"name short", ValidateName("TV"), "Name must be at least 3 characters long."},
		{"name ok", ValidateName("iPhone 15"), ""},
		{"description short", ValidateDescription("too short"), "Description must be at least 10 characters long."},
		{"description ok", ValidateDescription("A decent smartphone"), ""},
		{"price missing", ValidatePrice(nil), "Price is required."},
		{"price zero", ValidatePrice(ptr(0.0)), "Price must be greater than 0."},
		{"price negative", ValidatePrice(ptr(-5.0)), "Price must be greater than 0."},
		{"price ok", ValidatePrice(ptr(999.99)), ""},
		{"quantity missing", ValidateQuantity(nil), "Quantity cannot be null"},
		{"quantity zero", ValidateQuantity(ptr(0)), "Quantity must be greater than 0."},
		{"quantity ok", ValidateQuantity(ptr(2)), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestProductForm_Validate(t *testing.T) {
	form := ProductForm{SkuCode: "ab", Name: "Phone", Description: "short"}

	err := form.Validate()
	require.Error(t, err)

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"skuCode":     "SKU Code must be at least 3 characters long.",
		"description": "Description must be at least 10 characters long.",
		"price":       "Price is required.",
	}, verr.Fields)
	assert.Equal(t,
		"validation failed: description: Description must be at least 10 characters long.; price: Price is required.; skuCode: SKU Code must be at least 3 characters long.",
		err.Error())
}

func TestProductForm_Product(t *testing.T) {
	form := ProductForm{SkuCode: " iphone_15 ", Name: "iPhone 15", Description: "Apple smartphone", Price: ptr(1000.0)}
	require.NoError(t, form.Validate())

	assert.Equal(t, Product{
		SkuCode:     "iphone_15",
		Name:        "iPhone 15",
		Description: "Apple smartphone",
		Price:       1000,
	}, form.Product())
}

func TestOrderForm_Validate(t *testing.T) {
	err := OrderForm{Price: 10}.Validate()

	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "This product cannot be ordered because it has no SKU Code.", verr.Fields["skuCode"])
	assert.Equal(t, "Quantity cannot be null", verr.Fields["quantity"])

	assert.NoError(t, OrderForm{SkuCode: "iphone_15", Price: 10, Quantity: ptr(1)}.Validate())
}

func TestOrderForm_Order(t *testing.T) {
	user := &UserDetails{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}
	order := OrderForm{SkuCode: "iphone_15", Price: 1000, Quantity: ptr(2)}.Order(user)

	body, err := json.Marshal(order)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"skuCode": "iphone_15",
		"price": 1000,
		"quantity": 2,
		"userDetails": {"email": "ada@example.com", "firstName": "Ada", "lastName": "Lovelace"}
	}`, string(body))
}
