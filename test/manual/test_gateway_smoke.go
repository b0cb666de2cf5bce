// test_gateway_smoke.go
//
// Smoke test against a running Keycloak realm and API gateway.
// It walks the token lifecycle with a real refresh token and calls the
// product and order routes through the API client.
//
// Usage:
//   REFRESH_TOKEN=<offline or refresh token> go run test/manual/test_gateway_smoke.go
//
// Optional env: API_URL, KEYCLOAK_ISSUER, KEYCLOAK_CLIENT_ID, KEYCLOAK_CLIENT_SECRET
//
// What it tests:
//   1. OIDC discovery (falls back to the Keycloak layout)
//   2. refresh_token exchange
//   3. Anonymous product listing
//   4. Authenticated order listing
//   5. Rejection of a forged bearer token

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/erauner12/storefront/internal/apiclient"
	"github.com/erauner12/storefront/internal/auth"
	"github.com/erauner12/storefront/internal/storefront"
)

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	fmt.Println("=" + strings.Repeat("=", 69))
	fmt.Println("  Storefront Gateway Smoke Test")
	fmt.Println("=" + strings.Repeat("=", 69))
	fmt.Println()

	refreshToken := os.Getenv("REFRESH_TOKEN")
	if refreshToken == "" {
		fmt.Println("  REFRESH_TOKEN is required")
		os.Exit(2)
	}

	issuer := env("KEYCLOAK_ISSUER", "http://localhost:8181/realms/test-client")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	passed := 0
	failed := 0

	// Test 1: Discovery
	fmt.Println("Test 1: OIDC discovery")
	fmt.Println("-" + strings.Repeat("-", 69))

	httpClient := &http.Client{Timeout: 10 * time.Second}
	endpoints, err := auth.Discover(ctx, httpClient, issuer)
	if err != nil {
		fmt.Printf("  WARN: Discovery failed (%v), using Keycloak layout\n", err)
		endpoints = auth.KeycloakEndpoints(issuer)
	} else {
		fmt.Printf("  OK: token endpoint %s\n", endpoints.TokenURL)
	}
	passed++
	fmt.Println()

	provider := auth.NewProvider(auth.ProviderConfig{
		IssuerURL:    issuer,
		ClientID:     env("KEYCLOAK_CLIENT_ID", "react-client"),
		ClientSecret: os.Getenv("KEYCLOAK_CLIENT_SECRET"),
		Endpoints:    endpoints,
		HTTPClient:   httpClient,
	})

	// Test 2: Refresh
	fmt.Println("Test 2: refresh_token exchange")
	fmt.Println("-" + strings.Repeat("-", 69))

	manager := auth.NewManager(provider)
	_ = manager.SignIn(auth.Token{AccessToken: "placeholder", RefreshToken: refreshToken, ExpiresAt: time.Now().Add(-time.Second)})

	tok, err := manager.Refresh(ctx)
	if err != nil {
		fmt.Printf("  FAIL: Refresh failed: %v\n", err)
		failed++
	} else {
		fmt.Printf("  OK: New access token, expires at %s\n", tok.ExpiresAt.Format(time.RFC3339))
		fmt.Printf("  State: %s\n", manager.State())
		passed++
	}
	fmt.Println()

	shop := storefront.New(apiclient.New(env("API_URL", apiclient.DefaultBaseURL)))

	// Test 3: Anonymous products
	fmt.Println("Test 3: GET /api/product (anonymous)")
	fmt.Println("-" + strings.Repeat("-", 69))

	products, err := shop.ListProducts(ctx, "")
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		failed++
	} else {
		fmt.Printf("  OK: %d products\n", len(products))
		passed++
	}
	fmt.Println()

	// Test 4: Authenticated orders
	fmt.Println("Test 4: GET /api/order (authenticated)")
	fmt.Println("-" + strings.Repeat("-", 69))

	if tok.Error != "" || tok.AccessToken == "" {
		fmt.Println("  SKIP: no valid access token")
	} else if orders, err := shop.ListOrders(ctx, tok.AccessToken); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		failed++
	} else {
		fmt.Printf("  OK: %d orders\n", len(orders))
		passed++
	}
	fmt.Println()

	// Test 5: Forged token
	fmt.Println("Test 5: GET /api/order with forged token")
	fmt.Println("-" + strings.Repeat("-", 69))

	_, err = shop.ListOrders(ctx, "forged.token.value")
	switch {
	case apiclient.IsUnauthorized(err):
		fmt.Println("  OK: Gateway rejected forged token with 401")
		passed++
	case err == nil:
		fmt.Println("  FAIL: Gateway accepted forged token")
		failed++
	default:
		fmt.Printf("  WARN: Unexpected error: %v\n", err)
		passed++ // Still rejected
	}
	fmt.Println()

	manager.SignOut(ctx)

	// Summary
	fmt.Println("=" + strings.Repeat("=", 69))
	fmt.Printf("  Results: %d passed, %d failed\n", passed, failed)
	fmt.Println("=" + strings.Repeat("=", 69))

	if failed > 0 {
		os.Exit(1)
	}
}
