//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "storefront-api"
	ConsumerName = "storefront-web"

	StateCatalogSeeded = "catalog seeded and customer signed in"
	StateOrderExists   = "order pact-order-1 exists"
	StateOrderMissing  = "no order pact-missing"
)

const (
	CustomerToken  = "pact-customer-token"
	CustomerUserID = "pact-customer"

	ProductID       = "pact-tee"
	ProductStock    = 5
	ExistingOrderID = "pact-order-1"
	MissingOrderID  = "pact-missing"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront web consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCheckoutPayload is a valid checkout for one unit of ProductID.
func ExampleCheckoutPayload(quantity int) map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"productId": ProductID, "quantity": quantity},
		},
		"shippingAddress": map[string]any{
			"fullName":     "Pact Customer",
			"addressLine1": "1 Contract Street",
			"city":         "Springfield",
			"state":        "IL",
			"postalCode":   "62701",
			"country":      "US",
			"phone":        "+15550100",
		},
		"paymentMethod": "paypal",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
