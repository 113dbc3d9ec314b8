package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
)

type normalizedPlaceOrderInput struct {
	UserID          string            `json:"userId"`
	Items           []normalizedItem  `json:"items"`
	ShippingAddress normalizedAddress `json:"shippingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	ClientPaymentID string            `json:"clientPaymentId"`
}

type normalizedItem struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type normalizedAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

// FingerprintPlaceOrder builds a deterministic hash of the checkout payload,
// excluding the idempotency key and client-displayed totals.
func FingerprintPlaceOrder(input ordertypes.PlaceOrderInput) (string, error) {
	normalized := normalizedPlaceOrderInput{
		UserID:          input.Principal.UserID,
		Items:           make([]normalizedItem, 0, len(input.Items)),
		PaymentMethod:   strings.TrimSpace(string(input.PaymentMethod)),
		ClientPaymentID: strings.TrimSpace(input.ClientPaymentID),
		ShippingAddress: normalizedAddress{
			FullName:     strings.TrimSpace(input.ShippingAddress.FullName),
			AddressLine1: strings.TrimSpace(input.ShippingAddress.AddressLine1),
			AddressLine2: strings.TrimSpace(input.ShippingAddress.AddressLine2),
			City:         strings.TrimSpace(input.ShippingAddress.City),
			State:        strings.TrimSpace(input.ShippingAddress.State),
			PostalCode:   strings.TrimSpace(input.ShippingAddress.PostalCode),
			Country:      strings.TrimSpace(input.ShippingAddress.Country),
			Phone:        strings.TrimSpace(input.ShippingAddress.Phone),
		},
	}
	for _, item := range input.Items {
		normalized.Items = append(normalized.Items, normalizedItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Size:      strings.ToLower(strings.TrimSpace(item.Size)),
			Quantity:  item.Quantity,
		})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// scopedIdempotencyKey namespaces client keys per caller.
func scopedIdempotencyKey(userID, key string) string {
	return userID + ":" + key
}
