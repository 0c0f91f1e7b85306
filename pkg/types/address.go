package types

import "strings"

// ShippingAddress is the delivery contact snapshot stored on each order.
type ShippingAddress struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	PickupPoint string `json:"pickup_point,omitempty"`
	City        string `json:"city"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email"`
}

// Validate reports the first missing required field, if any.
func (a ShippingAddress) Validate() string {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return "name"
	case strings.TrimSpace(a.Address) == "":
		return "address"
	case strings.TrimSpace(a.Email) == "":
		return "email"
	default:
		return ""
	}
}
