package enums

import "fmt"

// ShippingMethod selects a card-checkout shipping tier.
type ShippingMethod string

const (
	ShippingMethodStandard  ShippingMethod = "standard"
	ShippingMethodExpress   ShippingMethod = "express"
	ShippingMethodOvernight ShippingMethod = "overnight"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodStandard,
	ShippingMethodExpress,
	ShippingMethodOvernight,
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}

// DeliveryType selects how a COD courier hands over the parcel.
type DeliveryType string

const (
	DeliveryTypeHome   DeliveryType = "home"
	DeliveryTypeLocker DeliveryType = "locker"
)

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	switch d {
	case DeliveryTypeHome, DeliveryTypeLocker:
		return true
	default:
		return false
	}
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	switch DeliveryType(value) {
	case DeliveryTypeHome:
		return DeliveryTypeHome, nil
	case DeliveryTypeLocker:
		return DeliveryTypeLocker, nil
	default:
		return "", fmt.Errorf("invalid delivery type %q", value)
	}
}
