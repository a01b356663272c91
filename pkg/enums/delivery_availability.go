package enums

import "fmt"

// DeliveryAvailability marks whether a zip code is served.
type DeliveryAvailability string

const (
	DeliveryAvailable   DeliveryAvailability = "available"
	DeliveryUnavailable DeliveryAvailability = "unavailable"
)

var validDeliveryAvailabilities = []DeliveryAvailability{
	DeliveryAvailable,
	DeliveryUnavailable,
}

func (d DeliveryAvailability) IsValid() bool {
	for _, candidate := range validDeliveryAvailabilities {
		if candidate == d {
			return true
		}
	}
	return false
}

func ParseDeliveryAvailability(value string) (DeliveryAvailability, error) {
	for _, candidate := range validDeliveryAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery availability %q", value)
}
