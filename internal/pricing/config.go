package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the per-request pricing configuration.
type Config struct {
	VATPercentage   decimal.Decimal `json:"vat_percentage"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	PackingFee      decimal.Decimal `json:"packing_fee"`
	ShippingCharges decimal.Decimal `json:"shipping_charges"`
	AcceptFrom      TimeOfDay       `json:"order_accept_time"`
	AcceptUntil     TimeOfDay       `json:"order_restrict_time"`
}

// TimeOfDay is a wall-clock time encoded as HH:MM.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an HH:MM string.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// AcceptsOrdersAt reports whether now falls within the accept window, inclusive at both ends.
func (c Config) AcceptsOrdersAt(now time.Time) bool {
	current := now.Hour()*60 + now.Minute()
	if now.Second() > 0 || now.Nanosecond() > 0 {
		// 14:00:30 is past a 14:00 cutoff
		if current == c.AcceptUntil.minutes() {
			return false
		}
	}
	return current >= c.AcceptFrom.minutes() && current <= c.AcceptUntil.minutes()
}
