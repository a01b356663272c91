package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexInt decodes integers that may arrive as JSON numbers, numeric strings, blanks or null.
// Valid is false when the raw value is not a non-negative integer.
type FlexInt struct {
	Value int
	Valid bool
}

// NewFlexInt returns a valid FlexInt.
func NewFlexInt(v int) FlexInt {
	return FlexInt{Value: v, Valid: true}
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}
	raw := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if raw == "" || raw == "null" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil
	}
	*f = FlexInt{Value: n, Valid: true}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.Value)), nil
}

// BulkPriceRule prices quantity_to units of a variant at a flat price.
type BulkPriceRule struct {
	QuantityFrom FlexInt         `json:"quantity_from"`
	QuantityTo   FlexInt         `json:"quantity_to"`
	Price        decimal.Decimal `json:"price"`
}

// BulkPriceRules is persisted as a JSON list on inventories.
type BulkPriceRules []BulkPriceRule

// DefaultBulkPriceRules is the placeholder list stored for new inventories.
func DefaultBulkPriceRules() BulkPriceRules {
	return BulkPriceRules{{
		QuantityFrom: NewFlexInt(0),
		QuantityTo:   NewFlexInt(0),
		Price:        decimal.Zero,
	}}
}

func (r *BulkPriceRule) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuantityFrom FlexInt         `json:"quantity_from"`
		QuantityTo   FlexInt         `json:"quantity_to"`
		Price        json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.QuantityFrom = raw.QuantityFrom
	r.QuantityTo = raw.QuantityTo
	r.Price = decimal.Zero
	trimmed := strings.TrimSpace(string(bytes.Trim(raw.Price, `"`)))
	if trimmed != "" && trimmed != "null" {
		price, err := decimal.NewFromString(trimmed)
		if err != nil {
			return err
		}
		r.Price = price
	}
	return nil
}
