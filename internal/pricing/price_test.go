package pricing

import (
	"testing"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/types"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", value, err)
	}
	return d
}

func tier(from *int, to int, price string) types.BulkPriceRule {
	rule := types.BulkPriceRule{QuantityTo: types.NewFlexInt(to), Price: decimal.RequireFromString(price)}
	if from != nil {
		rule.QuantityFrom = types.NewFlexInt(*from)
	}
	return rule
}

func intPtr(v int) *int { return &v }

func TestLinePriceBulkTier(t *testing.T) {
	p := VariantPricing{
		RegularPrice: dec(t, "12"),
		Tiers:        types.BulkPriceRules{tier(intPtr(1), 10, "90")},
	}

	cases := []struct {
		qty  int
		want string
	}{
		{qty: 10, want: "90"},
		{qty: 11, want: "102"},
		{qty: 20, want: "180"},
		{qty: 3, want: "36"},
	}
	for _, tc := range cases {
		if got := LinePrice(p, tc.qty, false); !got.Equal(dec(t, tc.want)) {
			t.Fatalf("qty %d: expected %s got %s", tc.qty, tc.want, got)
		}
	}
}

func TestLinePriceTiersConsumeInAscendingOrder(t *testing.T) {
	p := VariantPricing{
		RegularPrice: dec(t, "10"),
		Tiers: types.BulkPriceRules{
			tier(intPtr(10), 10, "80"),
			tier(intPtr(1), 5, "45"),
		},
	}
	// 5-unit tier first: 12 -> 2 bundles (90) + 2 left; the 10-unit tier no longer fits.
	if got := LinePrice(p, 12, false); !got.Equal(dec(t, "110")) {
		t.Fatalf("expected 110, got %s", got)
	}
}

func TestLinePriceUnsortedTiersAppended(t *testing.T) {
	p := VariantPricing{
		RegularPrice: dec(t, "10"),
		Tiers: types.BulkPriceRules{
			tier(nil, 2, "15"),
			tier(intPtr(1), 4, "30"),
		},
	}
	// numeric tier first: 5 -> 1x4 (30) + 1 left, unsorted 2-unit tier no longer fits.
	if got := LinePrice(p, 5, false); !got.Equal(dec(t, "40")) {
		t.Fatalf("expected 40, got %s", got)
	}
}

func TestLinePriceSaleWhenNoTierMatches(t *testing.T) {
	p := VariantPricing{
		RegularPrice: dec(t, "12"),
		SalePrice:    dec(t, "9.5"),
		SaleActive:   true,
		Tiers:        types.DefaultBulkPriceRules(),
	}
	if got := LinePrice(p, 3, false); !got.Equal(dec(t, "28.5")) {
		t.Fatalf("expected sale price 28.5, got %s", got)
	}

	p.SaleActive = false
	if got := LinePrice(p, 3, false); !got.Equal(dec(t, "36")) {
		t.Fatalf("expected regular price 36, got %s", got)
	}
}

func TestLinePriceBypassesTiersWhenCouponApplied(t *testing.T) {
	p := VariantPricing{
		RegularPrice: dec(t, "12"),
		Tiers:        types.BulkPriceRules{tier(intPtr(1), 10, "90")},
	}
	if got := LinePrice(p, 10, true); !got.Equal(dec(t, "120")) {
		t.Fatalf("expected tier bypass 120, got %s", got)
	}
}

func TestLinePriceRoundsHalfEven(t *testing.T) {
	p := VariantPricing{RegularPrice: dec(t, "0.125")}
	if got := LinePrice(p, 1, false); !got.Equal(dec(t, "0.12")) {
		t.Fatalf("expected 0.12, got %s", got)
	}
	if got := LinePrice(p, 0, false); !got.IsZero() {
		t.Fatalf("expected zero for empty quantity, got %s", got)
	}
}

func TestCalculateVAT(t *testing.T) {
	res := CalculateVAT(dec(t, "100"), dec(t, "20"), dec(t, "15"))
	if !res.VATAmount.Equal(dec(t, "20")) {
		t.Fatalf("unexpected vat %s", res.VATAmount)
	}
	if !res.TotalWithVAT.Equal(dec(t, "135")) {
		t.Fatalf("unexpected total %s", res.TotalWithVAT)
	}
	if !res.ShippingCost.Equal(dec(t, "15")) {
		t.Fatalf("unexpected shipping %s", res.ShippingCost)
	}
}

func TestAcceptsOrdersAt(t *testing.T) {
	cfg := Config{AcceptFrom: TimeOfDay{Hour: 6}, AcceptUntil: TimeOfDay{Hour: 14}}
	day := func(h, m, s int) time.Time { return time.Date(2024, 1, 16, h, m, s, 0, time.UTC) }

	cases := []struct {
		at   time.Time
		want bool
	}{
		{day(5, 59, 0), false},
		{day(6, 0, 0), true},
		{day(10, 30, 0), true},
		{day(14, 0, 0), true},
		{day(14, 0, 30), false},
		{day(18, 0, 0), false},
	}
	for _, tc := range cases {
		if got := cfg.AcceptsOrdersAt(tc.at); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.at.Format("15:04:05"), tc.want, got)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("06:30")
	if err != nil || tod.Hour != 6 || tod.Minute != 30 {
		t.Fatalf("unexpected parse result %+v err=%v", tod, err)
	}
	if tod.String() != "06:30" {
		t.Fatalf("unexpected string %q", tod.String())
	}
	if _, err := ParseTimeOfDay("6am"); err == nil {
		t.Fatal("expected error")
	}
}
