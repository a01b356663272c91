package models

import (
	"testing"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/enums"
)

func TestInventoryRefreshSaleActive(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	inv := &Inventory{SaleFrom: &from, SaleTo: &to}
	if changed := inv.RefreshSaleActive(now); !changed || !inv.SaleActive {
		t.Fatalf("expected sale to be active on the last day, got active=%v changed=%v", inv.SaleActive, changed)
	}

	if changed := inv.RefreshSaleActive(now.Add(24 * time.Hour)); !changed || inv.SaleActive {
		t.Fatalf("expected sale to end after the last day")
	}

	noDates := &Inventory{SaleActive: true}
	noDates.RefreshSaleActive(now)
	if noDates.SaleActive {
		t.Fatalf("expected sale inactive without dates")
	}
}

func TestAddressFormatted(t *testing.T) {
	line2 := "Suite 4"
	addr := Address{Line1: "1 Baker St", Line2: &line2, City: "Springfield", State: "CA", ZipCode: "90001"}
	if got := addr.Formatted(); got != "1 Baker St, Suite 4, Springfield, CA 90001" {
		t.Fatalf("unexpected formatted address %q", got)
	}
}

func TestCouponStatus(t *testing.T) {
	cases := []struct {
		coupon Coupon
		want   enums.CouponStatus
	}{
		{Coupon{IsActive: true}, enums.CouponStatusPublish},
		{Coupon{IsActive: false}, enums.CouponStatusDraft},
		{Coupon{IsActive: true, IsDeleted: true}, enums.CouponStatusTrash},
	}
	for _, tc := range cases {
		if got := tc.coupon.Status(); got != tc.want {
			t.Fatalf("expected %s got %s", tc.want, got)
		}
	}
}
