package enums

import "fmt"

// CouponType selects which discount rule a coupon carries.
type CouponType string

const (
	CouponTypeAmountOffOrder   CouponType = "amount_off_order"
	CouponTypeAmountOffProduct CouponType = "amount_off_product"
	CouponTypeBuyXGetY         CouponType = "buy_x_get_y"
	CouponTypeFreeShipping     CouponType = "free_shipping"
)

var validCouponTypes = []CouponType{
	CouponTypeAmountOffOrder,
	CouponTypeAmountOffProduct,
	CouponTypeBuyXGetY,
	CouponTypeFreeShipping,
}

// String implements fmt.Stringer.
func (c CouponType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponType.
func (c CouponType) IsValid() bool {
	for _, candidate := range validCouponTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponType converts raw input into a CouponType.
func ParseCouponType(value string) (CouponType, error) {
	for _, candidate := range validCouponTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon type %q", value)
}

// DiscountType distinguishes flat from percentage discounts.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeAmount     DiscountType = "amount"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeAmount,
}

func (d DiscountType) String() string {
	return string(d)
}

func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}

// CustomerGetsType controls how the "get" units of a buy X get Y coupon are priced.
type CustomerGetsType string

const (
	CustomerGetsFree          CustomerGetsType = "free"
	CustomerGetsAmountOffEach CustomerGetsType = "amount_off_each"
	CustomerGetsPercentage    CustomerGetsType = "percentage"
)

var validCustomerGetsTypes = []CustomerGetsType{
	CustomerGetsFree,
	CustomerGetsAmountOffEach,
	CustomerGetsPercentage,
}

func (c CustomerGetsType) String() string {
	return string(c)
}

func (c CustomerGetsType) IsValid() bool {
	for _, candidate := range validCustomerGetsTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCustomerGetsType(value string) (CustomerGetsType, error) {
	for _, candidate := range validCustomerGetsTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer gets type %q", value)
}

// CouponApplyScope selects either an explicit product set or the whole catalog.
type CouponApplyScope string

const (
	ApplyScopeSpecificProducts CouponApplyScope = "specific_products"
	ApplyScopeAllProducts      CouponApplyScope = "all_products"
)

var validApplyScopes = []CouponApplyScope{
	ApplyScopeSpecificProducts,
	ApplyScopeAllProducts,
}

func (c CouponApplyScope) String() string {
	return string(c)
}

func (c CouponApplyScope) IsValid() bool {
	for _, candidate := range validApplyScopes {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCouponApplyScope(value string) (CouponApplyScope, error) {
	for _, candidate := range validApplyScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid apply scope %q", value)
}

// ShippingScope limits free shipping to every state or an allow-list.
type ShippingScope string

const (
	ShippingScopeAllStates      ShippingScope = "all_states"
	ShippingScopeSpecificStates ShippingScope = "specific_states"
)

var validShippingScopes = []ShippingScope{
	ShippingScopeAllStates,
	ShippingScopeSpecificStates,
}

func (s ShippingScope) String() string {
	return string(s)
}

func (s ShippingScope) IsValid() bool {
	for _, candidate := range validShippingScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseShippingScope(value string) (ShippingScope, error) {
	for _, candidate := range validShippingScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping scope %q", value)
}

// CustomerEligibility decides who receives a UserCoupon assignment.
type CustomerEligibility string

const (
	EligibilityAllCustomers     CustomerEligibility = "all_customer"
	EligibilitySpecificCustomer CustomerEligibility = "specific_customer"
)

var validCustomerEligibilities = []CustomerEligibility{
	EligibilityAllCustomers,
	EligibilitySpecificCustomer,
}

func (c CustomerEligibility) String() string {
	return string(c)
}

func (c CustomerEligibility) IsValid() bool {
	for _, candidate := range validCustomerEligibilities {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCustomerEligibility(value string) (CustomerEligibility, error) {
	for _, candidate := range validCustomerEligibilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer eligibility %q", value)
}

// CustomerSegment names the purchase-history segment of a specific_customer coupon.
type CustomerSegment string

const (
	SegmentHaventPurchased       CustomerSegment = "havent_purchased"
	SegmentRecentPurchased       CustomerSegment = "recent_purchased"
	SegmentPurchasedOnce         CustomerSegment = "purchased_once"
	SegmentPurchasedMoreThanOnce CustomerSegment = "purchased_more_than_once"
)

var validCustomerSegments = []CustomerSegment{
	SegmentHaventPurchased,
	SegmentRecentPurchased,
	SegmentPurchasedOnce,
	SegmentPurchasedMoreThanOnce,
}

func (c CustomerSegment) String() string {
	return string(c)
}

func (c CustomerSegment) IsValid() bool {
	for _, candidate := range validCustomerSegments {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCustomerSegment(value string) (CustomerSegment, error) {
	for _, candidate := range validCustomerSegments {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer segment %q", value)
}

// MaximumDiscountUsage selects which counter caps coupon usage.
type MaximumDiscountUsage string

const (
	UsagePerCustomer        MaximumDiscountUsage = "per_customer"
	UsageLimitDiscountTimes MaximumDiscountUsage = "limit_discount_usage_time"
)

var validMaximumDiscountUsages = []MaximumDiscountUsage{
	UsagePerCustomer,
	UsageLimitDiscountTimes,
}

func (m MaximumDiscountUsage) String() string {
	return string(m)
}

func (m MaximumDiscountUsage) IsValid() bool {
	for _, candidate := range validMaximumDiscountUsages {
		if candidate == m {
			return true
		}
	}
	return false
}

func ParseMaximumDiscountUsage(value string) (MaximumDiscountUsage, error) {
	for _, candidate := range validMaximumDiscountUsages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid maximum discount usage %q", value)
}

// MinimumPurchaseRequirement gates a coupon on cart value or item count.
type MinimumPurchaseRequirement string

const (
	MinimumNone     MinimumPurchaseRequirement = "no_requirement"
	MinimumPurchase MinimumPurchaseRequirement = "minimum_purchase"
	MinimumItems    MinimumPurchaseRequirement = "minimum_items"
)

var validMinimumPurchaseRequirements = []MinimumPurchaseRequirement{
	MinimumNone,
	MinimumPurchase,
	MinimumItems,
}

func (m MinimumPurchaseRequirement) String() string {
	return string(m)
}

func (m MinimumPurchaseRequirement) IsValid() bool {
	for _, candidate := range validMinimumPurchaseRequirements {
		if candidate == m {
			return true
		}
	}
	return false
}

func ParseMinimumPurchaseRequirement(value string) (MinimumPurchaseRequirement, error) {
	for _, candidate := range validMinimumPurchaseRequirements {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid minimum purchase requirement %q", value)
}

// CouponCombination records which other discount classes a coupon may stack with.
type CouponCombination string

const (
	CombinationProductDiscounts  CouponCombination = "product_discounts"
	CombinationOrderDiscounts    CouponCombination = "order_discounts"
	CombinationShippingDiscounts CouponCombination = "shipping_discounts"
)

var validCouponCombinations = []CouponCombination{
	CombinationProductDiscounts,
	CombinationOrderDiscounts,
	CombinationShippingDiscounts,
}

func (c CouponCombination) IsValid() bool {
	for _, candidate := range validCouponCombinations {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCouponCombination(value string) (CouponCombination, error) {
	for _, candidate := range validCouponCombinations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon combination %q", value)
}

// CouponStatus is the admin-facing lifecycle view derived from is_active and is_deleted.
type CouponStatus string

const (
	CouponStatusPublish CouponStatus = "publish"
	CouponStatusDraft   CouponStatus = "draft"
	CouponStatusTrash   CouponStatus = "trash"
	CouponStatusAll     CouponStatus = "all"
)

var validCouponStatuses = []CouponStatus{
	CouponStatusPublish,
	CouponStatusDraft,
	CouponStatusTrash,
	CouponStatusAll,
}

func (c CouponStatus) IsValid() bool {
	for _, candidate := range validCouponStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCouponStatus(value string) (CouponStatus, error) {
	for _, candidate := range validCouponStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon status %q", value)
}
