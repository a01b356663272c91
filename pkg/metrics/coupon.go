package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	CouponResultApplied  = "applied"
	CouponResultNoop     = "already_applied"
	CouponResultRejected = "rejected"
)

// CouponMetrics counts coupon apply and revert outcomes per coupon type.
type CouponMetrics struct {
	apply  *prometheus.CounterVec
	revert *prometheus.CounterVec
}

// NewCouponMetrics registers the coupon counters on reg. A nil registerer yields no-op metrics.
func NewCouponMetrics(reg prometheus.Registerer) *CouponMetrics {
	if reg == nil {
		return &CouponMetrics{}
	}
	apply := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_apply_total",
		Help: "Coupon apply attempts by coupon type and result.",
	}, []string{"coupon_type", "result"})
	revert := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_revert_total",
		Help: "Coupons removed from carts by coupon type.",
	}, []string{"coupon_type"})
	reg.MustRegister(apply, revert)
	return &CouponMetrics{apply: apply, revert: revert}
}

// IncApply records an apply attempt.
func (m *CouponMetrics) IncApply(couponType, result string) {
	if m == nil || m.apply == nil {
		return
	}
	m.apply.WithLabelValues(normalizeLabel(couponType, "unknown"), normalizeLabel(result, CouponResultRejected)).Inc()
}

// IncRevert records a coupon removal.
func (m *CouponMetrics) IncRevert(couponType string) {
	if m == nil || m.revert == nil {
		return
	}
	m.revert.WithLabelValues(normalizeLabel(couponType, "unknown")).Inc()
}
