package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	"github.com/crumbworks/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows the admin coupon listing.
type ListFilter struct {
	Status enums.CouponStatus
	Search string
	SortBy string
	Desc   bool
}

var sortColumns = map[string]string{
	"code":        "code",
	"is_active":   "is_active",
	"coupon_type": "coupon_type",
	"created_at":  "created_at",
}

// Repository persists coupons and their per-user assignments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByCode returns the newest coupon carrying code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Coupon, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Coupon
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Coupon{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, c *models.Coupon) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) Save(ctx context.Context, c *models.Coupon) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// List pages through coupons matching filter.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Coupon, int64, error) {
	params = params.Normalize()
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Coupon{})
		switch filter.Status {
		case enums.CouponStatusPublish:
			q = q.Where("is_active = ? AND is_deleted = ?", true, false)
		case enums.CouponStatusDraft:
			q = q.Where("is_active = ? AND is_deleted = ?", false, false)
		case enums.CouponStatusTrash:
			q = q.Where("is_deleted = ?", true)
		default:
			q = q.Where("is_deleted = ?", false)
		}
		if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
			like := "%" + term + "%"
			q = q.Where("LOWER(code) LIKE ? OR LOWER(coupon_type) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	var rows []models.Coupon
	err := scoped().
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.Desc}).
		Order("id ASC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	return rows, total, err
}

// SetFlags updates the lifecycle flags of the coupons in ids.
func (r *Repository) SetFlags(ctx context.Context, ids []uuid.UUID, active, deleted bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{"is_active": active, "is_deleted": deleted})
	return res.RowsAffected, res.Error
}

// DeactivateExpired unpublishes coupons whose validity window ended before now.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("is_active = ? AND ends_at < ?", true, now).
		UpdateColumn("is_active", false)
	return res.RowsAffected, res.Error
}

// ListActiveAllCustomer returns the published, unexpired coupons every customer receives.
func (r *Repository) ListActiveAllCustomer(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	var rows []models.Coupon
	err := r.db.WithContext(ctx).
		Where("customer_eligibility = ?", enums.EligibilityAllCustomers).
		Where("is_active = ? AND is_deleted = ? AND ends_at >= ?", true, false, now).
		Find(&rows).Error
	return rows, err
}

// IncrementUsage bumps the global usage counter in place.
func (r *Repository) IncrementUsage(ctx context.Context, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", couponID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

// DecrementUsageAboveOne lowers the global counter while it is greater than one.
func (r *Repository) DecrementUsageAboveOne(ctx context.Context, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND usage_count > 1", couponID).
		UpdateColumn("usage_count", gorm.Expr("usage_count - 1")).Error
}

// FindUserCoupon returns the user's assignment of the coupon with code.
func (r *Repository) FindUserCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.UserCoupon, error) {
	var uc models.UserCoupon
	err := r.db.WithContext(ctx).
		Preload("Coupon").
		Joins("JOIN coupons ON coupons.id = user_coupons.coupon_id").
		Where("user_coupons.user_id = ? AND coupons.code = ?", userID, code).
		Order("user_coupons.created_at DESC").
		First(&uc).Error
	if err != nil {
		return nil, err
	}
	return &uc, nil
}

func (r *Repository) UserCouponExists(ctx context.Context, userID, couponID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserCoupon{}).
		Where("user_id = ? AND coupon_id = ?", userID, couponID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) DecrementUserUsageAboveOne(ctx context.Context, userCouponID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.UserCoupon{}).
		Where("id = ? AND maximum_usage > 1", userCouponID).
		UpdateColumn("maximum_usage", gorm.Expr("maximum_usage - 1")).Error
}

func (r *Repository) MarkRedeemed(ctx context.Context, userCouponID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserCoupon{}).
		Where("id = ?", userCouponID).
		UpdateColumns(map[string]any{"redeemed": true, "redemption_date": at}).Error
}

// CreateUserCoupons inserts assignments, skipping users that already hold the coupon.
func (r *Repository) CreateUserCoupons(ctx context.Context, rows []models.UserCoupon) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "coupon_id"}},
			DoNothing: true,
		}).
		CreateInBatches(rows, 200)
	return res.RowsAffected, res.Error
}

// ListMine pages through the user's usable assignments, newest first.
func (r *Repository) ListMine(ctx context.Context, userID uuid.UUID, now time.Time, params pagination.Params) ([]models.UserCoupon, int64, error) {
	params = params.Normalize()
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.UserCoupon{}).
			Joins("JOIN coupons ON coupons.id = user_coupons.coupon_id").
			Where("user_coupons.user_id = ? AND user_coupons.redeemed = ?", userID, false).
			Where("coupons.is_active = ? AND coupons.is_deleted = ? AND coupons.ends_at >= ?", true, false, now)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.UserCoupon
	err := scoped().
		Preload("Coupon").
		Order("user_coupons.created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	return rows, total, err
}

func (r *Repository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

// BakeryUserIDs returns every bakery customer id.
func (r *Repository) BakeryUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", enums.UserRoleBakery).
		Pluck("id", &ids).Error
	return ids, err
}

// SegmentUserIDs resolves a customer segment to bakery user ids.
func (r *Repository) SegmentUserIDs(ctx context.Context, segment enums.CustomerSegment, now time.Time) ([]uuid.UUID, error) {
	orders := r.db.Session(&gorm.Session{NewDB: true}).WithContext(ctx).Model(&models.Order{}).Select("user_id")
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", enums.UserRoleBakery)
	switch segment {
	case enums.SegmentHaventPurchased:
		q = q.Where("id NOT IN (?)", orders)
	case enums.SegmentPurchasedOnce:
		q = q.Where("id IN (?)", orders.Group("user_id").Having("COUNT(*) = 1"))
	case enums.SegmentPurchasedMoreThanOnce:
		q = q.Where("id IN (?)", orders.Group("user_id").Having("COUNT(*) > 1"))
	case enums.SegmentRecentPurchased:
		q = q.Where("id IN (?)", orders.Where("created_at >= ?", now.AddDate(0, 0, -30)))
	default:
		return nil, nil
	}
	var ids []uuid.UUID
	err := q.Pluck("id", &ids).Error
	return ids, err
}

// AllVariantIDs lists every catalog variant.
func (r *Repository) AllVariantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.ProductVariant{}).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}

// ExistingVariantIDs keeps the ids that name a catalog variant.
func (r *Repository) ExistingVariantIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.ProductVariant{}).Where("id IN ?", ids).Pluck("id", &out).Error
	return out, err
}

// VariantNames maps variant ids to their display names.
func (r *Repository) VariantNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductVariant
	if err := r.db.WithContext(ctx).Select("id", "variant_name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, v := range rows {
		out[v.ID] = v.VariantName
	}
	return out, nil
}

func (r *Repository) StateNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.State{}).Order("name ASC").Pluck("name", &names).Error
	return names, err
}

// EnsureStates creates the states in names that do not exist yet.
func (r *Repository) EnsureStates(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]models.State, 0, len(names))
	for _, name := range names {
		rows = append(rows, models.State{Name: name})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
}
