package coupon

import (
	"context"
	"errors"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignEligible gives a freshly created coupon to the customers it targets.
// Segment assignments start their per-user counter at the coupon's usage count.
func (s *service) assignEligible(ctx context.Context, repo *Repository, c *models.Coupon) (int64, error) {
	var (
		userIDs []uuid.UUID
		seed    int
		err     error
	)
	switch c.CustomerEligibility {
	case enums.EligibilityAllCustomers:
		userIDs, err = repo.BakeryUserIDs(ctx)
	case enums.EligibilitySpecificCustomer:
		userIDs, err = repo.SegmentUserIDs(ctx, c.CustomerSpecification, s.now())
		seed = c.UsageCount
	default:
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	rows := make([]models.UserCoupon, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.UserCoupon{UserID: id, CouponID: c.ID, MaximumUsage: seed})
	}
	return repo.CreateUserCoupons(ctx, rows)
}

// AssignForNewUser hands every live all-customer coupon to a newly registered customer.
func (s *service) AssignForNewUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var assigned int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		coupons, err := repo.ListActiveAllCustomer(ctx, s.now())
		if err != nil {
			return err
		}
		rows := make([]models.UserCoupon, 0, len(coupons))
		for _, c := range coupons {
			rows = append(rows, models.UserCoupon{UserID: userID, CouponID: c.ID})
		}
		assigned, err = repo.CreateUserCoupons(ctx, rows)
		return err
	})
	if err != nil {
		return 0, wrap(err, "assign coupons to user")
	}
	if s.logg != nil && assigned > 0 {
		s.logg.Info(s.logg.WithField(s.logg.WithUserID(ctx, userID.String()), "assigned", assigned), "coupon.assigned_new_user")
	}
	return assigned, nil
}

// Assign gives one coupon to one customer.
func (s *service) Assign(ctx context.Context, couponID, userID uuid.UUID) (*UserCouponDTO, error) {
	var row models.UserCoupon
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindByID(ctx, couponID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgCouponNotFound)
		}
		if err != nil {
			return err
		}
		exists, err := repo.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		assigned, err := repo.UserCouponExists(ctx, userID, couponID)
		if err != nil {
			return err
		}
		if assigned {
			return pkgerrors.New(pkgerrors.CodeValidation, msgAlreadyAssigned)
		}
		row = models.UserCoupon{UserID: userID, CouponID: couponID, MaximumUsage: c.UsageCount}
		_, err = repo.CreateUserCoupons(ctx, []models.UserCoupon{row})
		if err != nil {
			return err
		}
		found, err := repo.FindUserCoupon(ctx, userID, c.Code)
		if err != nil {
			return err
		}
		row = *found
		return nil
	})
	if err != nil {
		return nil, wrap(err, "assign coupon")
	}
	dto := toUserCouponDTO(row)
	return &dto, nil
}
