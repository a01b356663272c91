package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crumbworks/bakery-backend/internal/users"
	"github.com/crumbworks/bakery-backend/pkg/config"
	"github.com/crumbworks/bakery-backend/pkg/db/models"
	"github.com/crumbworks/bakery-backend/pkg/enums"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/crumbworks/bakery-backend/pkg/logger"
	"github.com/crumbworks/bakery-backend/pkg/outbox"
	"github.com/crumbworks/bakery-backend/pkg/outbox/payloads"
	"github.com/crumbworks/bakery-backend/pkg/security"
	"gorm.io/gorm"
)

// RegisterService handles bakery sign-up.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	Tx             txRunner
	Users          *users.Repository
	Outbox         outbox.Emitter
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type registerService struct {
	tx          txRunner
	users       *users.Repository
	outbox      outbox.Emitter
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &registerService{
		tx:          params.Tx,
		users:       params.Users,
		outbox:      params.Outbox,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

// Register creates the bakery user and its profile, and announces the account
// so the coupon worker can hand out the live all-customer coupons.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	bakeryName := strings.TrimSpace(req.BakeryName)
	if bakeryName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bakery_name is required")
	}
	if err := security.CheckStrength(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		user, err := repo.Create(ctx, users.CreateUserDTO{
			Email:         email,
			PasswordHash:  passwordHash,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			ContactNumber: req.ContactNumber,
			Role:          enums.UserRoleBakery,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		bakery := &models.Bakery{UserID: user.ID, Name: bakeryName, ContactNumber: req.ContactNumber}
		if err := repo.CreateBakery(ctx, bakery); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bakery")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: enums.UserRoleBakery.String()},
			Data: payloads.UserRegisteredEvent{
				UserID:    user.ID,
				Email:     user.Email,
				Role:      user.Role,
				BakeryID:  bakery.ID,
				CreatedAt: user.CreatedAt,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit user_registered")
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, created.ID.String()), "auth.registered")
	}
	return users.FromModel(created), nil
}
