package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crumbworks/bakery-backend/pkg/db/models"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgAddressNotFound = "Address not found."
	msgUnknownState    = "Unknown state."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error)
	SetPrimary(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	// PrimaryState returns the state of the user's primary address, or "" when none is on file.
	PrimaryState(ctx context.Context, userID uuid.UUID) (string, error)
	States(ctx context.Context) ([]string, error)
}

// CreateInput is a validated new address.
type CreateInput struct {
	Line1     string
	Line2     *string
	City      string
	State     string
	ZipCode   string
	IsPrimary bool
}

type service struct {
	tx   txRunner
	repo *Repository
}

func NewService(tx txRunner, repo *Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Address, error) {
	state := strings.TrimSpace(input.State)
	ok, err := s.repo.StateExists(ctx, state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup state")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgUnknownState)
	}

	row := &models.Address{
		UserID:  userID,
		Line1:   strings.TrimSpace(input.Line1),
		Line2:   input.Line2,
		City:    strings.TrimSpace(input.City),
		State:   state,
		ZipCode: strings.TrimSpace(input.ZipCode),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindPrimary(ctx, userID)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, row); err != nil {
			return err
		}
		// the first address becomes primary
		if input.IsPrimary || existing == nil {
			row.IsPrimary = true
			return repo.SetPrimary(ctx, userID, row.ID)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return row, nil
}

func (s *service) SetPrimary(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var row *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindOwned(ctx, userID, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgAddressNotFound)
		}
		if err != nil {
			return err
		}
		if err := repo.SetPrimary(ctx, userID, id); err != nil {
			return err
		}
		found.IsPrimary = true
		row = found
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set primary address")
	}
	return row, nil
}

func (s *service) PrimaryState(ctx context.Context, userID uuid.UUID) (string, error) {
	row, err := s.repo.FindPrimary(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load primary address")
	}
	if row == nil {
		return "", nil
	}
	return row.State, nil
}

func (s *service) States(ctx context.Context) ([]string, error) {
	names, err := s.repo.StateNames(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list states")
	}
	return names, nil
}
