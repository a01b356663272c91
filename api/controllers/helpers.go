package controllers

import (
	"net/http"

	"github.com/crumbworks/bakery-backend/api/middleware"
	"github.com/crumbworks/bakery-backend/internal/cart"
	pkgerrors "github.com/crumbworks/bakery-backend/pkg/errors"
	"github.com/google/uuid"
)

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// cartOwner resolves the cart owner from the authenticated user or the anonymous session.
func cartOwner(r *http.Request) (cart.Owner, error) {
	if middleware.UserIDFromContext(r.Context()) != "" {
		id, err := currentUserID(r)
		if err != nil {
			return cart.Owner{}, err
		}
		return cart.Owner{UserID: &id}, nil
	}
	if session := middleware.CartSessionFromContext(r.Context()); session != "" {
		return cart.Owner{SessionID: session}, nil
	}
	return cart.Owner{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session required")
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}
