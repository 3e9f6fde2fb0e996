package controllers

import (
	"net/http"

	"github.com/davidcarrera/tradebinder-backend/api/responses"
	"github.com/davidcarrera/tradebinder-backend/internal/listings"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
	"github.com/davidcarrera/tradebinder-backend/pkg/logger"
)

// MyListings returns the caller's public listings as other traders see
// them. Useful for verifying what the sync engine has published.
func MyListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByOwner(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
