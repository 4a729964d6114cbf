package controllers

import (
	"net/http"

	"github.com/himalayan-naturals/storefront-backend/api/middleware"
	"github.com/himalayan-naturals/storefront-backend/api/responses"
	"github.com/himalayan-naturals/storefront-backend/api/validators"
	"github.com/himalayan-naturals/storefront-backend/internal/referrals"
	"github.com/himalayan-naturals/storefront-backend/internal/users"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
)

type referralSummary struct {
	Code     string                  `json:"code"`
	Referred []users.ReferredUserDTO `json:"referred"`
}

type applyReferralRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

// ReferralSummary returns the caller's code (minting one if missing) and the
// users who signed up with it.
func ReferralSummary(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}

		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.EnsureCode(r.Context(), claims.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		referred, err := svc.ListReferred(r.Context(), claims.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if referred == nil {
			referred = []users.ReferredUserDTO{}
		}
		responses.WriteSuccess(w, referralSummary{Code: code, Referred: referred})
	}
}

// ReferralApply links the caller to a referrer after signup.
func ReferralApply(svc referrals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "referral service unavailable"))
			return
		}

		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyReferralRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ApplyReferral(r.Context(), claims.UserID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
