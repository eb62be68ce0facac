package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/yardops-backend/api/responses"
	"github.com/angelmondragon/yardops-backend/api/validators"
	"github.com/angelmondragon/yardops-backend/internal/capacity"
	"github.com/angelmondragon/yardops-backend/internal/reservations"
	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

// YardUtilization returns slot and linear utilization across a yard.
func YardUtilization(svc capacity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		yardID, err := validators.ParseUUIDParam(r, "yardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.YardUtilization(r.Context(), yardID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AreaUtilization returns slot and linear utilization across an area.
func AreaUtilization(svc capacity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		areaID, err := validators.ParseUUIDParam(r, "areaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.AreaUtilization(r.Context(), areaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RackFree(svc capacity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rackID, err := validators.ParseUUIDParam(r, "rackId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.RackFree(r.Context(), rackID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type resolveRequest struct {
	RackIDs   []uuid.UUID     `json:"rack_ids" validate:"required,min=1,max=200,unique"`
	StartDate time.Time       `json:"start_date" validate:"required"`
	EndDate   time.Time       `json:"end_date" validate:"required,gtefield=StartDate"`
	Required  decimal.Decimal `json:"required"`
}

type resolveResponse struct {
	*reservations.Resolution
	Shortfall decimal.Decimal `json:"shortfall"`
}

// ResolveCapacity runs the planning query for a candidate rack set. Nothing
// is reserved.
func ResolveCapacity(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body resolveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Required.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "required must not be negative"))
			return
		}

		result, err := svc.Resolve(r.Context(), reservations.ResolveInput{
			RackIDs:  body.RackIDs,
			Window:   reservations.Window{Start: body.StartDate.UTC(), End: body.EndDate.UTC()},
			Required: body.Required,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolveResponse{Resolution: result, Shortfall: result.Shortfall()})
	}
}
