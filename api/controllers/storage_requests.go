package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/yardops-backend/api/middleware"
	"github.com/angelmondragon/yardops-backend/api/responses"
	"github.com/angelmondragon/yardops-backend/api/validators"
	"github.com/angelmondragon/yardops-backend/internal/approvals"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

type storageRequestResponse struct {
	ID              uuid.UUID                  `json:"id"`
	CompanyID       uuid.UUID                  `json:"company_id"`
	ReferenceID     string                     `json:"reference_id"`
	RequiredJoints  int                        `json:"required_joints"`
	StartDate       time.Time                  `json:"start_date"`
	EndDate         time.Time                  `json:"end_date"`
	Status          enums.StorageRequestStatus `json:"status"`
	AssignedRackIDs []uuid.UUID                `json:"assigned_rack_ids"`
	InternalNotes   *string                    `json:"internal_notes,omitempty"`
	ApprovedAt      *time.Time                 `json:"approved_at,omitempty"`
	ApprovedBy      *uuid.UUID                 `json:"approved_by,omitempty"`
	RejectedAt      *time.Time                 `json:"rejected_at,omitempty"`
	RejectionReason *string                    `json:"rejection_reason,omitempty"`
}

func toStorageRequestResponse(req *models.StorageRequest) storageRequestResponse {
	racks := []uuid.UUID(req.AssignedRackIDs)
	if racks == nil {
		racks = []uuid.UUID{}
	}
	return storageRequestResponse{
		ID:              req.ID,
		CompanyID:       req.CompanyID,
		ReferenceID:     req.ReferenceID,
		RequiredJoints:  req.RequiredJoints,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          req.Status,
		AssignedRackIDs: racks,
		InternalNotes:   req.InternalNotes,
		ApprovedAt:      req.ApprovedAt,
		ApprovedBy:      req.ApprovedBy,
		RejectedAt:      req.RejectedAt,
		RejectionReason: req.RejectionReason,
	}
}

type approveRequest struct {
	RackIDs        []uuid.UUID `json:"rack_ids" validate:"required,min=1,max=200,unique"`
	RequiredJoints *int        `json:"required_joints,omitempty" validate:"omitempty,min=1"`
	InternalNotes  *string     `json:"internal_notes,omitempty" validate:"omitempty,max=2000"`
}

type approveResponse struct {
	Request        storageRequestResponse        `json:"storage_request"`
	TotalAvailable decimal.Decimal               `json:"total_available"`
	ByRack         map[uuid.UUID]decimal.Decimal `json:"available_by_rack"`
}

// ApproveStorageRequest certifies capacity on the selected racks and moves
// the request from PENDING to APPROVED.
func ApproveStorageRequest(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body approveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role := middleware.ActorFromContext(r.Context())
		input := approvals.ApproveInput{
			RequestID:   requestID,
			RackIDs:     body.RackIDs,
			ActorUserID: actorID,
			ActorRole:   role,
		}
		if body.RequiredJoints != nil {
			input.RequiredJoints = *body.RequiredJoints
		}
		input.InternalNotes = validators.SanitizeOptional(body.InternalNotes, 2000)

		result, err := svc.Approve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, approveResponse{
			Request:        toStorageRequestResponse(result.Request),
			TotalAvailable: result.Resolution.TotalAvailable,
			ByRack:         result.Resolution.AvailableByRack,
		})
	}
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=1000"`
}

func RejectStorageRequest(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body rejectRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role := middleware.ActorFromContext(r.Context())
		updated, err := svc.Reject(r.Context(), approvals.RejectInput{
			RequestID:   requestID,
			Reason:      validators.SanitizeString(body.Reason, 1000),
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStorageRequestResponse(updated))
	}
}
