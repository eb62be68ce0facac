package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/api/middleware"
	"github.com/angelmondragon/yardops-backend/internal/approvals"
	"github.com/angelmondragon/yardops-backend/internal/calendar"
	"github.com/angelmondragon/yardops-backend/internal/receiving"
	"github.com/angelmondragon/yardops-backend/internal/reservations"
	"github.com/angelmondragon/yardops-backend/pkg/config"
	"github.com/angelmondragon/yardops-backend/pkg/db/models"
	"github.com/angelmondragon/yardops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/yardops-backend/pkg/errors"
	"github.com/angelmondragon/yardops-backend/pkg/types"
)

type stubApprovals struct {
	approveInput approvals.ApproveInput
	rejectInput  approvals.RejectInput
	result       *approvals.ApprovalResult
	rejected     *models.StorageRequest
	err          error
}

func (s *stubApprovals) Approve(_ context.Context, input approvals.ApproveInput) (*approvals.ApprovalResult, error) {
	s.approveInput = input
	return s.result, s.err
}

func (s *stubApprovals) Reject(_ context.Context, input approvals.RejectInput) (*models.StorageRequest, error) {
	s.rejectInput = input
	return s.rejected, s.err
}

type stubResolver struct {
	input  reservations.ResolveInput
	result *reservations.Resolution
}

func (s *stubResolver) Resolve(_ context.Context, input reservations.ResolveInput) (*reservations.Resolution, error) {
	s.input = input
	return s.result, nil
}

func (s *stubResolver) ResolveForUpdate(ctx context.Context, _ *gorm.DB, input reservations.ResolveInput) (*reservations.Resolution, error) {
	return s.Resolve(ctx, input)
}

type stubReceiving struct {
	input  receiving.ReceiveTruckInput
	result *receiving.ReceiveResult
	err    error
}

func (s *stubReceiving) ReceiveTruck(_ context.Context, input receiving.ReceiveTruckInput) (*receiving.ReceiveResult, error) {
	s.input = input
	return s.result, s.err
}

func (s *stubReceiving) ReconcileShipment(context.Context, uuid.UUID) (*receiving.ReconcileResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubReceiving) ListShipmentsNeedingSettlement(context.Context, time.Time, int) ([]uuid.UUID, error) {
	return nil, nil
}

type stubCalendar struct {
	appt *models.DockAppointment
	err  error
}

func (s *stubCalendar) SyncAppointment(context.Context, calendar.SyncInput) (*models.DockAppointment, error) {
	return s.appt, s.err
}

func (s *stubCalendar) ListPendingSync(context.Context, int) ([]uuid.UUID, error) {
	return nil, nil
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func operatorRequest(method, target string, body any, params map[string]string) (*http.Request, uuid.UUID) {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	req := httptest.NewRequest(method, target, &payload)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	actor := uuid.New()
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithUserID(ctx, actor.String())
	ctx = middleware.WithRole(ctx, enums.OperatorRoleYard)
	return req.WithContext(ctx), actor
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Error
}

func TestApproveStorageRequestPassesActorAndOverrides(t *testing.T) {
	requestID := uuid.New()
	rackID := uuid.New()
	svc := &stubApprovals{result: &approvals.ApprovalResult{
		Request: &models.StorageRequest{ID: requestID, Status: enums.StorageRequestStatusApproved},
		Resolution: &reservations.Resolution{
			AvailableByRack: map[uuid.UUID]decimal.Decimal{rackID: decimal.NewFromInt(80)},
			TotalAvailable:  decimal.NewFromInt(80),
			Required:        decimal.NewFromInt(50),
			Sufficient:      true,
		},
	}}

	req, actor := operatorRequest(http.MethodPost, "/", map[string]any{
		"rack_ids":        []string{rackID.String()},
		"required_joints": 50,
		"internal_notes":  "  north row  ",
	}, map[string]string{"requestId": requestID.String()})
	resp := httptest.NewRecorder()
	ApproveStorageRequest(svc, nil)(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, requestID, svc.approveInput.RequestID)
	require.Equal(t, []uuid.UUID{rackID}, svc.approveInput.RackIDs)
	require.Equal(t, 50, svc.approveInput.RequiredJoints)
	require.NotNil(t, svc.approveInput.InternalNotes)
	require.Equal(t, "north row", *svc.approveInput.InternalNotes)
	require.Equal(t, actor, svc.approveInput.ActorUserID)
	require.Equal(t, enums.OperatorRoleYard, svc.approveInput.ActorRole)

	var body struct {
		Data struct {
			Request struct {
				Status string `json:"status"`
			} `json:"storage_request"`
			TotalAvailable string `json:"total_available"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, string(enums.StorageRequestStatusApproved), body.Data.Request.Status)
	require.Equal(t, "80", body.Data.TotalAvailable)
}

func TestApproveStorageRequestInsufficientCapacity(t *testing.T) {
	svc := &stubApprovals{err: pkgerrors.New(pkgerrors.CodeInsufficientCapacity, "selected racks cannot hold the request")}
	req, _ := operatorRequest(http.MethodPost, "/", map[string]any{
		"rack_ids": []string{uuid.NewString()},
	}, map[string]string{"requestId": uuid.NewString()})
	resp := httptest.NewRecorder()
	ApproveStorageRequest(svc, nil)(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)
	apiErr := decodeError(t, resp)
	require.Equal(t, string(pkgerrors.CodeInsufficientCapacity), apiErr.Code)
	require.Equal(t, "selected racks cannot hold the request", apiErr.Message)
}

func TestApproveStorageRequestRequiresRacks(t *testing.T) {
	svc := &stubApprovals{}
	req, _ := operatorRequest(http.MethodPost, "/", map[string]any{
		"rack_ids": []string{},
	}, map[string]string{"requestId": uuid.NewString()})
	resp := httptest.NewRecorder()
	ApproveStorageRequest(svc, nil)(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, uuid.Nil, svc.approveInput.RequestID)
}

func TestApproveStorageRequestRejectsBadPathParam(t *testing.T) {
	req, _ := operatorRequest(http.MethodPost, "/", map[string]any{
		"rack_ids": []string{uuid.NewString()},
	}, map[string]string{"requestId": "not-a-uuid"})
	resp := httptest.NewRecorder()
	ApproveStorageRequest(&stubApprovals{}, nil)(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRejectStorageRequestRequiresReason(t *testing.T) {
	svc := &stubApprovals{}
	req, _ := operatorRequest(http.MethodPost, "/", map[string]any{
		"reason": "   ",
	}, map[string]string{"requestId": uuid.NewString()})
	resp := httptest.NewRecorder()
	RejectStorageRequest(svc, nil)(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	apiErr := decodeError(t, resp)
	require.Equal(t, string(pkgerrors.CodeValidation), apiErr.Code)
	require.Empty(t, svc.rejectInput.Reason)
}

func TestRejectStorageRequestSuccess(t *testing.T) {
	requestID := uuid.New()
	reason := "yard full for the season"
	svc := &stubApprovals{rejected: &models.StorageRequest{
		ID:              requestID,
		Status:          enums.StorageRequestStatusRejected,
		RejectionReason: &reason,
	}}
	req, _ := operatorRequest(http.MethodPost, "/", map[string]any{
		"reason": reason,
	}, map[string]string{"requestId": requestID.String()})
	resp := httptest.NewRecorder()
	RejectStorageRequest(svc, nil)(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, reason, svc.rejectInput.Reason)
	require.Contains(t, resp.Body.String(), `"assigned_rack_ids":[]`)
}

func TestReceiveTruckReadsBothParams(t *testing.T) {
	shipmentID := uuid.New()
	truckID := uuid.New()
	svc := &stubReceiving{result: &receiving.ReceiveResult{ShipmentID: shipmentID, TruckID: truckID, AlreadyReceived: true}}
	req, actor := operatorRequest(http.MethodPost, "/", nil, map[string]string{
		"shipmentId": shipmentID.String(),
		"truckId":    truckID.String(),
	})
	resp := httptest.NewRecorder()
	ReceiveTruck(svc, nil)(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, shipmentID, svc.input.ShipmentID)
	require.Equal(t, truckID, svc.input.TruckID)
	require.Equal(t, actor, svc.input.ActorUserID)
	require.Contains(t, resp.Body.String(), `"already_received":true`)
}

func TestReceiveTruckStateConflict(t *testing.T) {
	svc := &stubReceiving{err: pkgerrors.New(pkgerrors.CodeStateConflict, "rack capacity exceeded")}
	req, _ := operatorRequest(http.MethodPost, "/", nil, map[string]string{
		"shipmentId": uuid.NewString(),
		"truckId":    uuid.NewString(),
	})
	resp := httptest.NewRecorder()
	ReceiveTruck(svc, nil)(resp, req)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	require.Equal(t, string(pkgerrors.CodeStateConflict), decodeError(t, resp).Code)
}

func TestSyncAppointmentCalendarNotScheduled(t *testing.T) {
	svc := &stubCalendar{err: pkgerrors.New(pkgerrors.CodeNotScheduled, "appointment has no slot")}
	req, _ := operatorRequest(http.MethodPost, "/", nil, map[string]string{"appointmentId": uuid.NewString()})
	resp := httptest.NewRecorder()
	SyncAppointmentCalendar(svc, nil)(resp, req)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	require.Equal(t, "appointment has no slot", decodeError(t, resp).Message)
}

func TestSyncAppointmentCalendarReturnsNullReminders(t *testing.T) {
	start := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	eventID := "evt-1"
	svc := &stubCalendar{appt: &models.DockAppointment{
		ID:                 uuid.New(),
		Status:             enums.AppointmentStatusConfirmed,
		CalendarSyncStatus: enums.CalendarSyncStatusSynced,
		CalendarEventID:    &eventID,
		SlotStart:          &start,
	}}
	req, _ := operatorRequest(http.MethodPost, "/", nil, map[string]string{"appointmentId": uuid.NewString()})
	resp := httptest.NewRecorder()
	SyncAppointmentCalendar(svc, nil)(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"reminder_24h_at":null`)
	require.Contains(t, resp.Body.String(), `"calendar_event_id":"evt-1"`)
}

func TestResolveCapacityReportsShortfall(t *testing.T) {
	rackID := uuid.New()
	svc := &stubResolver{result: &reservations.Resolution{
		AvailableByRack: map[uuid.UUID]decimal.Decimal{rackID: decimal.NewFromInt(30)},
		TotalAvailable:  decimal.NewFromInt(30),
		Required:        decimal.NewFromInt(50),
		Sufficient:      false,
	}}
	req, _ := operatorRequest(http.MethodPost, "/", map[string]any{
		"rack_ids":   []string{rackID.String()},
		"start_date": "2026-04-01T00:00:00Z",
		"end_date":   "2026-04-30T00:00:00Z",
		"required":   "50",
	}, nil)
	resp := httptest.NewRecorder()
	ResolveCapacity(svc, nil)(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, svc.input.Required.Equal(decimal.NewFromInt(50)))
	require.Contains(t, resp.Body.String(), `"shortfall":"20"`)
}

func TestResolveCapacityRejectsInvertedWindow(t *testing.T) {
	req, _ := operatorRequest(http.MethodPost, "/", map[string]any{
		"rack_ids":   []string{uuid.NewString()},
		"start_date": "2026-04-30T00:00:00Z",
		"end_date":   "2026-04-01T00:00:00Z",
		"required":   "5",
	}, nil)
	resp := httptest.NewRecorder()
	ResolveCapacity(&stubResolver{}, nil)(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	handler := HealthReady(cfg, nil, map[string]Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("connection refused")},
	})

	resp := httptest.NewRecorder()
	handler(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	apiErr := decodeError(t, resp)
	require.Equal(t, string(pkgerrors.CodeDependency), apiErr.Code)
}

func TestHealthReadyOK(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	handler := HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}})

	resp := httptest.NewRecorder()
	handler(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"db":"ok"`)
}
