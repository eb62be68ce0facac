package controllers

import (
	"net/http"

	"github.com/angelmondragon/yardops-backend/api/middleware"
	"github.com/angelmondragon/yardops-backend/api/responses"
	"github.com/angelmondragon/yardops-backend/api/validators"
	"github.com/angelmondragon/yardops-backend/internal/receiving"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

// ReceiveTruck marks a truck received and settles what it carried. Calling
// it again for a received truck returns already_received without changes.
func ReceiveTruck(svc receiving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipmentID, err := validators.ParseUUIDParam(r, "shipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		truckID, err := validators.ParseUUIDParam(r, "truckId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, role := middleware.ActorFromContext(r.Context())
		result, err := svc.ReceiveTruck(r.Context(), receiving.ReceiveTruckInput{
			ShipmentID:  shipmentID,
			TruckID:     truckID,
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
