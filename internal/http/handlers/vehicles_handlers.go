package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"fleetwatch/internal/http/middleware"
	"fleetwatch/internal/models"
	"fleetwatch/internal/service"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,64}$`)

// NewVehiclesListHandler handles GET /api/vehicles: the caller's vehicles,
// newest first, each with its latest reading or null.
func NewVehiclesListHandler(svc *service.VehicleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		vehicles, err := svc.ListWithLatest(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch vehicles")
			return
		}

		writeJSON(w, http.StatusOK, vehicles)
	}
}

// NewVehicleCreateHandler handles POST /api/vehicles.
func NewVehicleCreateHandler(svc *service.VehicleService) http.HandlerFunc {
	type request struct {
		Name              string  `json:"name"`
		VehicleIdentifier string  `json:"vehicleIdentifier"`
		Description       *string `json:"description"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if len(req.Name) < 2 || len(req.Name) > 150 {
			writeError(w, http.StatusBadRequest, "name must be 2-150 characters")
			return
		}
		if !identifierPattern.MatchString(req.VehicleIdentifier) {
			writeError(w, http.StatusBadRequest, "vehicleIdentifier must be 4-64 characters of A-Z, a-z, 0-9, _ or -")
			return
		}
		if req.Description != nil {
			desc := strings.TrimSpace(*req.Description)
			if len(desc) > 255 {
				writeError(w, http.StatusBadRequest, "description must be at most 255 characters")
				return
			}
			if desc == "" {
				req.Description = nil
			} else {
				req.Description = &desc
			}
		}

		vehicle := &models.Vehicle{
			UserID:      userID,
			Name:        req.Name,
			Identifier:  req.VehicleIdentifier,
			Description: req.Description,
		}

		if err := svc.Create(r.Context(), vehicle); err != nil {
			if errors.Is(err, service.ErrIdentifierInUse) {
				writeError(w, http.StatusConflict, "vehicle identifier already in use")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to create vehicle")
			return
		}

		writeJSON(w, http.StatusCreated, vehicle)
	}
}

// NewVehicleHistoryHandler handles GET /api/vehicles/{vehicleID}/data.
func NewVehicleHistoryHandler(svc *service.VehicleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		vehicleID, err := strconv.ParseInt(r.PathValue("vehicleID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid vehicle id")
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
		}

		readings, err := svc.History(r.Context(), userID, vehicleID, limit)
		if err != nil {
			if errors.Is(err, service.ErrVehicleNotFound) {
				writeError(w, http.StatusNotFound, "vehicle not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to fetch telemetry")
			return
		}
		if readings == nil {
			readings = []models.Reading{}
		}

		writeJSON(w, http.StatusOK, readings)
	}
}
