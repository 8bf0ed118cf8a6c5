package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"routeflow/internal/api/dto"
	"routeflow/internal/domain"
	"routeflow/internal/platform/obs"
	"routeflow/internal/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request bodies larger than this are rejected.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints where the body may be
// omitted. An empty or whitespace-only body leaves dst untouched, whatever
// Content-Length says (chunked requests report -1).
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	r.Body.Close()
	if err != nil {
		return errors.New("invalid json body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	r.Body = io.NopCloser(bytes.NewReader(raw))
	return decodeJSON(w, r, dst)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// writeServiceError maps service sentinels onto HTTP status codes. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrNoStops),
		errors.Is(err, services.ErrStartRequired),
		errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidStop),
		errors.Is(err, services.ErrInvalidRoute):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateStop):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrAddressNotFound):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		// The client is gone; the status is only for the access log.
		writeError(w, r, 499, "request canceled")
	default:
		log.Error(op+" failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toCoordinates(c *dto.Coordinates) *domain.Coordinates {
	if c == nil {
		return nil
	}
	return &domain.Coordinates{Lat: c.Lat, Lon: c.Lon}
}

func toStopInputs(in []dto.StopRequest) ([]services.StopInput, error) {
	out := make([]services.StopInput, 0, len(in))
	for i, s := range in {
		si, err := toStopInput(s)
		if err != nil {
			return nil, fmt.Errorf("stop #%d: %w", i+1, err)
		}
		out = append(out, si)
	}
	return out, nil
}

func toStopInput(s dto.StopRequest) (services.StopInput, error) {
	si := services.StopInput{ID: s.ID, Address: s.Address, Notes: s.Notes}
	switch {
	case s.Lat != nil && s.Lon != nil:
		si.Location = &domain.Coordinates{Lat: *s.Lat, Lon: *s.Lon}
	case s.Lat != nil || s.Lon != nil:
		return si, errors.New("lat and lon must be given together")
	}
	return si, nil
}

func toStopResponse(s domain.Stop) dto.StopResponse {
	return dto.StopResponse{
		ID:               s.ID,
		Address:          s.Address,
		Lat:              s.Location.Lat,
		Lon:              s.Location.Lon,
		Notes:            s.Notes,
		Status:           string(s.Status),
		SequenceNumber:   s.SequenceNumber,
		EstimatedArrival: s.EstimatedArrival,
		ActualArrival:    s.ActualArrival,
		CompletedAt:      s.CompletedAt,
	}
}

func toStopResponses(stops []domain.Stop) []dto.StopResponse {
	out := make([]dto.StopResponse, 0, len(stops))
	for _, s := range stops {
		out = append(out, toStopResponse(s))
	}
	return out
}

func toRouteResponse(rt *domain.Route) dto.RouteResponse {
	res := dto.RouteResponse{
		ID:                       rt.ID,
		Name:                     rt.Name,
		IsOptimized:              rt.IsOptimized,
		TotalDistanceMeters:      rt.TotalDistanceMeters,
		EstimatedDurationSeconds: rt.EstimatedDurationSeconds,
		CompletedStops:           rt.CompletedStops(),
		Progress:                 rt.Progress(),
		Stops:                    toStopResponses(rt.Stops),
		CreatedAt:                rt.CreatedAt,
		UpdatedAt:                rt.UpdatedAt,
	}
	if rt.Start != nil {
		res.Start = &dto.Coordinates{Lat: rt.Start.Lat, Lon: rt.Start.Lon}
	}
	if next := rt.NextStop(); next != nil {
		id := next.ID
		res.NextStopID = &id
	}
	return res
}
