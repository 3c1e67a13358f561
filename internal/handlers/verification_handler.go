package handlers

import (
	"context"
	"errors"
	"field-verify/internal/farms"
	"field-verify/internal/gate"
	"field-verify/internal/location"
	"field-verify/internal/models"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Step the client moves to once the GPS check passes.
const nextStep = "photo_capture"

type VerificationHandler struct {
	registry *farms.Registry
	sessions *gate.Sessions
}

func NewVerificationHandler(registry *farms.Registry, sessions *gate.Sessions) *VerificationHandler {
	return &VerificationHandler{registry: registry, sessions: sessions}
}

// checkRequest carries what the device's location services returned.
type checkRequest struct {
	Permission location.Permission `json:"permission"`
	Lat        *float64            `json:"lat"`
	Lon        *float64            `json:"lon"`
	Accuracy   float64             `json:"accuracy"`
}

func (r checkRequest) provider() (location.Provider, error) {
	switch r.Permission {
	case location.PermissionGranted, "":
		if r.Lat == nil || r.Lon == nil {
			return nil, fmt.Errorf("lat and lon are required when permission is granted")
		}
		if *r.Lat < -90 || *r.Lat > 90 || *r.Lon < -180 || *r.Lon > 180 {
			return nil, fmt.Errorf("lat/lon out of range")
		}
		if r.Accuracy < 0 {
			return nil, fmt.Errorf("accuracy must not be negative")
		}
		return location.Reported{
			Permission: location.PermissionGranted,
			Reading: models.Reading{
				Loc:      models.Coordinate{Lat: *r.Lat, Lon: *r.Lon},
				Accuracy: r.Accuracy,
			},
		}, nil
	case location.PermissionDenied, location.PermissionUnavailable:
		return location.Reported{Permission: r.Permission}, nil
	default:
		return nil, fmt.Errorf("unknown permission %q", r.Permission)
	}
}

type attemptView struct {
	Attempt    models.VerificationAttempt `json:"attempt"`
	MayProceed bool                       `json:"may_proceed"`
	Message    string                     `json:"message"`
}

func (h *VerificationHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/verifications/:farmID", h.GetAttempt)
	r.POST("/verifications/:farmID/check", h.Check)
	r.POST("/verifications/:farmID/continue", h.Continue)
	r.DELETE("/verifications/:farmID", h.Discard)
}

func (h *VerificationHandler) Check(c *gin.Context) {
	farm, err := h.registry.Get(c.Param("farmID"))
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	provider, err := req.provider()
	if err != nil {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	g := h.sessions.Open(c.GetString(ctxSessionID), farm)
	attempt, err := g.Check(c.Request.Context(), provider)
	switch {
	case err == nil:
	case errors.Is(err, gate.ErrSuperseded), errors.Is(err, gate.ErrClosed):
		respondError(c, http.StatusConflict, "CHECK_DISCARDED", err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// client went away; nothing to answer
		c.Abort()
		return
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, CreateSuccessResponse(view(attempt)))
}

func (h *VerificationHandler) GetAttempt(c *gin.Context) {
	g, ok := h.sessions.Lookup(c.GetString(ctxSessionID), c.Param("farmID"))
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no verification in progress for this farm")
		return
	}
	attempt, ok := g.Current()
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no location check yet")
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(view(attempt)))
}

func (h *VerificationHandler) Continue(c *gin.Context) {
	g, ok := h.sessions.Lookup(c.GetString(ctxSessionID), c.Param("farmID"))
	if !ok || !g.MayProceed() {
		respondError(c, http.StatusConflict, "GATE_CLOSED", "location check has not passed")
		return
	}
	attempt, _ := g.Current()
	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{
		"attempt_id": attempt.ID,
		"next_step":  nextStep,
	}))
}

func (h *VerificationHandler) Discard(c *gin.Context) {
	h.sessions.Discard(c.GetString(ctxSessionID), c.Param("farmID"))
	c.Status(http.StatusNoContent)
}

func view(a models.VerificationAttempt) attemptView {
	v := attemptView{Attempt: a, MayProceed: a.State == models.AttemptOpen}
	switch a.State {
	case models.AttemptOpen:
		v.Message = fmt.Sprintf("Location verified: %.0f m from farm (%s).", a.Result.DistanceMeters, a.Result.Tier)
	case models.AttemptOutOfRange:
		v.Message = fmt.Sprintf("You are %.0f m from the farm; move within %.0f m and retry.",
			a.Result.DistanceMeters, a.Result.ThresholdMeters)
	case models.AttemptLocationUnavailable:
		switch a.Reason {
		case "permission_denied":
			v.Message = "Location permission denied. Enable location access or go back."
		case "low_accuracy":
			v.Message = "Location reading is not precise enough. Move to open sky and retry."
		default:
			v.Message = "Location is unavailable on this device. Go back and try again later."
		}
	}
	return v
}
