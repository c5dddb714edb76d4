package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Vibe/internal/app/orch"
	"github.com/dkeye/Vibe/internal/core"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/gin-gonic/gin"
)

type SelectRequest struct {
	DeviceID string `json:"device_id"`
}

type ToggleResponse struct {
	Kind    domain.DeviceKind `json:"kind"`
	Enabled bool              `json:"enabled"`
}

type handlers struct {
	orch *orch.Orchestrator
}

func sidOf(c *gin.Context) core.SessionID {
	return core.SessionID(c.GetString("client_token"))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, orch.ErrNoSurface), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrLoopbackActive),
		errors.Is(err, domain.ErrSuperseded),
		errors.Is(err, domain.ErrNoTrack),
		errors.Is(err, domain.ErrNotInitialized):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, err error) {
	code := domain.Code(err)
	if errors.Is(err, orch.ErrNoSurface) {
		code = "no_surface"
	}
	c.JSON(statusOf(err), gin.H{"error": code, "message": err.Error()})
}

func kindParam(c *gin.Context) (domain.DeviceKind, bool) {
	kind, err := domain.ParseDeviceKind(c.Param("kind"))
	if err != nil {
		abort(c, err)
		return "", false
	}
	return kind, true
}

func (h handlers) devices(c *gin.Context) {
	snap, err := h.orch.Devices(c.Request.Context(), sidOf(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h handlers) state(c *gin.Context) {
	st, err := h.orch.State(sidOf(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h handlers) selectDevice(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid device_id"})
		return
	}
	if err := h.orch.Select(c.Request.Context(), sidOf(c), kind, req.DeviceID); err != nil {
		abort(c, err)
		return
	}
	h.state(c)
}

func (h handlers) toggle(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	enabled, err := h.orch.Toggle(sidOf(c), kind)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, ToggleResponse{Kind: kind, Enabled: enabled})
}

func (h handlers) loopback(c *gin.Context) {
	action := orch.LoopbackAction(c.Param("action"))
	if err := h.orch.Loopback(c.Request.Context(), sidOf(c), action); err != nil {
		abort(c, err)
		return
	}
	h.state(c)
}

func (h handlers) speakerMute(c *gin.Context) {
	muted, err := h.orch.ToggleSpeakerMute(sidOf(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"muted": muted})
}
