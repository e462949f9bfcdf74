package handler

import (
	"errors"
	"net/http"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/service"
	"github.com/gin-gonic/gin"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrNotParticipant, http.StatusNotFound},
	{service.ErrInviteInvalid, http.StatusNotFound},
	{service.ErrInviteExpired, http.StatusGone},
	{service.ErrNotInitiator, http.StatusForbidden},
	{service.ErrMaxParticipants, http.StatusConflict},
	{service.ErrAlreadyInitiator, http.StatusConflict},
	{service.ErrInitiatorExists, http.StatusConflict},
	{service.ErrSessionNotActive, http.StatusConflict},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrStageConflict, http.StatusConflict},
	{service.ErrNotCollaborative, http.StatusConflict},
	{service.ErrInvalidMode, http.StatusBadRequest},
	{service.ErrInvalidProfile, http.StatusBadRequest},
	{service.ErrInvalidInviteTTL, http.StatusBadRequest},
	{service.ErrEmptyUtterance, http.StatusBadRequest},
	{service.ErrUnsupportedProvider, http.StatusBadRequest},
	{service.ErrGenerationFailed, http.StatusBadGateway},
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the mapped status. Unexpected errors are not echoed to the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		msg = "internal server error"
	case errors.Is(err, service.ErrGenerationFailed):
		msg = service.ErrGenerationFailed.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}
