package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecraft/coursecraft-backend/internal/requestdata"
)

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no authenticated user"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

// generateRequest is the optional body of the generation endpoints.
// An absent body or {"update": false} asks for the idempotent path;
// {"update": true} asks for a destructive regeneration.
type generateRequest struct {
	Update bool `json:"update"`
}

func parseGenerateRequest(c *gin.Context) (generateRequest, bool) {
	var req generateRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "validation", fmt.Errorf("invalid request body"))
			return req, false
		}
	}
	return req, true
}
