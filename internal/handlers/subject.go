package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursecraft/coursecraft-backend/internal/services"
)

type SubjectHandler struct {
	generationService services.GenerationService
	subjectService    services.SubjectService
}

func NewSubjectHandler(generationService services.GenerationService, subjectService services.SubjectService) *SubjectHandler {
	return &SubjectHandler{generationService: generationService, subjectService: subjectService}
}

// Generate handles POST /courses/:courseID/subjects. Without a body it
// ensures subjects exist, generating them on first call; with
// {"update": true} it regenerates from scratch.
func (sh *SubjectHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseUUIDParam(c, "courseID")
	if !ok {
		return
	}
	req, ok := parseGenerateRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var err error
	var subjects any
	if req.Update {
		subjects, err = sh.generationService.RegenerateSubjects(ctx, userID, courseID)
	} else {
		subjects, err = sh.generationService.EnsureSubjects(ctx, userID, courseID)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, subjects)
}

// Get handles GET /courses/:courseID/subjects. A course that has never
// been populated gets its subjects generated on this first read.
func (sh *SubjectHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseUUIDParam(c, "courseID")
	if !ok {
		return
	}
	subjects, err := sh.generationService.EnsureSubjects(c.Request.Context(), userID, courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, subjects)
}

func (sh *SubjectHandler) CreateManual(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseUUIDParam(c, "courseID")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	subject, err := sh.subjectService.CreateManual(c.Request.Context(), userID, courseID, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, subject)
}

func (sh *SubjectHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseUUIDParam(c, "courseID")
	if !ok {
		return
	}
	subjectID, ok := parseUUIDParam(c, "subjectID")
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	subject, err := sh.subjectService.Update(c.Request.Context(), userID, courseID, subjectID, fields)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, subject)
}

func (sh *SubjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseUUIDParam(c, "courseID")
	if !ok {
		return
	}
	subjectID, ok := parseUUIDParam(c, "subjectID")
	if !ok {
		return
	}
	if err := sh.subjectService.Delete(c.Request.Context(), userID, courseID, subjectID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
