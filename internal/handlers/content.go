package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecraft/coursecraft-backend/internal/services"
)

type ContentHandler struct {
	generationService services.GenerationService
	contentService    services.ContentService
}

func NewContentHandler(generationService services.GenerationService, contentService services.ContentService) *ContentHandler {
	return &ContentHandler{generationService: generationService, contentService: contentService}
}

func contentPath(c *gin.Context) (courseID, subjectID, chapterID, topicID uuid.UUID, ok bool) {
	if courseID, ok = parseUUIDParam(c, "courseID"); !ok {
		return
	}
	if subjectID, ok = parseUUIDParam(c, "subjectID"); !ok {
		return
	}
	if chapterID, ok = parseUUIDParam(c, "chapterID"); !ok {
		return
	}
	topicID, ok = parseUUIDParam(c, "topicID")
	return
}

func (ch *ContentHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, topicID, ok := contentPath(c)
	if !ok {
		return
	}
	req, ok := parseGenerateRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var err error
	var content any
	if req.Update {
		content, err = ch.generationService.RegenerateContent(ctx, userID, courseID, subjectID, chapterID, topicID)
	} else {
		content, err = ch.generationService.EnsureContent(ctx, userID, courseID, subjectID, chapterID, topicID)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, content)
}

func (ch *ContentHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, topicID, ok := contentPath(c)
	if !ok {
		return
	}
	content, err := ch.generationService.EnsureContent(c.Request.Context(), userID, courseID, subjectID, chapterID, topicID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, content)
}

func (ch *ContentHandler) CreateManual(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, topicID, ok := contentPath(c)
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	content, err := ch.contentService.CreateManual(c.Request.Context(), userID, courseID, subjectID, chapterID, topicID, req.Body)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, content)
}

func (ch *ContentHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, topicID, ok := contentPath(c)
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	content, err := ch.contentService.Update(c.Request.Context(), userID, courseID, subjectID, chapterID, topicID, req.Body)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, content)
}

func (ch *ContentHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, topicID, ok := contentPath(c)
	if !ok {
		return
	}
	if err := ch.contentService.Delete(c.Request.Context(), userID, courseID, subjectID, chapterID, topicID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
