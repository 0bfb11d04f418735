package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecraft/coursecraft-backend/internal/services"
)

type ChapterHandler struct {
	generationService services.GenerationService
	chapterService    services.ChapterService
}

func NewChapterHandler(generationService services.GenerationService, chapterService services.ChapterService) *ChapterHandler {
	return &ChapterHandler{generationService: generationService, chapterService: chapterService}
}

func chapterPath(c *gin.Context) (courseID, subjectID uuid.UUID, ok bool) {
	if courseID, ok = parseUUIDParam(c, "courseID"); !ok {
		return
	}
	subjectID, ok = parseUUIDParam(c, "subjectID")
	return
}

func (ch *ChapterHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, ok := chapterPath(c)
	if !ok {
		return
	}
	req, ok := parseGenerateRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var err error
	var chapters any
	if req.Update {
		chapters, err = ch.generationService.RegenerateChapters(ctx, userID, courseID, subjectID)
	} else {
		chapters, err = ch.generationService.EnsureChapters(ctx, userID, courseID, subjectID)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, chapters)
}

func (ch *ChapterHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, ok := chapterPath(c)
	if !ok {
		return
	}
	chapters, err := ch.generationService.EnsureChapters(c.Request.Context(), userID, courseID, subjectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, chapters)
}

func (ch *ChapterHandler) CreateManual(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, ok := chapterPath(c)
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
	chapter, err := ch.chapterService.CreateManual(c.Request.Context(), userID, courseID, subjectID, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, chapter)
}

func (ch *ChapterHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, ok := chapterPath(c)
	if !ok {
		return
	}
	chapterID, ok := parseUUIDParam(c, "chapterID")
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	chapter, err := ch.chapterService.Update(c.Request.Context(), userID, courseID, subjectID, chapterID, fields)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, chapter)
}

func (ch *ChapterHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, ok := chapterPath(c)
	if !ok {
		return
	}
	chapterID, ok := parseUUIDParam(c, "chapterID")
	if !ok {
		return
	}
	if err := ch.chapterService.Delete(c.Request.Context(), userID, courseID, subjectID, chapterID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
