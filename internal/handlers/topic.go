package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecraft/coursecraft-backend/internal/services"
)

type TopicHandler struct {
	generationService services.GenerationService
	topicService      services.TopicService
}

func NewTopicHandler(generationService services.GenerationService, topicService services.TopicService) *TopicHandler {
	return &TopicHandler{generationService: generationService, topicService: topicService}
}

func topicPath(c *gin.Context) (courseID, subjectID, chapterID uuid.UUID, ok bool) {
	if courseID, ok = parseUUIDParam(c, "courseID"); !ok {
		return
	}
	if subjectID, ok = parseUUIDParam(c, "subjectID"); !ok {
		return
	}
	chapterID, ok = parseUUIDParam(c, "chapterID")
	return
}

func (th *TopicHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, ok := topicPath(c)
	if !ok {
		return
	}
	req, ok := parseGenerateRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var err error
	var topics any
	if req.Update {
		topics, err = th.generationService.RegenerateTopics(ctx, userID, courseID, subjectID, chapterID)
	} else {
		topics, err = th.generationService.EnsureTopics(ctx, userID, courseID, subjectID, chapterID)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, topics)
}

func (th *TopicHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, ok := topicPath(c)
	if !ok {
		return
	}
	topics, err := th.generationService.EnsureTopics(c.Request.Context(), userID, courseID, subjectID, chapterID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, topics)
}

func (th *TopicHandler) CreateManual(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, ok := topicPath(c)
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
	topic, err := th.topicService.CreateManual(c.Request.Context(), userID, courseID, subjectID, chapterID, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, topic)
}

func (th *TopicHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, ok := topicPath(c)
	if !ok {
		return
	}
	topicID, ok := parseUUIDParam(c, "topicID")
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	topic, err := th.topicService.Update(c.Request.Context(), userID, courseID, subjectID, chapterID, topicID, fields)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, topic)
}

func (th *TopicHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, subjectID, chapterID, ok := topicPath(c)
	if !ok {
		return
	}
	topicID, ok := parseUUIDParam(c, "topicID")
	if !ok {
		return
	}
	if err := th.topicService.Delete(c.Request.Context(), userID, courseID, subjectID, chapterID, topicID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
