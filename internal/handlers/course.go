package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursecraft/coursecraft-backend/internal/services"
)

type CourseHandler struct {
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (ch *CourseHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	course, err := ch.courseService.CreateCourse(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, course)
}

func (ch *CourseHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courses, err := ch.courseService.ListCourses(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, courses)
}

func (ch *CourseHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseUUIDParam(c, "courseID")
	if !ok {
		return
	}
	course, err := ch.courseService.GetCourse(c.Request.Context(), userID, courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, course)
}

func (ch *CourseHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseUUIDParam(c, "courseID")
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	course, err := ch.courseService.UpdateCourse(c.Request.Context(), userID, courseID, fields)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, course)
}

func (ch *CourseHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	courseID, ok := parseUUIDParam(c, "courseID")
	if !ok {
		return
	}
	if err := ch.courseService.DeleteCourse(c.Request.Context(), userID, courseID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
