package ui

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"goattend/domain/roster"
	"goattend/internal/errors"

	"github.com/gin-gonic/gin"
)

// parseFilter reads course, threshold, search and exclude_courses from the query string
func parseFilter(c *gin.Context) (roster.AttendanceFilter, error) {
	filter := roster.DefaultFilter()
	filter.CourseCode = strings.TrimSpace(c.Query("course"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.ExcludeCourses = roster.ParseCourseList(c.Query("exclude_courses"))

	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return filter, errors.InvalidInput("threshold must be a number")
		}
		filter.Threshold = v
	}
	return filter, nil
}

// statusFor maps an AppError code to an HTTP status
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput, errors.CodeValidationError, errors.CodeUnsupportedFile, errors.CodeParseError:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the {success:false, error} envelope. Internal failures get a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	c.JSON(status, gin.H{"success": false, "error": msg})
}
