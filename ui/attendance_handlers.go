package ui

import (
	"fmt"
	"net/http"
	"strconv"

	"goattend/app"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleAttendance(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	views, err := s.reports.AttendanceRecords(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list attendance: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.APIRows(views))
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.reports.DashboardStats(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to compute dashboard stats: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleFilteredStats(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := s.reports.FilteredStats(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("failed to compute filtered stats: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCourses(c *gin.Context) {
	courses, err := s.reports.Courses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (s *Server) handleExport(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := s.reports.Export(c.Request.Context(), c.Param("format"), filter)
	if err != nil {
		s.logger.Error("export failed: %v", err)
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}

func (s *Server) handleDeleteRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Page not found"})
		return
	}

	deleted, err := s.reports.DeleteRecord(c.Request.Context(), id)
	switch {
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error deleting record"})
	case !deleted:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Record not found"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Record deleted successfully"})
	}
}

func (s *Server) handleClearAll(c *gin.Context) {
	if err := s.reports.ClearAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error clearing data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All data cleared successfully"})
}
