package ui

import (
	stderrors "errors"
	"io"
	"net/http"

	"goattend/app"
	"goattend/internal/errors"

	"github.com/gin-gonic/gin"
)

// handleUpload ingests the multipart field "files"
func (s *Server) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": app.ErrNoFiles.Message})
		return
	}

	headers := form.File["files"]
	files := make([]app.UploadFile, len(headers))
	for i, fh := range headers {
		files[i] = app.UploadFile{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
	}

	outcome, err := s.uploads.ProcessUploads(c.Request.Context(), files)
	if err != nil {
		if errors.GetCode(err) == errors.CodeInvalidInput {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		s.logger.Error("upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "An error occurred while processing the files."})
		return
	}

	if !outcome.Success() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":  false,
			"error":    outcome.Message,
			"batch_id": outcome.BatchID,
			"results":  outcome.Results,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  outcome.Message,
		"batch_id": outcome.BatchID,
		"results":  outcome.Results,
	})
}
