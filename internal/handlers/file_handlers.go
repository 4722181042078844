package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wellness-service/internal/services"
)

// FileHandlers serves generated document artifacts
type FileHandlers struct {
	documents *services.DocumentService
}

// NewFileHandlers creates new file handlers
func NewFileHandlers(documents *services.DocumentService) *FileHandlers {
	return &FileHandlers{documents: documents}
}

// Download streams a stored artifact. The path is restricted to the
// known artifact prefixes so arbitrary storage keys cannot be read.
func (h *FileHandlers) Download(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")
	if !validArtifactPath(name) {
		ErrorResponse(c, http.StatusBadRequest, "Invalid file path", nil)
		return
	}

	data, err := h.documents.Fetch(c.Request.Context(), name)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

func validArtifactPath(name string) bool {
	if strings.Contains(name, "..") {
		return false
	}
	for _, prefix := range []string{"estimates/", "contracts/", "bills/", "appointments/", "receipts/"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
