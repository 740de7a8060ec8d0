package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/estatehub/backoffice/internal/auth"
	"github.com/estatehub/backoffice/internal/site"
	"github.com/gin-gonic/gin"
)

// requestMeta captures the client provenance the auth service records.
func requestMeta(c *gin.Context) auth.RequestMeta {
	return auth.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// formImageField is the multipart field carrying an uploaded image.
const formImageField = "image"

// saveImage stores the optional image upload and returns its public URL,
// or nil when the request carries no image.
func saveImage(c *gin.Context, images *site.ImageStore) (*string, error) {
	if images == nil || c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	file, errFile := c.FormFile(formImageField)
	if errFile != nil {
		if errors.Is(errFile, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errFile
	}
	diskPath, publicURL := images.Allocate(file.Filename)
	if errSave := c.SaveUploadedFile(file, diskPath); errSave != nil {
		return nil, errSave
	}
	return &publicURL, nil
}

// firstNonEmpty returns value trimmed, or fallback when value is blank.
func firstNonEmpty(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
