package handlers

import (
	"errors"
	"net/http"
	"strings"

	internalhttp "github.com/estatehub/backoffice/internal/http"
	"github.com/estatehub/backoffice/internal/models"
	"github.com/estatehub/backoffice/internal/site"
	"github.com/gin-gonic/gin"
)

// ProjectHandler manages landing-page projects.
type ProjectHandler struct {
	store  *site.Store
	images *site.ImageStore
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(store *site.Store, images *site.ImageStore) *ProjectHandler {
	return &ProjectHandler{store: store, images: images}
}

type projectRequest struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
}

// Create adds a project with an optional image.
func (h *ProjectHandler) Create(c *gin.Context) {
	var body projectRequest
	if errBind := c.ShouldBind(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	name := strings.TrimSpace(body.Name)
	description := strings.TrimSpace(body.Description)
	if name == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and description are required"})
		return
	}
	imageURL, errImage := saveImage(c, h.images)
	if errImage != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image upload"})
		return
	}

	project := &models.Project{Name: name, Description: description, ImageURL: imageURL}
	if errCreate := h.store.CreateProject(c.Request.Context(), project); errCreate != nil {
		h.images.Remove(imageURL)
		internalhttp.AbortWithError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Update changes the supplied fields of a project and replaces its image
// when a new one is uploaded.
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	var body projectRequest
	if errBind := c.ShouldBind(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	project, errFind := h.store.GetProject(ctx, id)
	if errFind != nil {
		if errors.Is(errFind, site.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		internalhttp.AbortWithError(c, errFind)
		return
	}

	imageURL, errImage := saveImage(c, h.images)
	if errImage != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image upload"})
		return
	}
	previous := project.ImageURL
	if imageURL != nil {
		project.ImageURL = imageURL
	}
	project.Name = firstNonEmpty(body.Name, project.Name)
	project.Description = firstNonEmpty(body.Description, project.Description)

	if errSave := h.store.SaveProject(ctx, project); errSave != nil {
		h.images.Remove(imageURL)
		internalhttp.AbortWithError(c, errSave)
		return
	}
	if imageURL != nil {
		h.images.Remove(previous)
	}
	c.JSON(http.StatusOK, project)
}

// Delete removes a project and its image.
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	project, errDelete := h.store.DeleteProject(c.Request.Context(), id)
	if errDelete != nil {
		if errors.Is(errDelete, site.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		internalhttp.AbortWithError(c, errDelete)
		return
	}
	h.images.Remove(project.ImageURL)
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}
