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

// ClientHandler manages client testimonials.
type ClientHandler struct {
	store  *site.Store
	images *site.ImageStore
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(store *site.Store, images *site.ImageStore) *ClientHandler {
	return &ClientHandler{store: store, images: images}
}

type clientRequest struct {
	Name        string `form:"name" json:"name"`
	Designation string `form:"designation" json:"designation"`
	Description string `form:"description" json:"description"`
}

// Create adds a client testimonial with an optional image.
func (h *ClientHandler) Create(c *gin.Context) {
	var body clientRequest
	if errBind := c.ShouldBind(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	name := strings.TrimSpace(body.Name)
	designation := strings.TrimSpace(body.Designation)
	description := strings.TrimSpace(body.Description)
	if name == "" || designation == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, designation and description are required"})
		return
	}
	imageURL, errImage := saveImage(c, h.images)
	if errImage != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image upload"})
		return
	}

	client := &models.Client{
		Name:        name,
		Designation: designation,
		Description: description,
		ImageURL:    imageURL,
	}
	if errCreate := h.store.CreateClient(c.Request.Context(), client); errCreate != nil {
		h.images.Remove(imageURL)
		internalhttp.AbortWithError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// Update changes the supplied fields of a client and replaces its image
// when a new one is uploaded.
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	var body clientRequest
	if errBind := c.ShouldBind(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	client, errFind := h.store.GetClient(ctx, id)
	if errFind != nil {
		if errors.Is(errFind, site.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
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
	previous := client.ImageURL
	if imageURL != nil {
		client.ImageURL = imageURL
	}
	client.Name = firstNonEmpty(body.Name, client.Name)
	client.Designation = firstNonEmpty(body.Designation, client.Designation)
	client.Description = firstNonEmpty(body.Description, client.Description)

	if errSave := h.store.SaveClient(ctx, client); errSave != nil {
		h.images.Remove(imageURL)
		internalhttp.AbortWithError(c, errSave)
		return
	}
	if imageURL != nil {
		h.images.Remove(previous)
	}
	c.JSON(http.StatusOK, client)
}

// Delete removes a client and its photo.
func (h *ClientHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}
	client, errDelete := h.store.DeleteClient(c.Request.Context(), id)
	if errDelete != nil {
		if errors.Is(errDelete, site.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		internalhttp.AbortWithError(c, errDelete)
		return
	}
	h.images.Remove(client.ImageURL)
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
}
