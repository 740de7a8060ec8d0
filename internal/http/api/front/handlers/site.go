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

// SiteHandler serves the public landing-page endpoints.
type SiteHandler struct {
	store *site.Store
}

// NewSiteHandler constructs a SiteHandler.
func NewSiteHandler(store *site.Store) *SiteHandler {
	return &SiteHandler{store: store}
}

// publicProject omits bookkeeping timestamps for anonymous visitors.
type publicProject struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

type publicClient struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Designation string  `json:"designation"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

type contactRequest struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	City         string `json:"city"`
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// ListProjects returns all projects, newest first.
func (h *SiteHandler) ListProjects(c *gin.Context) {
	projects, errList := h.store.ListProjects(c.Request.Context())
	if errList != nil {
		internalhttp.AbortWithError(c, errList)
		return
	}
	if _, authenticated := internalhttp.IdentityFromContext(c); authenticated {
		c.JSON(http.StatusOK, projects)
		return
	}
	out := make([]publicProject, 0, len(projects))
	for _, p := range projects {
		out = append(out, publicProject{ID: p.ID, Name: p.Name, Description: p.Description, ImageURL: p.ImageURL})
	}
	c.JSON(http.StatusOK, out)
}

// ListClients returns all client testimonials, newest first.
func (h *SiteHandler) ListClients(c *gin.Context) {
	clients, errList := h.store.ListClients(c.Request.Context())
	if errList != nil {
		internalhttp.AbortWithError(c, errList)
		return
	}
	if _, authenticated := internalhttp.IdentityFromContext(c); authenticated {
		c.JSON(http.StatusOK, clients)
		return
	}
	out := make([]publicClient, 0, len(clients))
	for _, cl := range clients {
		out = append(out, publicClient{
			ID:          cl.ID,
			Name:        cl.Name,
			Designation: cl.Designation,
			Description: cl.Description,
			ImageURL:    cl.ImageURL,
		})
	}
	c.JSON(http.StatusOK, out)
}

// SubmitContact records a contact form submission.
func (h *SiteHandler) SubmitContact(c *gin.Context) {
	var body contactRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	submission := &models.ContactSubmission{
		FullName:     strings.TrimSpace(body.FullName),
		Email:        strings.TrimSpace(body.Email),
		MobileNumber: strings.TrimSpace(body.MobileNumber),
		City:         strings.TrimSpace(body.City),
	}
	if submission.FullName == "" || submission.Email == "" || submission.MobileNumber == "" || submission.City == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	if errCreate := h.store.CreateContact(c.Request.Context(), submission); errCreate != nil {
		internalhttp.AbortWithError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

// Subscribe adds an email to the newsletter.
func (h *SiteHandler) Subscribe(c *gin.Context) {
	var body subscribeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil || strings.TrimSpace(body.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}
	subscription, errSubscribe := h.store.Subscribe(c.Request.Context(), body.Email)
	if errSubscribe != nil {
		if errors.Is(errSubscribe, site.ErrAlreadySubscribed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already subscribed"})
			return
		}
		internalhttp.AbortWithError(c, errSubscribe)
		return
	}
	c.JSON(http.StatusCreated, subscription)
}
