package handlers

import (
	"errors"
	"net/http"

	internalhttp "github.com/estatehub/backoffice/internal/http"
	"github.com/estatehub/backoffice/internal/site"
	"github.com/gin-gonic/gin"
)

// InboxHandler exposes contact submissions and newsletter subscribers to admins.
type InboxHandler struct {
	store *site.Store
}

// NewInboxHandler constructs an InboxHandler.
func NewInboxHandler(store *site.Store) *InboxHandler {
	return &InboxHandler{store: store}
}

// ListContacts returns every contact submission, newest first.
func (h *InboxHandler) ListContacts(c *gin.Context) {
	submissions, errList := h.store.ListContacts(c.Request.Context())
	if errList != nil {
		internalhttp.AbortWithError(c, errList)
		return
	}
	c.JSON(http.StatusOK, submissions)
}

// DeleteContact removes a contact submission.
func (h *InboxHandler) DeleteContact(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}
	if errDelete := h.store.DeleteContact(c.Request.Context(), id); errDelete != nil {
		if errors.Is(errDelete, site.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		internalhttp.AbortWithError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Submission deleted"})
}

// ListSubscriptions returns every newsletter subscription, newest first.
func (h *InboxHandler) ListSubscriptions(c *gin.Context) {
	subscriptions, errList := h.store.ListSubscriptions(c.Request.Context())
	if errList != nil {
		internalhttp.AbortWithError(c, errList)
		return
	}
	c.JSON(http.StatusOK, subscriptions)
}

// DeleteSubscription removes a newsletter subscription.
func (h *InboxHandler) DeleteSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	if errDelete := h.store.DeleteSubscription(c.Request.Context(), id); errDelete != nil {
		if errors.Is(errDelete, site.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		internalhttp.AbortWithError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription deleted"})
}
