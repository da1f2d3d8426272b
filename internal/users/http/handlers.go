package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/friendpin/friendpin-backend/internal/users/domain"
)

// ListUsers returns every user record
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser returns one user record
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

// AddFriend adds the friend_id query parameter to the user's friends
func (h *Handler) AddFriend(c *gin.Context) {
	friendID, ok := c.GetQuery("friend_id")
	if !ok || strings.TrimSpace(friendID) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "friend_id query parameter is required"})
		return
	}

	if err := h.friends.AddFriend(c.Request.Context(), c.Param("id"), friendID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend added successfully"})
}

// ListFriends returns the user's friend ids
func (h *Handler) ListFriends(c *gin.Context) {
	friends, err := h.friends.ListFriends(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// RemoveFriend removes friend_id from the user's friends
func (h *Handler) RemoveFriend(c *gin.Context) {
	if err := h.friends.RemoveFriend(c.Request.Context(), c.Param("id"), c.Param("friend_id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend deleted successfully"})
}

// GoTo sets the user's destination and registers them as an incoming friend
func (h *Handler) GoTo(c *gin.Context) {
	var req destinationRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	if err := h.visits.GoTo(c.Request.Context(), c.Param("id"), *req.DestinationUserID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Destination and comming friends updated successfully"})
}

// Cancel clears the user's destination
func (h *Handler) Cancel(c *gin.Context) {
	var req cancelRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	if err := h.visits.Cancel(c.Request.Context(), c.Param("id"), *req.FriendID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Trip cancelled successfully"})
}

// GetDestination returns the user's current destination
func (h *Handler) GetDestination(c *gin.Context) {
	dest, err := h.users.Destination(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"destination_user_id": dest})
}

// ComingFriends returns the users currently heading to this user
func (h *Handler) ComingFriends(c *gin.Context) {
	incoming, err := h.users.ComingFriends(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comming_friends": incoming})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var writeErr *domain.StoreWriteError
	switch {
	case errors.As(err, &writeErr):
		c.JSON(http.StatusInternalServerError, gin.H{"detail": writeErr.Error()})
	case errors.Is(err, domain.ErrFriendNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Friend not found"})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
	case errors.Is(err, domain.ErrNoDestination):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Destination not set"})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}
