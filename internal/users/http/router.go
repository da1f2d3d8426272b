package http

import "github.com/gin-gonic/gin"

// Register registers the user routes
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)

	r.POST("/users/:id/friends", h.AddFriend)
	r.GET("/users/:id/friends", h.ListFriends)
	r.DELETE("/users/:id/friends/:friend_id", h.RemoveFriend)

	r.POST("/users/:id/destination", h.GoTo)
	r.GET("/users/:id/destination", h.GetDestination)
	r.PATCH("/users/:id/cancel", h.Cancel)
	r.GET("/users/:id/comming_friends", h.ComingFriends)
}
