package message

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	rg.POST("/messages", handler.SendMessage)
	rg.GET("/messages", handler.ListMessages)
	rg.GET("/conversations", handler.ListConversations)
}
