package websocket

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg gin.IRoutes, handler *WSHandler) {
	rg.GET("/ws", handler.ServeWS)
}
