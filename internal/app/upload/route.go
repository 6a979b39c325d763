package upload

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, public gin.IRoutes, handler *Handler) {
	rg.POST("/upload", handler.Upload)
	public.GET("/download/:file_id/*name", handler.Download)
}
