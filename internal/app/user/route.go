package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	users := rg.Group("/users")
	{
		users.GET("", handler.ListUsers)
		users.GET("/me", handler.GetProfile)
		users.GET("/:id", handler.GetUser)
	}
}
