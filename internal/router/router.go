package router

import (
	"backend/internal/app/auth"
	"backend/internal/app/health"
	"backend/internal/app/message"
	"backend/internal/app/upload"
	"backend/internal/app/user"
	"backend/internal/gateways/websocket"
	"backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	Engine    *gin.Engine
	public    *gin.RouterGroup
	protected *gin.RouterGroup
}

func NewRouter(logger *zap.Logger, tokens *auth.TokenManager) *Router {
	engine := gin.New()
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(gin.Recovery())

	public := engine.Group("/api")
	protected := engine.Group("/api")
	protected.Use(middleware.AuthMiddleware(tokens))

	return &Router{
		Engine:    engine,
		public:    public,
		protected: protected,
	}
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.public, handler)
}

func (r *Router) RegisterAuthRoutes(handler auth.Handler) {
	auth.RegisterRoutes(r.public, handler)
}

func (r *Router) RegisterUserRoutes(handler user.Handler) {
	user.RegisterRoutes(r.protected, handler)
}

func (r *Router) RegisterMessageRoutes(handler message.Handler) {
	message.RegisterRoutes(r.protected, handler)
}

func (r *Router) RegisterUploadRoutes(handler *upload.Handler) {
	upload.RegisterRoutes(r.protected, r.Engine, handler)
}

func (r *Router) RegisterWebSocketRoutes(handler *websocket.WSHandler) {
	websocket.RegisterRoutes(r.Engine, handler)
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}
