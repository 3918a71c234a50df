package http

import (
	"github.com/gin-gonic/gin"

	"ragquiz/internal/bootstrap"
	"ragquiz/internal/transport/http/handler"
	"ragquiz/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Logger.Named("http")), gin.Recovery())
	router.MaxMultipartMemory = app.Config.MaxUploadBytes()

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	documentHandler := handler.NewDocumentHandler(app.Documents, app.Config.MaxUploadBytes(), app.Logger.Named("documents"))
	generationHandler := handler.NewGenerationHandler(app.Generations, app.Logger.Named("generation"))

	v1 := router.Group("/api/v1")
	if app.Config.Auth.Enabled {
		v1.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret, app.Logger.Named("auth")))
	}
	v1.POST("/documents", documentHandler.Upload)
	v1.GET("/documents", documentHandler.List)
	v1.DELETE("/documents", documentHandler.Clear)
	v1.POST("/generate", generationHandler.Generate)
	v1.GET("/generations", generationHandler.History)

	return router
}
