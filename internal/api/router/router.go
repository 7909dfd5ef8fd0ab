package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tokenvision/inference-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "inference-api-service",
		})
	})

	datasetHandler := handler.NewDatasetHandler(deps)
	jobHandler := handler.NewJobHandler(deps)
	tokenHandler := handler.NewTokenHandler(deps)

	// API v1 routes; everything below requires a resolved identity
	v1 := r.Group("/api/v1")
	v1.Use(IdentityMiddleware(deps.Ledger, deps.Logger))
	{
		datasets := v1.Group("/datasets")
		{
			datasets.POST("", datasetHandler.CreateDataset)
			datasets.GET("", datasetHandler.ListDatasets)
			datasets.PATCH("/:name", datasetHandler.RenameDataset)
			datasets.DELETE("/:name", datasetHandler.DeleteDataset)
			datasets.POST("/:name/upload", datasetHandler.Upload)
		}

		v1.POST("/inference", jobHandler.SubmitInference)

		jobs := v1.Group("/jobs")
		{
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/:job_id", jobHandler.GetJob)
			jobs.GET("/:job_id/result", jobHandler.GetResult)
		}

		tokens := v1.Group("/tokens")
		{
			tokens.GET("", tokenHandler.GetTokens)
			tokens.POST("/recharge", AdminOnly(), tokenHandler.Recharge)
		}
	}

	return r
}
