package api

import (
	"net/http"

	"balans/wellbeing-app/internal/service"
	"balans/wellbeing-app/internal/storage"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
	adaptationService service.AdaptationService,
	catalogService service.CatalogService,
	objectStorage storage.ObjectStorage,
) {

	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService)
	adaptationHandler := NewAdaptationHandler(adaptationService)
	catalogHandler := NewCatalogHandler(catalogService, objectStorage)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex()})
		})

		// --- Plan lifecycle ---
		planGroup := protected.Group("/plans")
		{
			planGroup.POST("/flow", planHandler.StartPlanFlow)
			planGroup.POST("/draft", planHandler.ComposeDraft)
			planGroup.GET("/draft", planHandler.GetDraft)
			planGroup.DELETE("/flow", planHandler.AbortPlanFlow)
			planGroup.POST("/finalize", planHandler.FinalizePlan)
			planGroup.GET("/active", planHandler.GetActivePlan)
		}

		// --- Schedule preferences ---
		protected.PUT("/me/time-slots", planHandler.UpdateTimeSlots)

		// --- Adaptations ---
		adaptationGroup := protected.Group("/adaptations")
		{
			adaptationGroup.POST("", adaptationHandler.Apply)
			adaptationGroup.POST("/undo", adaptationHandler.Undo)
			adaptationGroup.GET("/history", adaptationHandler.History)
			adaptationGroup.GET("/analytics/:planId", adaptationHandler.Analytics)
		}

		// --- Content catalog ---
		catalogGroup := protected.Group("/catalog")
		{
			catalogGroup.GET("/exercises", catalogHandler.ListExercises)
			catalogGroup.GET("/exercises/:id", catalogHandler.GetExercise)
			catalogGroup.GET("/exercises/:id/media", catalogHandler.GetMediaURL)
			catalogGroup.POST("/refresh", catalogHandler.Refresh)
		}
	}
}
