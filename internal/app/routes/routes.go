package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/coursecake/internal/app/controllers"
	"github.com/yigit/coursecake/internal/app/models/dto"
	"github.com/yigit/coursecake/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, catalogController *controllers.CatalogController) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.SuccessResponse{Message: "pong"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	universities := v1.Group("/universities")
	{
		universities.POST("", middleware.ValidateRequest(&dto.CreateUniversityRequest{}), catalogController.CreateUniversity)
		universities.GET("/:name", catalogController.GetUniversity)

		// Searches
		universities.GET("/:name/courses", catalogController.SearchCourses)
		universities.GET("/:name/classes", catalogController.SearchClasses)

		// Scraper uploads, one term at a time
		terms := universities.Group("/:name/terms/:term")
		{
			terms.POST("/courses", middleware.ValidateRequest(&dto.CoursesRequest{}), catalogController.AddCourses)
			terms.PUT("/courses", middleware.ValidateRequest(&dto.CoursesRequest{}), catalogController.MergeCourses)
			terms.PUT("/classes", middleware.ValidateRequest(&dto.ClassesRequest{}), catalogController.MergeClasses)
		}
	}
}
