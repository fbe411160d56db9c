package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/coursecake/internal/app/models"
	"github.com/yigit/coursecake/internal/app/models/dto"
	"github.com/yigit/coursecake/internal/app/services"
	"github.com/yigit/coursecake/internal/middleware"
	"github.com/yigit/coursecake/internal/pkg/helpers"
)

// CatalogController serves universities, course searches and scraper uploads
type CatalogController struct {
	catalogService services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

// CreateUniversity registers a university. Registering an existing name again
// returns the stored row.
// @Summary Register a university
// @Tags universities
// @Accept json
// @Produce json
// @Param request body dto.CreateUniversityRequest true "University"
// @Success 201 {object} dto.APIResponse{data=models.University}
// @Failure 400 {object} dto.ErrorResponse
// @Router /universities [post]
func (c *CatalogController) CreateUniversity(ctx *gin.Context) {
	req, ok := middleware.ValidatedBody[dto.CreateUniversityRequest](ctx)
	if !ok {
		badRequest(ctx, "Invalid university data", "missing request body")
		return
	}

	university, err := c.catalogService.AddUniversity(ctx, &models.University{
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(university))
}

// GetUniversity looks a university up by name, ignoring case
// @Summary Get a university
// @Tags universities
// @Produce json
// @Param name path string true "University name"
// @Success 200 {object} dto.APIResponse{data=models.University}
// @Failure 404 {object} dto.ErrorResponse
// @Router /universities/{name} [get]
func (c *CatalogController) GetUniversity(ctx *gin.Context) {
	university, err := c.catalogService.GetUniversity(ctx, ctx.Param("name"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(university))
}

// SearchCourses lists the courses of a university
// @Summary Search courses
// @Description Every query parameter of the form field[operator] is a filter, e.g. title[like]=intro
// @Tags courses
// @Produce json
// @Param name path string true "University name"
// @Param term query string false "Term id"
// @Param limit query int false "Page size, 0 for the maximum"
// @Param offset query int false "Rows to skip"
// @Param with_classes query bool false "Include each course's classes"
// @Success 200 {object} dto.APIResponse{data=[]models.Course}
// @Failure 400 {object} dto.ErrorResponse
// @Router /universities/{name}/courses [get]
func (c *CatalogController) SearchCourses(ctx *gin.Context) {
	req, ok := searchRequest(ctx)
	if !ok {
		return
	}

	withClasses, err := strconv.ParseBool(ctx.DefaultQuery("with_classes", "false"))
	if err != nil {
		badRequest(ctx, "Invalid with_classes parameter", "with_classes must be a boolean")
		return
	}
	req.WithClasses = withClasses

	courses, err := c.catalogService.SearchCourses(ctx, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, courses, req, len(courses))
}

// SearchClasses lists the classes of a university
// @Summary Search classes
// @Description Every query parameter of the form field[operator] is a filter, e.g. status[equals]=OPEN
// @Tags classes
// @Produce json
// @Param name path string true "University name"
// @Param term query string false "Term id"
// @Param limit query int false "Page size, 0 for the maximum"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} dto.APIResponse{data=[]models.CourseClass}
// @Failure 400 {object} dto.ErrorResponse
// @Router /universities/{name}/classes [get]
func (c *CatalogController) SearchClasses(ctx *gin.Context) {
	req, ok := searchRequest(ctx)
	if !ok {
		return
	}

	classes, err := c.catalogService.SearchClasses(ctx, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, classes, req, len(classes))
}

// AddCourses bulk inserts the scraped courses of a term
// @Summary Bulk add courses
// @Tags ingest
// @Accept json
// @Produce json
// @Param name path string true "University name"
// @Param term path string true "Term id"
// @Param request body dto.CoursesRequest true "Courses with classes"
// @Success 201 {object} dto.APIResponse{data=dto.WriteResult}
// @Failure 409 {object} dto.ErrorResponse "A course already exists"
// @Router /universities/{name}/terms/{term}/courses [post]
func (c *CatalogController) AddCourses(ctx *gin.Context) {
	req, ok := middleware.ValidatedBody[dto.CoursesRequest](ctx)
	if !ok {
		badRequest(ctx, "Invalid course data", "missing request body")
		return
	}

	university, term := ctx.Param("name"), ctx.Param("term")
	if err := c.catalogService.BulkAddCourses(ctx, university, term, req.Courses); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(coursesResult(university, term, req.Courses)))
}

// MergeCourses upserts the scraped courses of a term
// @Summary Bulk merge courses
// @Tags ingest
// @Accept json
// @Produce json
// @Param name path string true "University name"
// @Param term path string true "Term id"
// @Param request body dto.CoursesRequest true "Courses with classes"
// @Success 200 {object} dto.APIResponse{data=dto.WriteResult}
// @Router /universities/{name}/terms/{term}/courses [put]
func (c *CatalogController) MergeCourses(ctx *gin.Context) {
	req, ok := middleware.ValidatedBody[dto.CoursesRequest](ctx)
	if !ok {
		badRequest(ctx, "Invalid course data", "missing request body")
		return
	}

	university, term := ctx.Param("name"), ctx.Param("term")
	if err := c.catalogService.BulkMergeCourses(ctx, university, term, req.Courses); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(coursesResult(university, term, req.Courses)))
}

// MergeClasses upserts scraped classes under their existing courses
// @Summary Bulk merge classes
// @Tags ingest
// @Accept json
// @Produce json
// @Param name path string true "University name"
// @Param term path string true "Term id"
// @Param request body dto.ClassesRequest true "Classes routed by course_id"
// @Success 200 {object} dto.APIResponse{data=dto.WriteResult}
// @Failure 404 {object} dto.ErrorResponse "A parent course does not exist"
// @Router /universities/{name}/terms/{term}/classes [put]
func (c *CatalogController) MergeClasses(ctx *gin.Context) {
	req, ok := middleware.ValidatedBody[dto.ClassesRequest](ctx)
	if !ok {
		badRequest(ctx, "Invalid class data", "missing request body")
		return
	}

	university, term := ctx.Param("name"), ctx.Param("term")
	if err := c.catalogService.BulkMergeClasses(ctx, university, term, req.Classes); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.WriteResult{
		University: university,
		TermID:     term,
		Classes:    len(req.Classes),
	}))
}

// searchRequest collects scope, pagination and filter keys from the query string.
// It writes the error response itself and reports false on bad input.
func searchRequest(ctx *gin.Context) (services.SearchRequest, bool) {
	limit, offset, err := helpers.ParsePaginationParams(ctx)
	if err != nil {
		badRequest(ctx, "Invalid pagination parameters", err.Error())
		return services.SearchRequest{}, false
	}

	filters := make(map[string]string)
	for key, values := range ctx.Request.URL.Query() {
		if !strings.Contains(key, "[") || len(values) == 0 {
			continue
		}
		if len(values) > 1 {
			badRequest(ctx, "Invalid filter", "filter "+key+" may only be given once")
			return services.SearchRequest{}, false
		}
		filters[key] = values[0]
	}

	return services.SearchRequest{
		University: ctx.Param("name"),
		TermID:     ctx.Query("term"),
		Filters:    filters,
		Limit:      limit,
		Offset:     offset,
	}, true
}

func respondPage(ctx *gin.Context, data interface{}, req services.SearchRequest, count int) {
	pagination := helpers.NewPaginationInfo(req.Limit, req.Offset, count)
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Success:    true,
		Data:       data,
		Pagination: &pagination,
		Timestamp:  time.Now(),
	})
}

func coursesResult(university, term string, courses []*models.Course) dto.WriteResult {
	classes := 0
	for _, course := range courses {
		classes += len(course.Classes)
	}
	return dto.WriteResult{
		University: university,
		TermID:     term,
		Courses:    len(courses),
		Classes:    classes,
	}
}

func badRequest(ctx *gin.Context, message, details string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message)
	errorDetail = errorDetail.WithDetails(details)
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}
