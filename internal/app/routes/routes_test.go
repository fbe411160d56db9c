package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/coursecake/internal/app/controllers"
	"github.com/yigit/coursecake/internal/app/filters"
	"github.com/yigit/coursecake/internal/app/models"
	"github.com/yigit/coursecake/internal/app/services"
	"github.com/yigit/coursecake/internal/middleware"
	"github.com/yigit/coursecake/internal/pkg/apperrors"
	"github.com/yigit/coursecake/internal/pkg/helpers"
)

type fakeCatalog struct {
	lastSearch services.SearchRequest
	university string
	term       string
	courses    []*models.Course
	classes    []*models.CourseClass
	err        error
}

func (f *fakeCatalog) AddUniversity(_ context.Context, u *models.University) (*models.University, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.University{ID: 1, Name: u.Name, Metadata: u.Metadata}, nil
}

func (f *fakeCatalog) GetUniversity(_ context.Context, name string) (*models.University, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.University{ID: 1, Name: name}, nil
}

func (f *fakeCatalog) AddCourse(context.Context, string, string, *models.Course) error {
	return f.err
}

func (f *fakeCatalog) AddClass(context.Context, string, string, *models.CourseClass) error {
	return f.err
}

func (f *fakeCatalog) BulkAddCourses(_ context.Context, university, term string, courses []*models.Course) error {
	f.university, f.term, f.courses = university, term, courses
	return f.err
}

func (f *fakeCatalog) BulkMergeCourses(_ context.Context, university, term string, courses []*models.Course) error {
	f.university, f.term, f.courses = university, term, courses
	return f.err
}

func (f *fakeCatalog) BulkMergeClasses(_ context.Context, university, term string, classes []*models.CourseClass) error {
	f.university, f.term, f.classes = university, term, classes
	return f.err
}

// SearchCourses compiles the filters like the real service so filter errors surface
func (f *fakeCatalog) SearchCourses(_ context.Context, req services.SearchRequest) ([]*models.Course, error) {
	f.lastSearch = req
	if _, err := filters.Compile(filters.CourseSchema, req.Filters); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Course{{ID: 1, CourseID: "ICS 31", Title: "intro to programming"}}, nil
}

func (f *fakeCatalog) SearchClasses(_ context.Context, req services.SearchRequest) ([]*models.CourseClass, error) {
	f.lastSearch = req
	if _, err := filters.Compile(filters.ClassSchema, req.Filters); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return []*models.CourseClass{}, nil
}

func (f *fakeCatalog) Begin(context.Context) (*services.UnitOfWork, error) {
	return nil, errors.New("not supported")
}

func (f *fakeCatalog) RunInUnitOfWork(context.Context, func(context.Context, *services.UnitOfWork) error) error {
	return errors.New("not supported")
}

func newTestRouter(svc services.CatalogService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestLogger())
	SetupRouter(router, controllers.NewCatalogController(svc))
	return router
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Limit  uint64 `json:"limit"`
		Offset uint64 `json:"offset"`
		Count  int    `json:"count"`
	} `json:"pagination"`
	Error *struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	} `json:"error"`
}

func do(t *testing.T, router *gin.Engine, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestPing(t *testing.T) {
	rec, _ := do(t, newTestRouter(&fakeCatalog{}), http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestSearchCoursesReadsFiltersFromQuery(t *testing.T) {
	svc := &fakeCatalog{}
	router := newTestRouter(svc)

	rec, env := do(t, router, http.MethodGet,
		"/api/v1/universities/UCI/courses?term=2021-SPRING&limit=25&offset=50&with_classes=true&title%5Blike%5D=intro&course_id%5Bnot%5D=ICS+32",
		nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, uint64(25), env.Pagination.Limit)
	assert.Equal(t, 1, env.Pagination.Count)

	assert.Equal(t, services.SearchRequest{
		University:  "UCI",
		TermID:      "2021-SPRING",
		Filters:     map[string]string{"title[like]": "intro", "course_id[not]": "ICS 32"},
		Limit:       25,
		Offset:      50,
		WithClasses: true,
	}, svc.lastSearch)
}

func TestSearchDefaults(t *testing.T) {
	svc := &fakeCatalog{}
	rec, _ := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/universities/uci/classes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(helpers.DefaultLimit), svc.lastSearch.Limit)
	assert.Empty(t, svc.lastSearch.Filters)

	rec, _ = do(t, newTestRouter(svc), http.MethodGet, "/api/v1/universities/uci/classes?limit=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(helpers.MaxLimit), svc.lastSearch.Limit)
}

func TestSearchRejectsBadInput(t *testing.T) {
	router := newTestRouter(&fakeCatalog{})

	tests := []struct {
		target string
		code   string
		field  string
	}{
		{"/api/v1/universities/UCI/courses?professor%5Bequals%5D=x", "FLT_001", "professor[equals]"},
		{"/api/v1/universities/UCI/courses?title%5Bbetween%5D=x", "FLT_002", "title[between]"},
		{"/api/v1/universities/UCI/classes?enrolled%5Blike%5D=1", "FLT_002", "enrolled[like]"},
		{"/api/v1/universities/UCI/classes?units%5Bequals%5D=four", "FLT_003", "units[equals]"},
		{"/api/v1/universities/UCI/courses?limit=-1", "VAL_001", ""},
		{"/api/v1/universities/UCI/courses?with_classes=maybe", "VAL_001", ""},
		{"/api/v1/universities/UCI/courses?title%5Blike%5D=a&title%5Blike%5D=b", "VAL_001", ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec, env := do(t, router, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, tt.field, env.Error.Field)
		})
	}
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperrors.NewUniversityNotFoundError("MIT"), http.StatusNotFound},
		{apperrors.NewCourseNotFoundError("UCI", "2021-SPRING", "ICS 31"), http.StatusNotFound},
		{apperrors.NewCustomError(fmt.Errorf("%w: dup", apperrors.ErrConstraintViolation), "dup"), http.StatusConflict},
		{fmt.Errorf("search: %w: conn refused", apperrors.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{apperrors.NewValidationError("term id cannot be empty"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec, env := do(t, newTestRouter(&fakeCatalog{err: tt.err}), http.MethodGet, "/api/v1/universities/MIT", nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			assert.NotNil(t, env.Error)
		})
	}
}

func TestCreateUniversity(t *testing.T) {
	router := newTestRouter(&fakeCatalog{})

	rec, env := do(t, router, http.MethodPost, "/api/v1/universities", map[string]interface{}{
		"name":     "UCI",
		"metadata": map[string]string{"site": "uci.edu"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var university models.University
	require.NoError(t, json.Unmarshal(env.Data, &university))
	assert.Equal(t, "UCI", university.Name)
	assert.Equal(t, "uci.edu", university.Metadata["site"])

	rec, env = do(t, router, http.MethodPost, "/api/v1/universities", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL_001", env.Error.Code)
}

func TestUploadCourses(t *testing.T) {
	svc := &fakeCatalog{}
	router := newTestRouter(svc)

	body := map[string]interface{}{
		"courses": []map[string]interface{}{
			{
				"course_id": "ICS 31",
				"title":     "intro to programming",
				"units":     4,
				"classes": []map[string]interface{}{
					{"class_id": "36000", "instructor": "PATTIS, R.", "status": "OPEN"},
					{"class_id": "36001", "units": 2},
				},
			},
		},
	}

	rec, env := do(t, router, http.MethodPut, "/api/v1/universities/UCI/terms/2021-SPRING/courses", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "UCI", svc.university)
	assert.Equal(t, "2021-SPRING", svc.term)
	require.Len(t, svc.courses, 1)
	require.Len(t, svc.courses[0].Classes, 2)
	assert.Nil(t, svc.courses[0].Classes[0].Units)
	assert.Equal(t, 2.0, *svc.courses[0].Classes[1].Units)
	assert.JSONEq(t, `{"university":"UCI","termId":"2021-SPRING","courses":1,"classes":2}`, string(env.Data))

	rec, _ = do(t, router, http.MethodPost, "/api/v1/universities/UCI/terms/2021-SPRING/courses", body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, env = do(t, router, http.MethodPut, "/api/v1/universities/UCI/terms/2021-SPRING/courses",
		map[string]interface{}{"courses": []map[string]interface{}{{"title": "missing id"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL_001", env.Error.Code)

	rec, _ = do(t, router, http.MethodPut, "/api/v1/universities/UCI/terms/2021-SPRING/courses",
		map[string]interface{}{"courses": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadClasses(t *testing.T) {
	svc := &fakeCatalog{}
	router := newTestRouter(svc)

	rec, env := do(t, router, http.MethodPut, "/api/v1/universities/UCI/terms/2021-SPRING/classes", map[string]interface{}{
		"classes": []map[string]interface{}{
			{"course_id": "ICS 31", "class_id": "36000", "enrolled": 120},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.classes, 1)
	assert.Equal(t, 120, svc.classes[0].Enrolled)
	assert.JSONEq(t, `{"university":"UCI","termId":"2021-SPRING","courses":0,"classes":1}`, string(env.Data))

	svc.err = apperrors.NewCourseNotFoundError("UCI", "2021-SPRING", "ICS 33")
	rec, env = do(t, router, http.MethodPut, "/api/v1/universities/UCI/terms/2021-SPRING/classes", map[string]interface{}{
		"classes": []map[string]interface{}{{"course_id": "ICS 33", "class_id": "1"}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RES_001", env.Error.Code)
}
