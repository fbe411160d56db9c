package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/coursecake/internal/app/filters"
	"github.com/yigit/coursecake/internal/app/models"
	"github.com/yigit/coursecake/internal/app/repositories"
	"github.com/yigit/coursecake/internal/config"
	"github.com/yigit/coursecake/internal/pkg/apperrors"
	"github.com/yigit/coursecake/internal/pkg/dberrors"
	"github.com/yigit/coursecake/internal/pkg/logger"
)

// DB is what the catalog needs from the connection pool
type DB interface {
	repositories.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SearchRequest is a course or class query as callers express it
type SearchRequest struct {
	University string
	TermID     string
	// Filters maps "<field>[<operator>]" to a value
	Filters     map[string]string
	Limit       uint64
	Offset      uint64
	WithClasses bool
}

// CatalogService defines the interface for catalog storage and retrieval
type CatalogService interface {
	AddUniversity(ctx context.Context, university *models.University) (*models.University, error)
	GetUniversity(ctx context.Context, name string) (*models.University, error)

	AddCourse(ctx context.Context, university, termID string, course *models.Course) error
	AddClass(ctx context.Context, university, termID string, class *models.CourseClass) error
	BulkAddCourses(ctx context.Context, university, termID string, courses []*models.Course) error
	BulkMergeCourses(ctx context.Context, university, termID string, courses []*models.Course) error
	BulkMergeClasses(ctx context.Context, university, termID string, classes []*models.CourseClass) error

	SearchCourses(ctx context.Context, req SearchRequest) ([]*models.Course, error)
	SearchClasses(ctx context.Context, req SearchRequest) ([]*models.CourseClass, error)

	Begin(ctx context.Context) (*UnitOfWork, error)
	RunInUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow *UnitOfWork) error) error
}

type catalogService struct {
	db        DB
	repos     *repositories.Repositories
	batchSize int
	log       zerolog.Logger
}

// NewCatalogService creates a new catalog service. A non-positive batchSize
// falls back to config.DefaultBatchSize.
func NewCatalogService(db DB, repos *repositories.Repositories, batchSize int) CatalogService {
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	return &catalogService{
		db:        db,
		repos:     repos,
		batchSize: batchSize,
		log:       logger.Component("catalog"),
	}
}

// Begin starts a unit of work. Callers must Commit or Rollback it.
func (s *catalogService) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to begin unit of work")
		return nil, dberrors.Classify("begin", err)
	}
	return newUnitOfWork(tx, s.repos, s.batchSize, s.log), nil
}

// RunInUnitOfWork runs fn in a unit of work. It commits when fn returns nil and
// rolls back when fn fails or panics.
func (s *catalogService) RunInUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow *UnitOfWork) error) error {
	uow, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx, uow); err != nil {
		if rbErr := uow.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return uow.Commit(ctx)
}

// AddUniversity registers a university, or returns the existing row with the same name
func (s *catalogService) AddUniversity(ctx context.Context, university *models.University) (*models.University, error) {
	if university == nil {
		return nil, apperrors.NewValidationError("university is nil")
	}
	university.Name = strings.TrimSpace(university.Name)
	if err := validateStruct(university); err != nil {
		return nil, err
	}
	return s.repos.UniversityRepository.Create(ctx, university)
}

// GetUniversity looks a university up by name, ignoring case
func (s *catalogService) GetUniversity(ctx context.Context, name string) (*models.University, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("university name cannot be empty")
	}
	return s.repos.UniversityRepository.GetByName(ctx, name)
}

func (s *catalogService) AddCourse(ctx context.Context, university, termID string, course *models.Course) error {
	return s.RunInUnitOfWork(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		return uow.AddCourse(ctx, university, termID, course)
	})
}

func (s *catalogService) AddClass(ctx context.Context, university, termID string, class *models.CourseClass) error {
	return s.RunInUnitOfWork(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		return uow.AddClass(ctx, university, termID, class)
	})
}

func (s *catalogService) BulkAddCourses(ctx context.Context, university, termID string, courses []*models.Course) error {
	return s.RunInUnitOfWork(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		return uow.BulkAddCourses(ctx, university, termID, courses)
	})
}

func (s *catalogService) BulkMergeCourses(ctx context.Context, university, termID string, courses []*models.Course) error {
	return s.RunInUnitOfWork(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		return uow.BulkMergeCourses(ctx, university, termID, courses)
	})
}

func (s *catalogService) BulkMergeClasses(ctx context.Context, university, termID string, classes []*models.CourseClass) error {
	return s.RunInUnitOfWork(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		return uow.BulkMergeClasses(ctx, university, termID, classes)
	})
}

// SearchCourses compiles the request filters against the course schema and runs the query
func (s *catalogService) SearchCourses(ctx context.Context, req SearchRequest) ([]*models.Course, error) {
	params, err := searchParams(filters.CourseSchema, req)
	if err != nil {
		return nil, err
	}
	return s.repos.CourseRepository.Search(ctx, params)
}

// SearchClasses compiles the request filters against the class schema and runs the query
func (s *catalogService) SearchClasses(ctx context.Context, req SearchRequest) ([]*models.CourseClass, error) {
	if req.WithClasses {
		return nil, apperrors.NewValidationError("with_classes only applies to course searches")
	}
	params, err := searchParams(filters.ClassSchema, req)
	if err != nil {
		return nil, err
	}
	return s.repos.ClassRepository.Search(ctx, params)
}

func searchParams(schema *filters.Schema, req SearchRequest) (repositories.SearchParams, error) {
	if strings.TrimSpace(req.University) == "" {
		return repositories.SearchParams{}, apperrors.NewValidationError("university name cannot be empty")
	}
	set, err := filters.Compile(schema, req.Filters)
	if err != nil {
		return repositories.SearchParams{}, err
	}
	return repositories.SearchParams{
		University:  req.University,
		TermID:      strings.TrimSpace(req.TermID),
		Filters:     set,
		Limit:       req.Limit,
		Offset:      req.Offset,
		WithClasses: req.WithClasses,
	}, nil
}
