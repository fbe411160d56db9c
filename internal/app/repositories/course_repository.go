package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/coursecake/internal/app/filters"
	"github.com/yigit/coursecake/internal/app/models"
	"github.com/yigit/coursecake/internal/pkg/dberrors"
	"github.com/yigit/coursecake/internal/pkg/logger"
)

var courseColumns = []string{
	"c.id", "c.university_id", "c.term_id", "c.course_id", "c.title",
	"c.department", "c.department_title", "c.units", "c.school", "c.updated_at",
}

var courseWriteColumns = []string{
	"university_id", "term_id", "course_id", "title", "department", "department_title", "units", "school",
}

const courseUpsertSuffix = `ON CONFLICT ON CONSTRAINT courses_natural_key DO UPDATE SET
	title = EXCLUDED.title,
	department = EXCLUDED.department,
	department_title = EXCLUDED.department_title,
	units = EXCLUDED.units,
	school = EXCLUDED.school,
	updated_at = now()
RETURNING id`

// ParentCourse is what a class needs to know about the course it belongs to
type ParentCourse struct {
	ID    int64
	Units float64
}

// CourseRepository handles course rows and course searches
type CourseRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType

	insertSQL string
	upsertSQL string
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db DBTX) *CourseRepository {
	r := &CourseRepository{
		db: db,
		sb: statementBuilder,
	}
	r.insertSQL = r.writeSQL("RETURNING id")
	r.upsertSQL = r.writeSQL(courseUpsertSuffix)
	return r
}

// writeSQL renders the single-row insert; only the shape matters, args are bound per row
func (r *CourseRepository) writeSQL(suffix string) string {
	placeholders := make([]interface{}, len(courseWriteColumns))
	sql, _, err := r.sb.Insert("courses").
		Columns(courseWriteColumns...).
		Values(placeholders...).
		Suffix(suffix).
		ToSql()
	if err != nil {
		panic(fmt.Sprintf("course insert SQL: %v", err))
	}
	return sql
}

func courseArgs(universityID int64, termID string, course *models.Course) []interface{} {
	return []interface{}{
		universityID, termID, course.CourseID, course.Title,
		course.Department, course.DepartmentTitle, course.Units, course.School,
	}
}

// Insert adds one course and sets its ID, UniversityID and TermID.
// A course with the same natural key yields a constraint violation.
func (r *CourseRepository) Insert(ctx context.Context, universityID int64, termID string, course *models.Course) error {
	return r.writeOne(ctx, r.insertSQL, "insert course", universityID, termID, course)
}

// Upsert adds the course or updates the row with the same natural key in place
func (r *CourseRepository) Upsert(ctx context.Context, universityID int64, termID string, course *models.Course) error {
	return r.writeOne(ctx, r.upsertSQL, "merge course", universityID, termID, course)
}

func (r *CourseRepository) writeOne(ctx context.Context, sql, op string, universityID int64, termID string, course *models.Course) error {
	if err := r.db.QueryRow(ctx, sql, courseArgs(universityID, termID, course)...).Scan(&course.ID); err != nil {
		return dberrors.Classify(fmt.Sprintf("%s %q", op, course.CourseID), err)
	}
	course.UniversityID = universityID
	course.TermID = termID
	return nil
}

// InsertMany adds all courses through pgx batches of at most batchSize statements.
// Natural keys are not deduplicated.
func (r *CourseRepository) InsertMany(ctx context.Context, universityID int64, termID string, courses []*models.Course, batchSize int) error {
	return r.writeMany(ctx, r.insertSQL, "insert course", universityID, termID, courses, batchSize)
}

// UpsertMany merges all courses on their natural key through pgx batches
func (r *CourseRepository) UpsertMany(ctx context.Context, universityID int64, termID string, courses []*models.Course, batchSize int) error {
	return r.writeMany(ctx, r.upsertSQL, "merge course", universityID, termID, courses, batchSize)
}

func (r *CourseRepository) writeMany(ctx context.Context, sql, op string, universityID int64, termID string, courses []*models.Course, batchSize int) error {
	for _, window := range chunks(len(courses), batchSize) {
		chunk := courses[window[0]:window[1]]

		batch := &pgx.Batch{}
		for _, course := range chunk {
			batch.Queue(sql, courseArgs(universityID, termID, course)...)
		}

		results := r.db.SendBatch(ctx, batch)
		for _, course := range chunk {
			if err := results.QueryRow().Scan(&course.ID); err != nil {
				results.Close()
				return dberrors.Classify(fmt.Sprintf("%s %q", op, course.CourseID), err)
			}
			course.UniversityID = universityID
			course.TermID = termID
		}
		if err := results.Close(); err != nil {
			return dberrors.Classify(op+" batch", err)
		}
	}
	return nil
}

// ResolveParents maps natural course ids to their rows within one university and term.
// Ids without a row are absent from the result.
func (r *CourseRepository) ResolveParents(ctx context.Context, universityID int64, termID string, courseIDs []string) (map[string]ParentCourse, error) {
	parents := make(map[string]ParentCourse, len(courseIDs))
	if len(courseIDs) == 0 {
		return parents, nil
	}

	sql, args, err := r.sb.Select("course_id", "id", "units").
		From("courses").
		Where(squirrel.Eq{"university_id": universityID, "term_id": termID}).
		Where("course_id = ANY(?)", courseIDs).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build resolve parents query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Classify("resolve parent courses", err)
	}
	defer rows.Close()

	for rows.Next() {
		var courseID string
		var parent ParentCourse
		if err := rows.Scan(&courseID, &parent.ID, &parent.Units); err != nil {
			return nil, dberrors.Classify("scan parent course", err)
		}
		parents[courseID] = parent
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify("resolve parent courses", err)
	}
	return parents, nil
}

// FindParent resolves a single natural course id
func (r *CourseRepository) FindParent(ctx context.Context, universityID int64, termID, courseID string) (ParentCourse, bool, error) {
	sql, args, err := r.sb.Select("id", "units").
		From("courses").
		Where(squirrel.Eq{"university_id": universityID, "term_id": termID, "course_id": courseID}).
		ToSql()
	if err != nil {
		return ParentCourse{}, false, fmt.Errorf("failed to build find parent query: %w", err)
	}

	var parent ParentCourse
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&parent.ID, &parent.Units); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ParentCourse{}, false, nil
		}
		return ParentCourse{}, false, dberrors.Classify("find parent course", err)
	}
	return parent, true, nil
}

// searchQuery builds the scoped, filtered and paginated course select
func (r *CourseRepository) searchQuery(params SearchParams) (squirrel.SelectBuilder, error) {
	if err := params.check(filters.CourseSchema); err != nil {
		return squirrel.SelectBuilder{}, err
	}

	q := r.sb.Select(courseColumns...).
		From("courses " + filters.CourseAlias).
		Join("universities u ON u.id = c.university_id")
	q = params.scope(q, "c.term_id")
	return params.page(q, "c.id"), nil
}

// Search runs a course query. An unknown university yields an empty result.
func (r *CourseRepository) Search(ctx context.Context, params SearchParams) ([]*models.Course, error) {
	q, err := r.searchQuery(params)
	if err != nil {
		return nil, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building course search SQL")
		return nil, fmt.Errorf("failed to build course search query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("university", params.University).Msg("Error executing course search")
		return nil, dberrors.Classify("search courses", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		course := &models.Course{}
		if err := rows.Scan(
			&course.ID, &course.UniversityID, &course.TermID, &course.CourseID, &course.Title,
			&course.Department, &course.DepartmentTitle, &course.Units, &course.School, &course.UpdatedAt,
		); err != nil {
			return nil, dberrors.Classify("scan course", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify("search courses", err)
	}

	if params.WithClasses && len(courses) > 0 {
		if err := r.attachClasses(ctx, courses); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

func (r *CourseRepository) attachClasses(ctx context.Context, courses []*models.Course) error {
	ids := make([]int64, len(courses))
	byID := make(map[int64]*models.Course, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
		byID[course.ID] = course
		course.Classes = make([]*models.CourseClass, 0)
	}

	sql, args, err := r.sb.Select(classColumns...).
		From("course_classes "+filters.ClassAlias).
		Join("courses c ON c.id = cc.course_row_id").
		Where("cc.course_row_id = ANY(?)", ids).
		OrderBy("cc.id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build course classes query: %w", err)
	}

	classes, err := queryClasses(ctx, r.db, sql, args)
	if err != nil {
		return err
	}
	for _, class := range classes {
		if course, ok := byID[class.CourseRowID]; ok {
			course.Classes = append(course.Classes, class)
		}
	}
	return nil
}
