package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/coursecake/internal/app/filters"
	"github.com/yigit/coursecake/internal/app/models"
	"github.com/yigit/coursecake/internal/pkg/dberrors"
	"github.com/yigit/coursecake/internal/pkg/logger"
)

// classColumns ends with the parent's natural course_id, so queries must join courses as c
var classColumns = []string{
	"cc.id", "cc.course_row_id", "cc.term_id", "cc.class_id", "cc.instructor", "cc.time",
	"cc.location", "cc.building", "cc.room", "cc.status", "cc.units", "cc.final", "cc.enrolled",
	"c.course_id",
}

var classWriteColumns = []string{
	"course_row_id", "term_id", "class_id", "instructor", "time", "location",
	"building", "room", "status", "units", "final", "enrolled",
}

const classUpsertSuffix = `ON CONFLICT ON CONSTRAINT course_classes_natural_key DO UPDATE SET
	instructor = EXCLUDED.instructor,
	time = EXCLUDED.time,
	location = EXCLUDED.location,
	building = EXCLUDED.building,
	room = EXCLUDED.room,
	status = EXCLUDED.status,
	units = EXCLUDED.units,
	final = EXCLUDED.final,
	enrolled = EXCLUDED.enrolled,
	updated_at = now()
RETURNING id`

// ClassRepository handles class rows and class searches
type ClassRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType

	insertSQL string
	upsertSQL string
}

// NewClassRepository creates a new ClassRepository
func NewClassRepository(db DBTX) *ClassRepository {
	r := &ClassRepository{
		db: db,
		sb: statementBuilder,
	}
	r.insertSQL = r.writeSQL("RETURNING id")
	r.upsertSQL = r.writeSQL(classUpsertSuffix)
	return r
}

func (r *ClassRepository) writeSQL(suffix string) string {
	placeholders := make([]interface{}, len(classWriteColumns))
	sql, _, err := r.sb.Insert("course_classes").
		Columns(classWriteColumns...).
		Values(placeholders...).
		Suffix(suffix).
		ToSql()
	if err != nil {
		panic(fmt.Sprintf("class insert SQL: %v", err))
	}
	return sql
}

func classArgs(class *models.CourseClass) []interface{} {
	return []interface{}{
		class.CourseRowID, class.TermID, class.ClassID, class.Instructor, class.Time, class.Location,
		class.Building, class.Room, class.Status, *class.Units, class.Final, class.Enrolled,
	}
}

// Insert binds class to parent and adds it
func (r *ClassRepository) Insert(ctx context.Context, parent ParentCourse, termID string, class *models.CourseClass) error {
	r.Bind(class, parent, termID)
	if err := r.db.QueryRow(ctx, r.insertSQL, classArgs(class)...).Scan(&class.ID); err != nil {
		return dberrors.Classify(fmt.Sprintf("insert class %q", class.ClassID), err)
	}
	return nil
}

// Bind attaches class to its parent row and term. Classes without units take the parent's.
func (r *ClassRepository) Bind(class *models.CourseClass, parent ParentCourse, termID string) {
	units := class.UnitsOr(parent.Units)
	class.Units = &units
	class.CourseRowID = parent.ID
	class.TermID = termID
}

// CopyMany bulk loads classes with COPY. Every class must already be prepared by
// the caller via Bind. COPY returns no ids, so ID stays zero on the inputs.
func (r *ClassRepository) CopyMany(ctx context.Context, classes []*models.CourseClass) (int64, error) {
	if len(classes) == 0 {
		return 0, nil
	}
	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"course_classes"},
		classWriteColumns,
		pgx.CopyFromSlice(len(classes), func(i int) ([]any, error) {
			return classArgs(classes[i]), nil
		}),
	)
	if err != nil {
		return n, dberrors.Classify("copy classes", err)
	}
	return n, nil
}

// UpsertMany merges prepared classes on their natural key through pgx batches
func (r *ClassRepository) UpsertMany(ctx context.Context, classes []*models.CourseClass, batchSize int) error {
	for _, window := range chunks(len(classes), batchSize) {
		chunk := classes[window[0]:window[1]]

		batch := &pgx.Batch{}
		for _, class := range chunk {
			batch.Queue(r.upsertSQL, classArgs(class)...)
		}

		results := r.db.SendBatch(ctx, batch)
		for _, class := range chunk {
			if err := results.QueryRow().Scan(&class.ID); err != nil {
				results.Close()
				return dberrors.Classify(fmt.Sprintf("merge class %q", class.ClassID), err)
			}
		}
		if err := results.Close(); err != nil {
			return dberrors.Classify("merge class batch", err)
		}
	}
	return nil
}

func (r *ClassRepository) searchQuery(params SearchParams) (squirrel.SelectBuilder, error) {
	if err := params.check(filters.ClassSchema); err != nil {
		return squirrel.SelectBuilder{}, err
	}
	if params.WithClasses {
		return squirrel.SelectBuilder{}, fmt.Errorf("with classes is only supported for course searches")
	}

	q := r.sb.Select(classColumns...).
		From("course_classes " + filters.ClassAlias).
		Join("courses c ON c.id = cc.course_row_id").
		Join("universities u ON u.id = c.university_id")
	q = params.scope(q, "cc.term_id")
	return params.page(q, "cc.id"), nil
}

// Search runs a class query. An unknown university yields an empty result.
func (r *ClassRepository) Search(ctx context.Context, params SearchParams) ([]*models.CourseClass, error) {
	q, err := r.searchQuery(params)
	if err != nil {
		return nil, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building class search SQL")
		return nil, fmt.Errorf("failed to build class search query: %w", err)
	}

	classes, err := queryClasses(ctx, r.db, sql, args)
	if err != nil {
		logger.Error().Err(err).Str("university", params.University).Msg("Error executing class search")
		return nil, err
	}
	return classes, nil
}

// queryClasses runs a select over classColumns
func queryClasses(ctx context.Context, db DBTX, sql string, args []interface{}) ([]*models.CourseClass, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Classify("search classes", err)
	}
	defer rows.Close()

	classes := make([]*models.CourseClass, 0)
	for rows.Next() {
		class := &models.CourseClass{}
		if err := rows.Scan(
			&class.ID, &class.CourseRowID, &class.TermID, &class.ClassID, &class.Instructor, &class.Time,
			&class.Location, &class.Building, &class.Room, &class.Status, &class.Units, &class.Final, &class.Enrolled,
			&class.CourseID,
		); err != nil {
			return nil, dberrors.Classify("scan class", err)
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify("search classes", err)
	}
	return classes, nil
}
