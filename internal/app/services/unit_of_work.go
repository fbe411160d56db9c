package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/coursecake/internal/app/models"
	"github.com/yigit/coursecake/internal/app/repositories"
	"github.com/yigit/coursecake/internal/pkg/apperrors"
	"github.com/yigit/coursecake/internal/pkg/dberrors"
)

// ErrUnitOfWorkDone is returned by writes and Commit after the unit of work finished
var ErrUnitOfWorkDone = errors.New("unit of work already committed or rolled back")

// UnitOfWork groups catalog writes into one transaction. Nothing is visible to
// other connections until Commit. Rollback is safe to defer, also after Commit.
type UnitOfWork struct {
	tx        pgx.Tx
	repos     *repositories.Repositories
	batchSize int
	log       zerolog.Logger

	universityIDs map[string]int64
	done          bool

	courseStates []courseState
	classStates  []classState
}

// courseState and classState hold the fields a write fills in on the caller's
// values, as they were before the write.
type courseState struct {
	course       *models.Course
	id           int64
	universityID int64
	termID       string
}

type classState struct {
	class       *models.CourseClass
	id          int64
	courseRowID int64
	termID      string
	units       *float64
}

func newUnitOfWork(tx pgx.Tx, repos *repositories.Repositories, batchSize int, log zerolog.Logger) *UnitOfWork {
	return &UnitOfWork{
		tx:            tx,
		repos:         repos.WithTx(tx),
		batchSize:     batchSize,
		log:           log,
		universityIDs: make(map[string]int64),
	}
}

// Commit makes every write of the unit of work visible
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitOfWorkDone
	}
	u.done = true
	if err := u.tx.Commit(ctx); err != nil {
		u.restore()
		u.log.Error().Err(err).Msg("Failed to commit unit of work")
		return dberrors.Classify("commit", err)
	}
	u.courseStates, u.classStates = nil, nil
	return nil
}

// Rollback discards every write and resets the ids, term and inherited units the
// writes set on the caller's courses and classes. It is a no-op once the unit of
// work is done.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.restore()
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		u.log.Error().Err(err).Msg("Failed to rollback unit of work")
		return dberrors.Classify("rollback", err)
	}
	return nil
}

// check validates the write scope and returns the trimmed term id
func (u *UnitOfWork) check(university, termID string) (string, error) {
	if u.done {
		return "", ErrUnitOfWorkDone
	}
	if err := validateScope(university, termID); err != nil {
		return "", err
	}
	return strings.TrimSpace(termID), nil
}

// track snapshots courses, their attached classes and detached classes before a write
func (u *UnitOfWork) track(courses []*models.Course, classes []*models.CourseClass) {
	for _, course := range courses {
		u.courseStates = append(u.courseStates, courseState{
			course:       course,
			id:           course.ID,
			universityID: course.UniversityID,
			termID:       course.TermID,
		})
		classes = append(classes, course.Classes...)
	}
	for _, class := range classes {
		u.classStates = append(u.classStates, classState{
			class:       class,
			id:          class.ID,
			courseRowID: class.CourseRowID,
			termID:      class.TermID,
			units:       class.Units,
		})
	}
}

// restore undoes tracked writes in reverse so the earliest snapshot wins
func (u *UnitOfWork) restore() {
	for i := len(u.courseStates) - 1; i >= 0; i-- {
		st := u.courseStates[i]
		st.course.ID, st.course.UniversityID, st.course.TermID = st.id, st.universityID, st.termID
	}
	for i := len(u.classStates) - 1; i >= 0; i-- {
		st := u.classStates[i]
		st.class.ID, st.class.CourseRowID, st.class.TermID, st.class.Units = st.id, st.courseRowID, st.termID, st.units
	}
	u.courseStates, u.classStates = nil, nil
}

// universityID resolves the university, creating it on first use, and caches the id
func (u *UnitOfWork) universityID(ctx context.Context, name string) (int64, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := u.universityIDs[key]; ok {
		return id, nil
	}
	id, err := u.repos.UniversityRepository.EnsureID(ctx, name)
	if err != nil {
		return 0, err
	}
	u.universityIDs[key] = id
	return id, nil
}

// AddUniversity registers a university inside the unit of work
func (u *UnitOfWork) AddUniversity(ctx context.Context, university *models.University) (*models.University, error) {
	if u.done {
		return nil, ErrUnitOfWorkDone
	}
	if university == nil {
		return nil, apperrors.NewValidationError("university is nil")
	}
	university.Name = strings.TrimSpace(university.Name)
	if err := validateStruct(university); err != nil {
		return nil, err
	}

	stored, err := u.repos.UniversityRepository.Create(ctx, university)
	if err != nil {
		return nil, err
	}
	u.universityIDs[strings.ToLower(stored.Name)] = stored.ID
	return stored, nil
}

// AddCourse inserts course and its attached classes. A course whose natural key
// already exists fails with apperrors.ErrConstraintViolation.
func (u *UnitOfWork) AddCourse(ctx context.Context, university, termID string, course *models.Course) error {
	termID, err := u.check(university, termID)
	if err != nil {
		return err
	}
	if err := prepareCourses([]*models.Course{course}); err != nil {
		return err
	}
	u.track([]*models.Course{course}, nil)

	uniID, err := u.universityID(ctx, university)
	if err != nil {
		return err
	}
	if err := u.repos.CourseRepository.Insert(ctx, uniID, termID, course); err != nil {
		return err
	}

	parent := repositories.ParentCourse{ID: course.ID, Units: course.Units}
	for _, class := range course.Classes {
		if err := u.repos.ClassRepository.Insert(ctx, parent, termID, class); err != nil {
			return err
		}
	}
	return nil
}

// AddClass inserts a class under the course named by class.CourseID
func (u *UnitOfWork) AddClass(ctx context.Context, university, termID string, class *models.CourseClass) error {
	termID, err := u.check(university, termID)
	if err != nil {
		return err
	}
	if err := prepareClasses([]*models.CourseClass{class}); err != nil {
		return err
	}
	u.track(nil, []*models.CourseClass{class})

	uniID, err := u.universityID(ctx, university)
	if err != nil {
		return err
	}
	parent, ok, err := u.repos.CourseRepository.FindParent(ctx, uniID, termID, class.CourseID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewCourseNotFoundError(university, termID, class.CourseID)
	}
	return u.repos.ClassRepository.Insert(ctx, parent, termID, class)
}

// BulkAddCourses inserts all courses with batched statements and copies their
// classes in with COPY. Duplicate natural keys are not merged and fail the call.
// Classes loaded by COPY keep a zero ID. Ids and units written onto the inputs
// are reset if the unit of work rolls back.
func (u *UnitOfWork) BulkAddCourses(ctx context.Context, university, termID string, courses []*models.Course) error {
	termID, err := u.check(university, termID)
	if err != nil {
		return err
	}
	if err := prepareCourses(courses); err != nil {
		return err
	}
	if len(courses) == 0 {
		return nil
	}
	u.track(courses, nil)

	start := time.Now()
	uniID, err := u.universityID(ctx, university)
	if err != nil {
		return err
	}
	if err := u.repos.CourseRepository.InsertMany(ctx, uniID, termID, courses, u.batchSize); err != nil {
		return err
	}

	classes := u.bindClasses(courses, termID)
	copied, err := u.repos.ClassRepository.CopyMany(ctx, classes)
	if err != nil {
		return err
	}

	u.log.Info().
		Str("university", university).
		Str("term", termID).
		Int("courses", len(courses)).
		Int64("classes", copied).
		Dur("took", time.Since(start)).
		Msg("Bulk added courses")
	return nil
}

// BulkMergeCourses upserts courses on (university, term, course_id) and then
// upserts their attached classes on (course, term, class_id).
func (u *UnitOfWork) BulkMergeCourses(ctx context.Context, university, termID string, courses []*models.Course) error {
	termID, err := u.check(university, termID)
	if err != nil {
		return err
	}
	if err := prepareCourses(courses); err != nil {
		return err
	}
	if len(courses) == 0 {
		return nil
	}
	u.track(courses, nil)

	start := time.Now()
	uniID, err := u.universityID(ctx, university)
	if err != nil {
		return err
	}
	if err := u.repos.CourseRepository.UpsertMany(ctx, uniID, termID, courses, u.batchSize); err != nil {
		return err
	}

	classes := u.bindClasses(courses, termID)
	if err := u.repos.ClassRepository.UpsertMany(ctx, classes, u.batchSize); err != nil {
		return err
	}

	u.log.Info().
		Str("university", university).
		Str("term", termID).
		Int("courses", len(courses)).
		Int("classes", len(classes)).
		Dur("took", time.Since(start)).
		Msg("Bulk merged courses")
	return nil
}

// BulkMergeClasses upserts detached classes. Parents are resolved by CourseID in
// one query; any missing parent fails the call with apperrors.ErrCourseNotFound.
func (u *UnitOfWork) BulkMergeClasses(ctx context.Context, university, termID string, classes []*models.CourseClass) error {
	termID, err := u.check(university, termID)
	if err != nil {
		return err
	}
	if err := prepareClasses(classes); err != nil {
		return err
	}
	if len(classes) == 0 {
		return nil
	}
	u.track(nil, classes)

	start := time.Now()
	uniID, err := u.universityID(ctx, university)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(classes))
	courseIDs := make([]string, 0, len(classes))
	for _, class := range classes {
		if _, ok := seen[class.CourseID]; !ok {
			seen[class.CourseID] = struct{}{}
			courseIDs = append(courseIDs, class.CourseID)
		}
	}
	parents, err := u.repos.CourseRepository.ResolveParents(ctx, uniID, termID, courseIDs)
	if err != nil {
		return err
	}

	for _, class := range classes {
		parent, ok := parents[class.CourseID]
		if !ok {
			return apperrors.NewCourseNotFoundError(university, termID, class.CourseID)
		}
		u.repos.ClassRepository.Bind(class, parent, termID)
	}
	if err := u.repos.ClassRepository.UpsertMany(ctx, classes, u.batchSize); err != nil {
		return err
	}

	u.log.Info().
		Str("university", university).
		Str("term", termID).
		Int("classes", len(classes)).
		Int("parents", len(parents)).
		Dur("took", time.Since(start)).
		Msg("Bulk merged classes")
	return nil
}

// bindClasses attaches every class to its freshly written course and flattens them
func (u *UnitOfWork) bindClasses(courses []*models.Course, termID string) []*models.CourseClass {
	var classes []*models.CourseClass
	for _, course := range courses {
		parent := repositories.ParentCourse{ID: course.ID, Units: course.Units}
		for _, class := range course.Classes {
			u.repos.ClassRepository.Bind(class, parent, termID)
			classes = append(classes, class)
		}
	}
	return classes
}
