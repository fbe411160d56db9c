package repositories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/coursecake/internal/app/filters"
)

func TestCourseSearchSQL(t *testing.T) {
	set, err := filters.Compile(filters.CourseSchema, map[string]string{
		"title[like]":    "intro",
		"course_id[not]": "ICS 31",
	})
	require.NoError(t, err)

	q, err := NewCourseRepository(nil).searchQuery(SearchParams{
		University: " UCI ",
		TermID:     "2021-SPRING",
		Filters:    set,
		Limit:      900,
	})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT "+strings.Join(courseColumns, ", ")+
			" FROM courses c JOIN universities u ON u.id = c.university_id"+
			" WHERE lower(u.name) = lower($1) AND c.term_id = $2 AND (c.course_id <> $3 AND c.title ILIKE $4)"+
			" ORDER BY c.id LIMIT 900",
		sql)
	assert.Equal(t, []interface{}{"UCI", "2021-SPRING", "ICS 31", "%intro%"}, args)
}

func TestCourseSearchSQLWithoutTermOrFilters(t *testing.T) {
	q, err := NewCourseRepository(nil).searchQuery(SearchParams{University: "uci", Offset: 20})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, " WHERE lower(u.name) = lower($1) ORDER BY c.id OFFSET 20"), sql)
	assert.NotContains(t, sql, "LIMIT")
	assert.Equal(t, []interface{}{"uci"}, args)
}

func TestClassSearchSQL(t *testing.T) {
	set, err := filters.Compile(filters.ClassSchema, map[string]string{
		"course_id[equals]": "ICS 31",
		"enrolled[not]":     "0",
	})
	require.NoError(t, err)

	q, err := NewClassRepository(nil).searchQuery(SearchParams{
		University: "UCI",
		TermID:     "2021-SPRING",
		Filters:    set,
		Limit:      10,
		Offset:     5,
	})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT "+strings.Join(classColumns, ", ")+
			" FROM course_classes cc JOIN courses c ON c.id = cc.course_row_id"+
			" JOIN universities u ON u.id = c.university_id"+
			" WHERE lower(u.name) = lower($1) AND cc.term_id = $2 AND (c.course_id = $3 AND cc.enrolled <> $4)"+
			" ORDER BY cc.id LIMIT 10 OFFSET 5",
		sql)
	assert.Equal(t, []interface{}{"UCI", "2021-SPRING", "ICS 31", int64(0)}, args)
}

func TestSearchRejectsFiltersForOtherEntity(t *testing.T) {
	classFilters, err := filters.Compile(filters.ClassSchema, map[string]string{"status[equals]": "OPEN"})
	require.NoError(t, err)
	_, err = NewCourseRepository(nil).searchQuery(SearchParams{University: "UCI", Filters: classFilters})
	assert.Error(t, err)

	courseFilters, err := filters.Compile(filters.CourseSchema, map[string]string{"school[equals]": "ICS"})
	require.NoError(t, err)
	_, err = NewClassRepository(nil).searchQuery(SearchParams{University: "UCI", Filters: courseFilters})
	assert.Error(t, err)

	_, err = NewClassRepository(nil).searchQuery(SearchParams{University: "UCI", WithClasses: true})
	assert.Error(t, err)
}

func TestWriteSQLShape(t *testing.T) {
	courses := NewCourseRepository(nil)
	assert.True(t, strings.HasPrefix(courses.insertSQL, "INSERT INTO courses (university_id,term_id,course_id,"), courses.insertSQL)
	assert.Contains(t, courses.insertSQL, "VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id")
	assert.Contains(t, courses.upsertSQL, "ON CONFLICT ON CONSTRAINT courses_natural_key DO UPDATE")

	classes := NewClassRepository(nil)
	assert.Contains(t, classes.insertSQL, "VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id")
	assert.Contains(t, classes.upsertSQL, "ON CONFLICT ON CONSTRAINT course_classes_natural_key DO UPDATE")
}

func TestChunks(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 500}, {500, 900}}, chunks(900, 500))
	assert.Equal(t, [][2]int{{0, 3}}, chunks(3, 0))
	assert.Nil(t, chunks(0, 10))
}
