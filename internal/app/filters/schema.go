package filters

import "sort"

// Kind decides which operators a field accepts and how its values are parsed.
type Kind int

const (
	Text Kind = iota
	Float
	Integer
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Integer:
		return "integer"
	default:
		return "text"
	}
}

// Field maps a filter name onto a qualified SQL column.
type Field struct {
	Name   string
	Column string
	Kind   Kind
}

// Schema is the allow-list of filterable fields for one entity.
type Schema struct {
	entity string
	fields map[string]Field
}

// NewSchema builds an allow-list. Later fields with the same name replace earlier ones.
func NewSchema(entity string, fields ...Field) *Schema {
	s := &Schema{entity: entity, fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		s.fields[f.Name] = f
	}
	return s
}

// Entity names what the schema filters, e.g. "course".
func (s *Schema) Entity() string {
	return s.entity
}

// Field looks a filter name up in the allow-list.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// FieldNames lists the allowed names in sorted order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table aliases used by the repositories when querying courses and classes.
const (
	CourseAlias = "c"
	ClassAlias  = "cc"
)

// CourseSchema lists the filterable course fields.
var CourseSchema = NewSchema("course",
	Field{Name: "course_id", Column: "c.course_id", Kind: Text},
	Field{Name: "term_id", Column: "c.term_id", Kind: Text},
	Field{Name: "title", Column: "c.title", Kind: Text},
	Field{Name: "department", Column: "c.department", Kind: Text},
	Field{Name: "department_title", Column: "c.department_title", Kind: Text},
	Field{Name: "units", Column: "c.units", Kind: Float},
	Field{Name: "school", Column: "c.school", Kind: Text},
)

// ClassSchema lists the filterable class fields. course_id filters on the parent course.
var ClassSchema = NewSchema("class",
	Field{Name: "class_id", Column: "cc.class_id", Kind: Text},
	Field{Name: "course_id", Column: "c.course_id", Kind: Text},
	Field{Name: "term_id", Column: "cc.term_id", Kind: Text},
	Field{Name: "instructor", Column: "cc.instructor", Kind: Text},
	Field{Name: "time", Column: "cc.time", Kind: Text},
	Field{Name: "location", Column: "cc.location", Kind: Text},
	Field{Name: "building", Column: "cc.building", Kind: Text},
	Field{Name: "room", Column: "cc.room", Kind: Text},
	Field{Name: "status", Column: "cc.status", Kind: Text},
	Field{Name: "units", Column: "cc.units", Kind: Float},
	Field{Name: "final", Column: "cc.final", Kind: Text},
	Field{Name: "enrolled", Column: "cc.enrolled", Kind: Integer},
)
