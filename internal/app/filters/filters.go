// Package filters compiles "<field>[<operator>]" -> value maps into SQL predicates.
//
// Every field must appear in the entity's Schema and every operator must be one of
// equals, not, like or notlike; anything else is rejected before a query is built.
// All predicates of a Set are combined with AND.
package filters

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/coursecake/internal/pkg/apperrors"
)

// Operator is the bracketed part of a filter key.
type Operator string

const (
	Equals  Operator = "equals"
	Not     Operator = "not"
	Like    Operator = "like"
	NotLike Operator = "notlike"
)

func (o Operator) valid() bool {
	switch o {
	case Equals, Not, Like, NotLike:
		return true
	}
	return false
}

type predicate struct {
	field    Field
	operator Operator
	value    interface{}
}

// ToSql implements squirrel.Sqlizer. Equality is exact; like/notlike are
// case-insensitive substring matches.
func (p predicate) ToSql() (string, []interface{}, error) {
	switch p.operator {
	case Equals:
		return squirrel.Eq{p.field.Column: p.value}.ToSql()
	case Not:
		return squirrel.NotEq{p.field.Column: p.value}.ToSql()
	case Like:
		return squirrel.ILike{p.field.Column: p.value}.ToSql()
	case NotLike:
		return squirrel.NotILike{p.field.Column: p.value}.ToSql()
	}
	return "", nil, fmt.Errorf("unsupported operator %q", p.operator)
}

// Set is a compiled filter map. The zero value matches everything.
type Set struct {
	entity     string
	predicates []predicate
}

// Entity names the schema the set was compiled against.
func (s Set) Entity() string {
	return s.entity
}

// Len returns the number of predicates.
func (s Set) Len() int {
	return len(s.predicates)
}

// Sqlizer returns the AND of all predicates, or nil for an empty set.
func (s Set) Sqlizer() squirrel.Sqlizer {
	if len(s.predicates) == 0 {
		return nil
	}
	and := make(squirrel.And, 0, len(s.predicates))
	for _, p := range s.predicates {
		and = append(and, p)
	}
	return and
}

// ParseKey splits "title[like]" into "title" and Like. The operator is not validated.
func ParseKey(key string) (string, Operator, error) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", fmt.Errorf("filter key %q is not of the form field[operator]", key)
	}
	field := key[:open]
	op := key[open+1 : len(key)-1]
	if strings.ContainsAny(op, "[]") {
		return "", "", fmt.Errorf("filter key %q is not of the form field[operator]", key)
	}
	return field, Operator(op), nil
}

// Compile validates raw against schema and builds a Set. Keys are compiled in sorted
// order so the generated SQL is the same for equal maps.
func Compile(schema *Schema, raw map[string]string) (Set, error) {
	set := Set{entity: schema.Entity()}
	if len(raw) == 0 {
		return set, nil
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set.predicates = make([]predicate, 0, len(keys))
	for _, key := range keys {
		p, err := compileKey(schema, key, raw[key])
		if err != nil {
			return Set{}, err
		}
		set.predicates = append(set.predicates, p)
	}
	return set, nil
}

func compileKey(schema *Schema, key, value string) (predicate, error) {
	name, op, err := ParseKey(key)
	if err != nil {
		name = key
		if i := strings.IndexByte(key, '['); i >= 0 {
			name = key[:i]
		}
		if _, ok := schema.Field(name); !ok {
			return predicate{}, apperrors.NewInvalidFilterFieldError(key, name)
		}
		return predicate{}, apperrors.NewInvalidFilterOperatorError(key, "", err.Error())
	}

	field, ok := schema.Field(name)
	if !ok {
		return predicate{}, apperrors.NewInvalidFilterFieldError(key, name)
	}
	if !op.valid() {
		return predicate{}, apperrors.NewInvalidFilterOperatorError(key, string(op), "unknown operator")
	}

	switch field.Kind {
	case Float:
		if op == Like || op == NotLike {
			return predicate{}, apperrors.NewInvalidFilterOperatorError(key, string(op), "pattern operators are not supported on numeric fields")
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return predicate{}, apperrors.NewInvalidFilterValueError(key, value, err)
		}
		return predicate{field: field, operator: op, value: f}, nil

	case Integer:
		if op == Like || op == NotLike {
			return predicate{}, apperrors.NewInvalidFilterOperatorError(key, string(op), "pattern operators are not supported on numeric fields")
		}
		// integer columns are int4
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
		if err != nil {
			return predicate{}, apperrors.NewInvalidFilterValueError(key, value, err)
		}
		return predicate{field: field, operator: op, value: n}, nil
	}

	if op == Like || op == NotLike {
		// % and _ inside the value keep their SQL wildcard meaning
		return predicate{field: field, operator: op, value: "%" + value + "%"}, nil
	}
	return predicate{field: field, operator: op, value: value}, nil
}
