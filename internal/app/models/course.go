package models

import "time"

// Course is one catalog entry of a university for a single term.
// (UniversityID, TermID, CourseID) is its natural key. JSON names follow the
// scraper's snake_case output, also for the fields the store fills in.
type Course struct {
	ID              int64     `json:"id" db:"id"`
	UniversityID    int64     `json:"university_id" db:"university_id"`
	TermID          string    `json:"term_id" db:"term_id"`
	CourseID        string    `json:"course_id" db:"course_id" validate:"required,max=255"`
	Title           string    `json:"title" db:"title"`
	Department      string    `json:"department" db:"department"`
	DepartmentTitle string    `json:"department_title" db:"department_title"`
	Units           float64   `json:"units" db:"units" validate:"gte=0"`
	School          string    `json:"school" db:"school"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	// Relations (populated when needed)
	Classes []*CourseClass `json:"classes,omitempty" validate:"dive"`
}

// AddClass attaches class to the course, keeping insertion order.
func (c *Course) AddClass(class *CourseClass) {
	class.CourseID = c.CourseID
	c.Classes = append(c.Classes, class)
}
