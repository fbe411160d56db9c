package models

// Class status values seen in scraped catalogs. Status is stored as free text,
// these are not enforced.
const (
	ClassStatusOpen     = "OPEN"
	ClassStatusClosed   = "CLOSED"
	ClassStatusWaitlist = "WAITLIST"
	ClassStatusNewOnly  = "NEW_ONLY"
	ClassStatusFull     = "FULL"
)

// CourseClass is a section of a course. (CourseRowID, TermID, ClassID) is its natural key.
type CourseClass struct {
	ID          int64 `json:"id" db:"id"`
	CourseRowID int64 `json:"course_row_id" db:"course_row_id"`
	// CourseID is the parent's natural course_id, used to route detached classes.
	CourseID   string `json:"course_id" db:"-" validate:"max=255"`
	TermID     string `json:"term_id" db:"term_id"`
	ClassID    string `json:"class_id" db:"class_id" validate:"required,max=255"`
	Instructor string `json:"instructor" db:"instructor"`
	Time       string `json:"time" db:"time"`
	Location   string `json:"location" db:"location"`
	Building   string `json:"building" db:"building"`
	Room       string `json:"room" db:"room"`
	Status     string `json:"status" db:"status"`
	// Units is nil when the scraper did not report it; the parent's units are used at write time.
	Units    *float64 `json:"units,omitempty" db:"units" validate:"omitempty,gte=0"`
	Final    string   `json:"final" db:"final"`
	Enrolled int      `json:"enrolled" db:"enrolled" validate:"gte=0,lte=2147483647"`
}

// UnitsOr returns the class units, or fallback when they were never set.
func (c *CourseClass) UnitsOr(fallback float64) float64 {
	if c.Units == nil {
		return fallback
	}
	return *c.Units
}
