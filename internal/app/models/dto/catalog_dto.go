package dto

import "github.com/yigit/coursecake/internal/app/models"

// CreateUniversityRequest registers a university
type CreateUniversityRequest struct {
	Name     string            `json:"name" binding:"required" validate:"required,max=255"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CoursesRequest carries scraped courses, each with its classes attached
type CoursesRequest struct {
	Courses []*models.Course `json:"courses" validate:"required,min=1,dive,required"`
}

// ClassesRequest carries scraped classes routed by their course_id
type ClassesRequest struct {
	Classes []*models.CourseClass `json:"classes" validate:"required,min=1,dive,required"`
}

// WriteResult reports what a write request stored
type WriteResult struct {
	University string `json:"university" example:"UCI"`
	TermID     string `json:"termId" example:"2021-SPRING"`
	Courses    int    `json:"courses" example:"500"`
	Classes    int    `json:"classes" example:"2500"`
}
