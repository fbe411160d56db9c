package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/coursecake/internal/app/models"
	"github.com/yigit/coursecake/internal/pkg/apperrors"
	"github.com/yigit/coursecake/internal/pkg/validation"
)

var validate = validator.New()

// validateScope checks the university name and term every write is keyed by
func validateScope(university, termID string) error {
	if !validation.ValidUniversityName(university) {
		return apperrors.NewValidationError(fmt.Sprintf("invalid university name %q", university))
	}
	if !validation.ValidTermID(termID) {
		return apperrors.NewValidationError(fmt.Sprintf("invalid term id %q", termID))
	}
	return nil
}

// prepareCourses routes attached classes to their course and validates everything
func prepareCourses(courses []*models.Course) error {
	for i, course := range courses {
		if course == nil {
			return apperrors.NewValidationError(fmt.Sprintf("course %d is nil", i))
		}
		for j, class := range course.Classes {
			if class == nil {
				return apperrors.NewValidationError(fmt.Sprintf("class %d of course %q is nil", j, course.CourseID))
			}
			class.CourseID = course.CourseID
		}
		if err := validateStruct(course); err != nil {
			return err
		}
	}
	return nil
}

func prepareClasses(classes []*models.CourseClass) error {
	for i, class := range classes {
		if class == nil {
			return apperrors.NewValidationError(fmt.Sprintf("class %d is nil", i))
		}
		if err := validateStruct(class); err != nil {
			return err
		}
		if class.CourseID == "" {
			return apperrors.NewValidationError(fmt.Sprintf("class %q has no course_id", class.ClassID))
		}
	}
	return nil
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return apperrors.NewValidationError(err.Error())
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, formatFieldError(fe))
	}
	return apperrors.NewValidationError(strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Namespace() + " is required"
	case "max":
		return e.Namespace() + " must be at most " + e.Param() + " characters"
	case "gte":
		return e.Namespace() + " must be at least " + e.Param()
	default:
		return e.Namespace() + " validation failed: " + e.Tag()
	}
}
