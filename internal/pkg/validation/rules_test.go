package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTermID(t *testing.T) {
	for _, term := range []string{"2021-SPRING", "2021-SPRING-1", "202103", "Fall 2021", " 2021-FALL "} {
		assert.True(t, ValidTermID(term), term)
	}
	for _, term := range []string{"", "   ", "2021/SPRING", "-2021", strings.Repeat("9", 65)} {
		assert.False(t, ValidTermID(term), term)
	}
}

func TestValidUniversityName(t *testing.T) {
	assert.True(t, ValidUniversityName("University of California, Irvine"))
	assert.False(t, ValidUniversityName(" "))
	assert.False(t, ValidUniversityName(strings.Repeat("u", 256)))
}

func TestStringValidationOptional(t *testing.T) {
	assert.True(t, NewStringValidation("").WithRequired(false).WithMinLength(3).Validate())
	assert.False(t, NewStringValidation("ab").WithMinLength(3).Validate())
}
