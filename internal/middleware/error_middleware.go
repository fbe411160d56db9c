package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/coursecake/internal/app/models/dto"
	"github.com/yigit/coursecake/internal/pkg/apperrors"
	"github.com/yigit/coursecake/internal/pkg/logger"
)

// HandleAPIError maps application errors onto HTTP statuses and the error envelope
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorDetail(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("requestId", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}

func errorDetail(err error) (int, *dto.ErrorDetail) {
	details := apperrors.DetailsOf(err)

	switch {
	case errors.Is(err, apperrors.ErrInvalidFilterField):
		return http.StatusBadRequest, withFilterKey(dto.NewErrorDetail(dto.ErrorCodeInvalidFilterField, err.Error()), details)
	case errors.Is(err, apperrors.ErrInvalidFilterOperator):
		return http.StatusBadRequest, withFilterKey(dto.NewErrorDetail(dto.ErrorCodeInvalidFilterOperator, err.Error()), details)
	case errors.Is(err, apperrors.ErrInvalidFilterValue):
		return http.StatusBadRequest, withFilterKey(dto.NewErrorDetail(dto.ErrorCodeInvalidFilterValue, err.Error()), details)
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, err.Error()).WithDetails(details)
	case errors.Is(err, apperrors.ErrConstraintViolation):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Conflicts with stored catalog data").WithDetails(details)
	case errors.Is(err, apperrors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeServiceUnavailable, "Catalog storage is unavailable").
			WithSeverity(dto.ErrorSeverityCritical)
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

func withFilterKey(detail *dto.ErrorDetail, details map[string]interface{}) *dto.ErrorDetail {
	if key, ok := details["key"].(string); ok {
		detail = detail.WithField(key)
	}
	if len(details) > 0 {
		detail = detail.WithDetails(details)
	}
	return detail
}
