package helpers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/coursecake/internal/app/models/dto"
)

const (
	DefaultLimit = 100
	MaxLimit     = 5000
)

// ParsePaginationParams reads limit and offset from the query string. A missing
// limit becomes DefaultLimit; limit=0 asks for everything up to MaxLimit.
func ParsePaginationParams(c *gin.Context) (limit, offset uint64, err error) {
	limit, err = parseUint(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)), "limit", 64)
	if err != nil {
		return 0, 0, err
	}
	if limit == 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	// OFFSET is a bigint
	offset, err = parseUint(c.DefaultQuery("offset", "0"), "offset", 63)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func parseUint(raw, name string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

// NewPaginationInfo describes the page that was served
func NewPaginationInfo(limit, offset uint64, count int) dto.PaginationInfo {
	return dto.PaginationInfo{
		Limit:   limit,
		Offset:  offset,
		Count:   count,
		HasMore: uint64(count) == limit,
	}
}
