package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/coursecake/internal/app/models"
	"github.com/yigit/coursecake/internal/pkg/apperrors"
	"github.com/yigit/coursecake/internal/pkg/dberrors"
	"github.com/yigit/coursecake/internal/pkg/logger"
)

// UniversityRepository handles university rows
type UniversityRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewUniversityRepository creates a new UniversityRepository
func NewUniversityRepository(db DBTX) *UniversityRepository {
	return &UniversityRepository{
		db: db,
		sb: statementBuilder,
	}
}

// Create inserts the university unless one with the same name (ignoring case)
// exists, then returns the stored row. The stored name keeps its original casing.
func (r *UniversityRepository) Create(ctx context.Context, university *models.University) (*models.University, error) {
	metadata := university.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	sql, args, err := r.sb.Insert("universities").
		Columns("name", "metadata").
		Values(university.Name, metadata).
		Suffix("ON CONFLICT ((lower(name))) DO NOTHING").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create university SQL")
		return nil, fmt.Errorf("failed to build create university query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return nil, dberrors.Classify("create university", err)
	}

	return r.GetByName(ctx, university.Name)
}

// GetByName looks a university up by name, ignoring case
func (r *UniversityRepository) GetByName(ctx context.Context, name string) (*models.University, error) {
	sql, args, err := r.sb.Select("id", "name", "metadata", "created_at").
		From("universities").
		Where("lower(name) = lower(?)", strings.TrimSpace(name)).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get university SQL")
		return nil, fmt.Errorf("failed to build get university query: %w", err)
	}

	university := &models.University{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&university.ID, &university.Name, &university.Metadata, &university.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUniversityNotFoundError(name)
		}
		logger.Error().Err(err).Str("university", name).Msg("Error scanning university row")
		return nil, dberrors.Classify("get university", err)
	}

	return university, nil
}

// EnsureID returns the id of the named university, creating the row on first use
func (r *UniversityRepository) EnsureID(ctx context.Context, name string) (int64, error) {
	university, err := r.Create(ctx, &models.University{Name: strings.TrimSpace(name)})
	if err != nil {
		return 0, err
	}
	return university.ID, nil
}
