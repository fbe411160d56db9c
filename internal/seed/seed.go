package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/coursecake/internal/app/models"
	appServices "github.com/yigit/coursecake/internal/app/services"
)

// CreateDefaultData registers the configured universities so lookups and
// searches resolve them before the first scrape is uploaded. Existing rows are kept.
func CreateDefaultData(ctx context.Context, catalog appServices.CatalogService, universities []string, lgr zerolog.Logger) error {
	if len(universities) == 0 {
		return nil
	}

	lgr.Info().Strs("universities", universities).Msg("Checking/Creating default universities...")
	var finalErr error // collect errors without stopping the loop

	for _, name := range universities {
		university, err := catalog.AddUniversity(ctx, &appModels.University{Name: name})
		if err != nil {
			lgr.Error().Err(err).Str("university", name).Msg("Error creating default university")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Debug().Int64("id", university.ID).Str("university", university.Name).Msg("Default university ready")
	}

	return finalErr
}
