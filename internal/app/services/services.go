// Package services holds the catalog write pipeline and query entry points.
//
// Writes go through a UnitOfWork, one database transaction that resolves
// universities and parent courses before inserting or merging rows. The
// single-call CatalogService methods each run in a unit of work of their own.
package services

import (
	"github.com/yigit/coursecake/internal/app/repositories"
	"github.com/yigit/coursecake/internal/config"
)

// Services holds all the service instances
type Services struct {
	CatalogService CatalogService
}

// NewServices initializes all services
func NewServices(db DB, repos *repositories.Repositories, cfg *config.Config) *Services {
	return &Services{
		CatalogService: NewCatalogService(db, repos, cfg.Ingest.BatchSize),
	}
}
