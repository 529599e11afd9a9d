package mapstate

import (
	"context"

	"github.com/pinmov/atlas-server/internal/models"
)

// Coordinate is a geographic point picked on the map.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Gateway is the persistence boundary the state container talks to.
// The production implementation is the HTTP client in pkg/mapclient;
// tests inject fakes. Implementations report failures with the shared
// error taxonomy (models.ErrUnauthorized, models.ErrInvalidInput,
// models.ErrStorage).
type Gateway interface {
	// ListReports returns the canonical report collection.
	ListReports(ctx context.Context) ([]models.Report, error)

	// ListHubs returns the canonical hub collection.
	ListHubs(ctx context.Context) ([]models.Hub, error)

	// CreateReport persists one report and returns the server record.
	CreateReport(ctx context.Context, req *models.CreateReportRequest) (*models.Report, error)

	// Authenticated reports whether the gateway holds a usable session.
	// SubmitCreate refuses to go to the network without one.
	Authenticated() bool
}
