package tax

import "context"

// Configurations belong to one company. Every method takes companyID so one
// company cannot read or switch another's configuration.
type ConfigurationRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Configuration, error)
	// GetActive returns ErrConfigurationNotFound when the company has no
	// active configuration for the jurisdiction.
	GetActive(ctx context.Context, companyID string, jurisdiction string) (Configuration, error)
	// LockActive is GetActive with the row held FOR UPDATE.
	LockActive(ctx context.Context, companyID string, jurisdiction string) (Configuration, error)
	List(ctx context.Context, companyID string, jurisdiction string) ([]Configuration, error)
	Create(ctx context.Context, cfg Configuration) (Configuration, error)
	Deactivate(ctx context.Context, id string, companyID string) error
	Activate(ctx context.Context, id string, companyID string) error
}
