package tax

import "context"

type TaxService interface {
	SaveConfiguration(ctx context.Context, req SaveConfigurationRequest) (ConfigurationResponse, error)
	ActivateConfiguration(ctx context.Context, id string) (ConfigurationResponse, error)
	GetActiveConfiguration(ctx context.Context, jurisdiction string) (ConfigurationResponse, error)
	ListConfigurations(ctx context.Context, jurisdiction string) ([]ConfigurationResponse, error)

	// ActiveEngine loads the company's active configuration for the
	// jurisdiction and builds an engine from it. Fails with
	// *ConfigurationError when none exists.
	ActiveEngine(ctx context.Context, companyID string, jurisdiction string) (*Engine, error)
}
