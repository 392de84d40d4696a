package tax

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
)

type TaxServiceImpl struct {
	tx   database.Transactor
	repo tax.ConfigurationRepository
}

func NewTaxService(tx database.Transactor, repo tax.ConfigurationRepository) tax.TaxService {
	return &TaxServiceImpl{tx: tx, repo: repo}
}

// SaveConfiguration stores a new configuration. Slabs are validated here so
// that a stored configuration can always be computed with. Saving an active
// configuration while the company already has one for the jurisdiction fails.
func (s *TaxServiceImpl) SaveConfiguration(ctx context.Context, req tax.SaveConfigurationRequest) (tax.ConfigurationResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return tax.ConfigurationResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return tax.ConfigurationResponse{}, err
	}

	cfg := req.ToConfiguration(claims.CompanyID)
	cfg.Jurisdiction = strings.ToUpper(strings.TrimSpace(cfg.Jurisdiction))
	cfg.Name = strings.TrimSpace(cfg.Name)

	sorted, err := tax.ValidateSlabs(cfg.Slabs)
	if err != nil {
		var ce *tax.ConfigurationError
		if errors.As(err, &ce) {
			ce.Jurisdiction = cfg.Jurisdiction
		}
		return tax.ConfigurationResponse{}, err
	}
	cfg.Slabs = sorted

	var created tax.Configuration
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if cfg.IsActive {
			current, err := s.repo.LockActive(ctx, cfg.CompanyID, cfg.Jurisdiction)
			switch {
			case err == nil:
				return &tax.ConfigurationError{
					Jurisdiction: cfg.Jurisdiction,
					Reason:       fmt.Sprintf("configuration %q is already active", current.Name),
				}
			case !errors.Is(err, tax.ErrConfigurationNotFound):
				return err
			}
		}

		created, err = s.repo.Create(ctx, cfg)
		return err
	})
	if err != nil {
		return tax.ConfigurationResponse{}, err
	}

	slog.InfoContext(ctx, "tax configuration saved",
		"configuration_id", created.ID,
		"company_id", created.CompanyID,
		"jurisdiction", created.Jurisdiction,
		"active", created.IsActive,
	)
	return tax.NewConfigurationResponse(created), nil
}

// ActivateConfiguration makes id the active configuration of its
// jurisdiction, deactivating the company's previous one in the same
// transaction.
func (s *TaxServiceImpl) ActivateConfiguration(ctx context.Context, id string) (tax.ConfigurationResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return tax.ConfigurationResponse{}, err
	}

	var activated tax.Configuration
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cfg, err := s.repo.GetByID(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}
		if cfg.IsActive {
			activated = cfg
			return nil
		}
		if _, err := tax.NewEngine(cfg); err != nil {
			return err
		}

		current, err := s.repo.LockActive(ctx, cfg.CompanyID, cfg.Jurisdiction)
		switch {
		case err == nil:
			if err := s.repo.Deactivate(ctx, current.ID, cfg.CompanyID); err != nil {
				return err
			}
		case !errors.Is(err, tax.ErrConfigurationNotFound):
			return err
		}

		if err := s.repo.Activate(ctx, cfg.ID, cfg.CompanyID); err != nil {
			return err
		}
		activated, err = s.repo.GetByID(ctx, cfg.ID, cfg.CompanyID)
		return err
	})
	if err != nil {
		return tax.ConfigurationResponse{}, err
	}

	slog.InfoContext(ctx, "tax configuration activated",
		"configuration_id", activated.ID,
		"company_id", activated.CompanyID,
		"jurisdiction", activated.Jurisdiction,
	)
	return tax.NewConfigurationResponse(activated), nil
}

func (s *TaxServiceImpl) GetActiveConfiguration(ctx context.Context, jurisdiction string) (tax.ConfigurationResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return tax.ConfigurationResponse{}, err
	}

	cfg, err := s.active(ctx, claims.CompanyID, jurisdiction)
	if err != nil {
		return tax.ConfigurationResponse{}, err
	}
	return tax.NewConfigurationResponse(cfg), nil
}

func (s *TaxServiceImpl) ListConfigurations(ctx context.Context, jurisdiction string) ([]tax.ConfigurationResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	configs, err := s.repo.List(ctx, claims.CompanyID, strings.ToUpper(strings.TrimSpace(jurisdiction)))
	if err != nil {
		return nil, err
	}

	responses := make([]tax.ConfigurationResponse, 0, len(configs))
	for _, c := range configs {
		responses = append(responses, tax.NewConfigurationResponse(c))
	}
	return responses, nil
}

// ActiveEngine builds the engine of the company's active configuration for
// the jurisdiction.
func (s *TaxServiceImpl) ActiveEngine(ctx context.Context, companyID string, jurisdiction string) (*tax.Engine, error) {
	cfg, err := s.active(ctx, companyID, jurisdiction)
	if err != nil {
		return nil, err
	}
	return tax.NewEngine(cfg)
}

// active turns a missing active configuration into a ConfigurationError.
func (s *TaxServiceImpl) active(ctx context.Context, companyID string, jurisdiction string) (tax.Configuration, error) {
	jurisdiction = strings.ToUpper(strings.TrimSpace(jurisdiction))

	cfg, err := s.repo.GetActive(ctx, companyID, jurisdiction)
	if err != nil {
		if errors.Is(err, tax.ErrConfigurationNotFound) {
			return tax.Configuration{}, &tax.ConfigurationError{
				Jurisdiction: jurisdiction,
				Reason:       "no active tax configuration",
			}
		}
		return tax.Configuration{}, err
	}
	return cfg, nil
}
