package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	GetByIDs(ctx context.Context, companyID string, ids []string) (map[string]Employee, error)
}
