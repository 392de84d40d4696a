package benefit

import "context"

type EnrollmentRepository interface {
	ListByCompanyID(ctx context.Context, companyID string) ([]Enrollment, error)
}
