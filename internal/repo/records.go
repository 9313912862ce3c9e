package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prontuario/odonto/internal/orcamento"
	"gorm.io/gorm"
)

// Records agrupa as leituras de cadastro usadas pelos handlers (pgx para empresas, gorm para o resto).
type Records struct {
	Pool *pgxpool.Pool
	DB   *gorm.DB
}

func (r *Records) Company(ctx context.Context, companyID string) (*Company, error) {
	return CompanyByID(ctx, r.Pool, companyID)
}

func (r *Records) Patient(ctx context.Context, companyID, patientID string) (*Patient, error) {
	return PatientByIDAndCompany(ctx, r.DB, patientID, companyID)
}

func (r *Records) Procedures(ctx context.Context, companyID, patientID string) ([]orcamento.Procedure, error) {
	return ProceduresByPatient(ctx, r.DB, companyID, patientID)
}

func (r *Records) Service(ctx context.Context, companyID, id string) (*orcamento.Service, error) {
	return ServiceByID(ctx, r.DB, companyID, id)
}

func (r *Records) Services(ctx context.Context, companyID string) ([]orcamento.Service, error) {
	return ServicesByCompany(ctx, r.DB, companyID)
}

func (r *Records) Anamnese(ctx context.Context, companyID, patientID, id string) (*Anamnese, error) {
	return AnamneseByID(ctx, r.DB, companyID, patientID, id)
}

func (s *BudgetStore) Budget(ctx context.Context, companyID, id string) (*orcamento.Budget, error) {
	return BudgetByID(ctx, s.Pool, companyID, id)
}

func (s *BudgetStore) ByPatient(ctx context.Context, companyID, patientID string) ([]orcamento.Budget, error) {
	return BudgetsByPatient(ctx, s.Pool, companyID, patientID)
}

func (s *BudgetStore) ByToken(ctx context.Context, token string) (*orcamento.Budget, error) {
	return BudgetBySignatureToken(ctx, s.Pool, token)
}

func (s *BudgetStore) Sign(ctx context.Context, b *orcamento.Budget) error {
	return SignBudget(ctx, s.Pool, b)
}
