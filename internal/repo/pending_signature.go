package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// PendingSignatureRow é um orçamento aguardando assinatura cujo link já foi gerado.
type PendingSignatureRow struct {
	BudgetID      string    `gorm:"column:budget_id"`
	CompanyID     string    `gorm:"column:company_id"`
	PatientName   string    `gorm:"column:patient_name"`
	PatientPhone  *string   `gorm:"column:patient_phone"`
	SignatureLink string    `gorm:"column:signature_link"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// ListPendingSignatures retorna orçamentos em aguardando_assinatura sem alteração desde before.
func ListPendingSignatures(ctx context.Context, db *gorm.DB, before time.Time) ([]PendingSignatureRow, error) {
	var rows []PendingSignatureRow
	err := db.WithContext(ctx).Raw(`
		SELECT o.id::text AS budget_id, o.company_id::text AS company_id, p.full_name AS patient_name,
			p.phone AS patient_phone, o.signature_link, o.updated_at
		FROM orcamentos o
		JOIN patients p ON p.id = o.patient_id AND p.deleted_at IS NULL
		WHERE o.status = 'aguardando_assinatura'
			AND o.signed_at IS NULL AND o.deleted_at IS NULL
			AND o.signature_link IS NOT NULL
			AND o.updated_at < ?
		ORDER BY o.updated_at
	`, before).Scan(&rows).Error
	return rows, err
}
