package repo

import (
	"context"

	"gorm.io/gorm"
)

type Patient struct {
	ID        string
	CompanyID string
	FullName  string
	Phone     *string
	Email     *string
	BirthDate *string
}

func PatientByIDAndCompany(ctx context.Context, db *gorm.DB, id, companyID string) (*Patient, error) {
	var p Patient
	err := db.WithContext(ctx).Raw(`
		SELECT id::text AS id, company_id::text AS company_id, full_name, phone, email, birth_date::text AS birth_date
		FROM patients
		WHERE id = ? AND company_id = ? AND deleted_at IS NULL
	`, id, companyID).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, ErrNotFound
	}
	return &p, nil
}

func CreatePatient(ctx context.Context, db *gorm.DB, companyID, fullName string, phone, email *string) (string, error) {
	var res struct{ ID string }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO patients (company_id, full_name, phone, email)
		VALUES (?, ?, ?, ?)
		RETURNING id::text AS id
	`, companyID, fullName, phone, email).Scan(&res).Error
	return res.ID, err
}
