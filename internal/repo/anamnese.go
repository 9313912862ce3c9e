package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type AnamneseQuestion struct {
	Pergunta string `json:"pergunta"`
	Resposta string `json:"resposta"`
}

type AnamneseSection struct {
	Titulo    string             `json:"titulo"`
	Perguntas []AnamneseQuestion `json:"perguntas"`
}

// Anamnese é o questionário de saúde respondido pelo paciente (seção → pergunta → resposta).
type Anamnese struct {
	ID                string
	CompanyID         string
	PatientID         string
	Titulo            string
	Secoes            []AnamneseSection
	SignedAt          *time.Time
	SignedBy          string
	SignatureImageURL string
	CreatedAt         time.Time
}

type anamneseRow struct {
	ID                string
	CompanyID         string
	PatientID         string
	Titulo            string
	Secoes            []byte
	SignedAt          *time.Time
	SignedBy          *string
	SignatureImageURL *string
	CreatedAt         time.Time
}

func AnamneseByID(ctx context.Context, db *gorm.DB, companyID, patientID, id string) (*Anamnese, error) {
	var r anamneseRow
	err := db.WithContext(ctx).Raw(`
		SELECT id::text AS id, company_id::text AS company_id, patient_id::text AS patient_id, titulo, secoes,
		       signed_at, signed_by, signature_image_url, created_at
		FROM anamneses
		WHERE id = ? AND company_id = ? AND patient_id = ? AND deleted_at IS NULL
	`, id, companyID, patientID).Scan(&r).Error
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		return nil, ErrNotFound
	}
	a := &Anamnese{
		ID:                r.ID,
		CompanyID:         r.CompanyID,
		PatientID:         r.PatientID,
		Titulo:            r.Titulo,
		SignedAt:          r.SignedAt,
		SignedBy:          deref(r.SignedBy),
		SignatureImageURL: deref(r.SignatureImageURL),
		CreatedAt:         r.CreatedAt,
	}
	if len(r.Secoes) > 0 {
		if err := json.Unmarshal(r.Secoes, &a.Secoes); err != nil {
			return nil, fmt.Errorf("anamnese %s: secoes: %w", r.ID, err)
		}
	}
	return a, nil
}

func CreateAnamnese(ctx context.Context, db *gorm.DB, companyID, patientID, titulo string, secoes []AnamneseSection) (string, error) {
	if secoes == nil {
		secoes = []AnamneseSection{}
	}
	raw, err := json.Marshal(secoes)
	if err != nil {
		return "", err
	}
	var res struct{ ID string }
	err = db.WithContext(ctx).Raw(`
		INSERT INTO anamneses (company_id, patient_id, titulo, secoes)
		VALUES (?, ?, ?, ?::jsonb)
		RETURNING id::text AS id
	`, companyID, patientID, titulo, string(raw)).Scan(&res).Error
	return res.ID, err
}
