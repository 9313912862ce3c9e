package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prontuario/odonto/internal/orcamento"
	"gorm.io/gorm"
)

// procedureRow espelha a tabela procedimentos; dentes e selection_types são JSONB.
type procedureRow struct {
	ID              string
	Procedimento    string
	ValorCentavos   int64
	ComissaoPercent float64
	Dentes          []byte
	SelectionTypes  []byte
	Estado          string
}

func (r procedureRow) toDomain() (orcamento.Procedure, error) {
	p := orcamento.Procedure{
		ID:              r.ID,
		Procedimento:    r.Procedimento,
		ValorCentavos:   r.ValorCentavos,
		Estado:          orcamento.ProcedureState(r.Estado),
		ComissaoPercent: r.ComissaoPercent,
	}
	if len(r.Dentes) > 0 {
		if err := json.Unmarshal(r.Dentes, &p.Dentes); err != nil {
			return p, fmt.Errorf("procedimento %s: dentes: %w", r.ID, err)
		}
	}
	if len(r.SelectionTypes) > 0 {
		if err := json.Unmarshal(r.SelectionTypes, &p.SelectionTypes); err != nil {
			return p, fmt.Errorf("procedimento %s: selection_types: %w", r.ID, err)
		}
	}
	return p, nil
}

// ProceduresByPatient lista os procedimentos ativos do paciente, na ordem de cadastro.
func ProceduresByPatient(ctx context.Context, db *gorm.DB, companyID, patientID string) ([]orcamento.Procedure, error) {
	var rows []procedureRow
	err := db.WithContext(ctx).Raw(`
		SELECT id::text AS id, procedimento, valor_centavos, comissao_percent::float8 AS comissao_percent,
		       dentes, selection_types, estado
		FROM procedimentos
		WHERE company_id = ? AND patient_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id
	`, companyID, patientID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]orcamento.Procedure, 0, len(rows))
	for _, r := range rows {
		p, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func CreateProcedure(ctx context.Context, db *gorm.DB, companyID, patientID string, p orcamento.Procedure) (string, error) {
	dentes, err := json.Marshal(nonNilTeeth(p.Dentes))
	if err != nil {
		return "", err
	}
	sel, err := json.Marshal(nonNilSelection(p.SelectionTypes))
	if err != nil {
		return "", err
	}
	estado := p.Estado
	if estado == "" {
		estado = orcamento.EstadoARealizar
	}
	var res struct{ ID string }
	err = db.WithContext(ctx).Raw(`
		INSERT INTO procedimentos (company_id, patient_id, procedimento, valor_centavos, comissao_percent, dentes, selection_types, estado)
		VALUES (?, ?, ?, ?, ?, ?::jsonb, ?::jsonb, ?)
		RETURNING id::text AS id
	`, companyID, patientID, p.Procedimento, p.ValorCentavos, p.ComissaoPercent, string(dentes), string(sel), string(estado)).Scan(&res).Error
	return res.ID, err
}

// ServicesByCompany lista o catálogo de serviços ativos da empresa.
func ServicesByCompany(ctx context.Context, db *gorm.DB, companyID string) ([]orcamento.Service, error) {
	var list []orcamento.Service
	err := db.WithContext(ctx).Raw(`
		SELECT id::text AS id, nome, valor_centavos, comissao_percent::float8 AS comissao_percent
		FROM servicos
		WHERE company_id = ? AND ativo
		ORDER BY nome
	`, companyID).Scan(&list).Error
	return list, err
}

func ServiceByID(ctx context.Context, db *gorm.DB, companyID, id string) (*orcamento.Service, error) {
	var s orcamento.Service
	err := db.WithContext(ctx).Raw(`
		SELECT id::text AS id, nome, valor_centavos, comissao_percent::float8 AS comissao_percent
		FROM servicos
		WHERE id = ? AND company_id = ? AND ativo
	`, id, companyID).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == "" {
		return nil, ErrNotFound
	}
	return &s, nil
}

func nonNilTeeth(t []orcamento.Tooth) []orcamento.Tooth {
	if t == nil {
		return []orcamento.Tooth{}
	}
	return t
}

func nonNilSelection(s []orcamento.SelectionType) []orcamento.SelectionType {
	if s == nil {
		return []orcamento.SelectionType{}
	}
	return s
}
