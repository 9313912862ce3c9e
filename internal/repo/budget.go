package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prontuario/odonto/internal/orcamento"
)

const budgetColumns = `
	id::text, company_id::text, patient_id::text, procedimentos, desconto_centavos, valor_total_centavos,
	observacoes, forma_pagamento, entrada, parcelado, pagamentos, status,
	signature_token, signature_link, signed_at, signed_by, signature_image_url, created_at, updated_at`

// BudgetStore persiste orçamentos como um documento por linha (snapshot dos itens em JSONB).
// Orçamentos assinados nunca são reescritos: UPDATE e DELETE filtram signed_at IS NULL.
type BudgetStore struct {
	Pool *pgxpool.Pool
}

func (s *BudgetStore) CreateBudget(ctx context.Context, b *orcamento.Budget) (string, error) {
	cols, err := encodeBudget(b)
	if err != nil {
		return "", err
	}
	var id string
	err = s.Pool.QueryRow(ctx, `
		INSERT INTO orcamentos (company_id, patient_id, procedimentos, desconto_centavos, valor_total_centavos,
			observacoes, forma_pagamento, entrada, parcelado, pagamentos, status, signature_token, signature_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id::text
	`, b.CompanyID, b.PatientID, cols.procedimentos, b.DescontoCentavos, b.ValorTotalCentavos,
		b.Observacoes, string(b.FormaPagamento), cols.entrada, cols.parcelado, cols.pagamentos, string(b.Status),
		nullIfEmpty(b.SignatureToken), nullIfEmpty(b.SignatureLink)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateBudget grava o documento sem desfazer o estado de assinatura já persistido:
// token e link existentes ficam, e o status só avança. Os valores efetivos voltam para b.
func (s *BudgetStore) UpdateBudget(ctx context.Context, id string, b *orcamento.Budget) error {
	cols, err := encodeBudget(b)
	if err != nil {
		return err
	}
	var (
		status      string
		token, link *string
	)
	err = s.Pool.QueryRow(ctx, `
		UPDATE orcamentos SET
			procedimentos = $1, desconto_centavos = $2, valor_total_centavos = $3, observacoes = $4,
			forma_pagamento = $5, entrada = $6, parcelado = $7, pagamentos = $8,
			status = CASE
				WHEN status = 'finalizado' THEN status
				WHEN status = 'aguardando_assinatura' AND $9::text <> 'finalizado' THEN status
				ELSE $9::text
			END,
			signature_token = COALESCE(signature_token, $10),
			signature_link = COALESCE(signature_link, $11),
			updated_at = now()
		WHERE id = $12 AND deleted_at IS NULL AND signed_at IS NULL
		RETURNING status, signature_token, signature_link
	`, cols.procedimentos, b.DescontoCentavos, b.ValorTotalCentavos, b.Observacoes,
		string(b.FormaPagamento), cols.entrada, cols.parcelado, cols.pagamentos, string(b.Status),
		nullIfEmpty(b.SignatureToken), nullIfEmpty(b.SignatureLink), id).Scan(&status, &token, &link)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.missingOrSigned(ctx, id)
	}
	if err != nil {
		return err
	}
	b.Status = orcamento.Status(status)
	if token != nil {
		b.SignatureToken = *token
	}
	if link != nil {
		b.SignatureLink = *link
	}
	return nil
}

// DeleteBudget faz soft delete.
func (s *BudgetStore) DeleteBudget(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orcamentos SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL AND signed_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrSigned(ctx, id)
	}
	return nil
}

func (s *BudgetStore) missingOrSigned(ctx context.Context, id string) error {
	var signed bool
	err := s.Pool.QueryRow(ctx, `SELECT signed_at IS NOT NULL FROM orcamentos WHERE id = $1 AND deleted_at IS NULL`, id).Scan(&signed)
	if err != nil {
		return notFound(err)
	}
	if signed {
		return orcamento.ErrBudgetSigned
	}
	return ErrNotFound
}

func BudgetByID(ctx context.Context, pool *pgxpool.Pool, companyID, id string) (*orcamento.Budget, error) {
	row := pool.QueryRow(ctx, `SELECT `+budgetColumns+` FROM orcamentos
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`, id, companyID)
	return scanBudget(row)
}

// BudgetBySignatureToken resolve o link público de assinatura.
func BudgetBySignatureToken(ctx context.Context, pool *pgxpool.Pool, token string) (*orcamento.Budget, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	row := pool.QueryRow(ctx, `SELECT `+budgetColumns+` FROM orcamentos
		WHERE signature_token = $1 AND deleted_at IS NULL`, token)
	return scanBudget(row)
}

func BudgetsByPatient(ctx context.Context, pool *pgxpool.Pool, companyID, patientID string) ([]orcamento.Budget, error) {
	rows, err := pool.Query(ctx, `SELECT `+budgetColumns+` FROM orcamentos
		WHERE company_id = $1 AND patient_id = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`, companyID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []orcamento.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// SignBudget grava a assinatura uma única vez; uma segunda tentativa devolve orcamento.ErrBudgetSigned.
func SignBudget(ctx context.Context, pool *pgxpool.Pool, b *orcamento.Budget) error {
	if b.SignedAt == nil {
		return errors.New("sign budget: signedAt vazio")
	}
	tag, err := pool.Exec(ctx, `
		UPDATE orcamentos SET signed_at = $1, signed_by = $2, signature_image_url = $3, status = $4, updated_at = now()
		WHERE id = $5 AND deleted_at IS NULL AND signed_at IS NULL
	`, *b.SignedAt, b.SignedBy, nullIfEmpty(b.SignatureImageURL), string(b.Status), b.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		s := &BudgetStore{Pool: pool}
		return s.missingOrSigned(ctx, b.ID)
	}
	return nil
}

type budgetJSON struct {
	procedimentos []byte
	entrada       []byte
	parcelado     []byte
	pagamentos    []byte
}

func encodeBudget(b *orcamento.Budget) (budgetJSON, error) {
	var out budgetJSON
	items := b.Procedimentos
	if items == nil {
		items = []orcamento.LineItem{}
	}
	var err error
	if out.procedimentos, err = json.Marshal(items); err != nil {
		return out, fmt.Errorf("encode procedimentos: %w", err)
	}
	if b.Entrada != nil {
		if out.entrada, err = json.Marshal(b.Entrada); err != nil {
			return out, fmt.Errorf("encode entrada: %w", err)
		}
	}
	if b.Parcelado != nil {
		if out.parcelado, err = json.Marshal(b.Parcelado); err != nil {
			return out, fmt.Errorf("encode parcelado: %w", err)
		}
	}
	if b.Pagamentos != nil {
		if out.pagamentos, err = json.Marshal(b.Pagamentos); err != nil {
			return out, fmt.Errorf("encode pagamentos: %w", err)
		}
	}
	return out, nil
}

func scanBudget(row pgx.Row) (*orcamento.Budget, error) {
	var (
		b                                        orcamento.Budget
		procs, entrada, parcelado, pagamentos    []byte
		forma, status                            string
		token, link, signedBy, signatureImageURL *string
		signedAt                                 *time.Time
	)
	err := row.Scan(&b.ID, &b.CompanyID, &b.PatientID, &procs, &b.DescontoCentavos, &b.ValorTotalCentavos,
		&b.Observacoes, &forma, &entrada, &parcelado, &pagamentos, &status,
		&token, &link, &signedAt, &signedBy, &signatureImageURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	b.FormaPagamento = orcamento.FormaPagamento(forma)
	b.Status = orcamento.Status(status)
	b.SignatureToken = deref(token)
	b.SignatureLink = deref(link)
	b.SignedAt = signedAt
	b.SignedBy = deref(signedBy)
	b.SignatureImageURL = deref(signatureImageURL)
	if err := json.Unmarshal(procs, &b.Procedimentos); err != nil {
		return nil, fmt.Errorf("orcamento %s: procedimentos: %w", b.ID, err)
	}
	if len(entrada) > 0 {
		b.Entrada = &orcamento.Entrada{}
		if err := json.Unmarshal(entrada, b.Entrada); err != nil {
			return nil, fmt.Errorf("orcamento %s: entrada: %w", b.ID, err)
		}
	}
	if len(parcelado) > 0 {
		b.Parcelado = &orcamento.Parcelado{}
		if err := json.Unmarshal(parcelado, b.Parcelado); err != nil {
			return nil, fmt.Errorf("orcamento %s: parcelado: %w", b.ID, err)
		}
	}
	if len(pagamentos) > 0 {
		if err := json.Unmarshal(pagamentos, &b.Pagamentos); err != nil {
			return nil, fmt.Errorf("orcamento %s: pagamentos: %w", b.ID, err)
		}
	}
	return &b, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
