package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	AuditBudgetSaved   = "ORCAMENTO_SALVO"
	AuditBudgetDeleted = "ORCAMENTO_REMOVIDO"
	AuditSignatureLink = "LINK_ASSINATURA_ENVIADO"
	AuditBudgetSigned  = "ORCAMENTO_ASSINADO"
	AuditActorUser     = "USER"
	AuditActorPatient  = "PATIENT"
	AuditActorSystem   = "SYSTEM"
)

// AuditEvent registra quem mexeu em um orçamento. O paciente que assina pelo link público
// entra como PATIENT sem ActorID.
type AuditEvent struct {
	Action    string
	ActorType string
	ActorID   string
	CompanyID string
	BudgetID  string
	RequestID string
	IP        string
	UserAgent string
	Metadata  interface{}
	CreatedAt time.Time
}

// AuditLog grava eventos de orçamento no Postgres.
type AuditLog struct {
	Pool *pgxpool.Pool
}

func (a *AuditLog) Record(ctx context.Context, ev AuditEvent) error {
	return CreateAuditEvent(ctx, a.Pool, ev)
}

func CreateAuditEvent(ctx context.Context, pool *pgxpool.Pool, ev AuditEvent) error {
	var meta []byte
	if ev.Metadata != nil {
		var marshalErr error
		meta, marshalErr = json.Marshal(ev.Metadata)
		if marshalErr != nil {
			return marshalErr
		}
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO orcamento_eventos (
			company_id, orcamento_id, action, actor_type, actor_id, request_id, ip, user_agent, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		ev.CompanyID, ev.BudgetID, ev.Action, ev.ActorType, nullIfEmpty(ev.ActorID),
		nullIfEmpty(ev.RequestID), nullIfEmpty(ev.IP), nullIfEmpty(ev.UserAgent), meta,
	)
	return err
}

// AuditEventsByBudget lista os eventos de um orçamento em ordem cronológica.
func AuditEventsByBudget(ctx context.Context, pool *pgxpool.Pool, companyID, budgetID string) ([]AuditEvent, error) {
	rows, err := pool.Query(ctx, `
		SELECT action, actor_type, COALESCE(actor_id, ''), company_id::text, orcamento_id::text,
			COALESCE(request_id, ''), COALESCE(ip, ''), COALESCE(user_agent, ''), metadata, created_at
		FROM orcamento_eventos
		WHERE company_id = $1 AND orcamento_id = $2
		ORDER BY created_at
	`, companyID, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []AuditEvent
	for rows.Next() {
		var ev AuditEvent
		var meta []byte
		if err := rows.Scan(&ev.Action, &ev.ActorType, &ev.ActorID, &ev.CompanyID, &ev.BudgetID,
			&ev.RequestID, &ev.IP, &ev.UserAgent, &meta, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			var m map[string]interface{}
			if err := json.Unmarshal(meta, &m); err == nil {
				ev.Metadata = m
			}
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}
