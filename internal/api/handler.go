package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prontuario/odonto/internal/auth"
	"github.com/prontuario/odonto/internal/metrics"
	"github.com/prontuario/odonto/internal/middleware"
	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/prontuario/odonto/internal/pdf"
	"github.com/prontuario/odonto/internal/repo"
	"github.com/rs/zerolog"
)

// Records são as leituras de cadastro (empresa, paciente, procedimentos, serviços, anamneses).
type Records interface {
	Company(ctx context.Context, companyID string) (*repo.Company, error)
	Patient(ctx context.Context, companyID, patientID string) (*repo.Patient, error)
	Procedures(ctx context.Context, companyID, patientID string) ([]orcamento.Procedure, error)
	Service(ctx context.Context, companyID, id string) (*orcamento.Service, error)
	Services(ctx context.Context, companyID string) ([]orcamento.Service, error)
	Anamnese(ctx context.Context, companyID, patientID, id string) (*repo.Anamnese, error)
}

// Budgets é o armazenamento de orçamentos: escrita via orcamento.Store mais as consultas.
type Budgets interface {
	orcamento.Store
	Budget(ctx context.Context, companyID, id string) (*orcamento.Budget, error)
	ByPatient(ctx context.Context, companyID, patientID string) ([]orcamento.Budget, error)
	ByToken(ctx context.Context, token string) (*orcamento.Budget, error)
	Sign(ctx context.Context, b *orcamento.Budget) error
}

// Uploader grava a imagem da assinatura; sem ele a assinatura fica como data URL no documento.
type Uploader interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Auditor registra eventos de orçamento; falhas só vão para o log.
type Auditor interface {
	Record(ctx context.Context, ev repo.AuditEvent) error
}

type Handler struct {
	Records   Records
	Budgets   Budgets
	Exporter  *pdf.Exporter
	Sender    orcamento.LinkSender
	Uploads   Uploader
	Audit     Auditor
	PublicURL string
	Metrics   *metrics.Metrics
	Log       zerolog.Logger

	sessions *sessionStore
	now      func() time.Time
}

func NewHandler(records Records, budgets Budgets, log zerolog.Logger) *Handler {
	return &Handler{
		Records:  records,
		Budgets:  budgets,
		Exporter: &pdf.Exporter{Log: log},
		Log:      log,
		sessions: newSessionStore(),
		now:      time.Now,
	}
}

func (h *Handler) audit(r *http.Request, action string, b *orcamento.Budget, meta interface{}) {
	if h.Audit == nil || b == nil {
		return
	}
	ctx := r.Context()
	ev := repo.AuditEvent{
		Action:    action,
		ActorType: repo.AuditActorUser,
		ActorID:   auth.UserIDFrom(ctx),
		CompanyID: b.CompanyID,
		BudgetID:  b.ID,
		RequestID: middleware.RequestIDFromContext(ctx),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Metadata:  meta,
	}
	if ev.ActorID == "" {
		ev.ActorType = repo.AuditActorPatient
	}
	if err := h.Audit.Record(ctx, ev); err != nil {
		h.Log.Warn().Err(err).Str("action", action).Str("budget_id", b.ID).Msg("audit")
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduz os erros do domínio em status HTTP com a mensagem em pt-BR.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *orcamento.ValidationError
	var pe *orcamento.PersistenceError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"error": ve.Message, "code": ve.Err.Error()})
	case errors.As(err, &pe):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("falha ao persistir orçamento")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": orcamento.UserMessage(err), "retry": true})
	case errors.Is(err, orcamento.ErrBudgetSigned):
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": orcamento.UserMessage(err)})
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, errSessionNotFound), errors.Is(err, orcamento.ErrItemNotFound):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	case errors.Is(err, orcamento.ErrInvalidStep), errors.Is(err, orcamento.ErrNotNew), errors.Is(err, orcamento.ErrNotOpen):
		writeJSON(w, http.StatusConflict, map[string]interface{}{"error": err.Error()})
	case errors.Is(err, orcamento.ErrUnknownField), errors.Is(err, orcamento.ErrInvalidValue),
		errors.Is(err, orcamento.ErrPaymentIndex), errors.Is(err, orcamento.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("erro interno")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// companyID devolve a empresa do token; RequireAuth já garante que não é vazia.
func companyID(r *http.Request) string {
	return auth.CompanyIDFrom(r.Context())
}

// Assinaturas chegam como data URL no corpo.
const maxBodyBytes = 8 << 20

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}
