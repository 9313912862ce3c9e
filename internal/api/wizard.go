package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/prontuario/odonto/internal/repo"
)

type itemView struct {
	orcamento.LineItem
	Label          string `json:"label"`
	PrecoCentavos  int64  `json:"precoCentavos"`
	PrecoFormatado string `json:"precoFormatado"`
}

type sessionView struct {
	ID          string                `json:"id"`
	PatientID   string                `json:"patient_id"`
	BudgetID    string                `json:"budget_id,omitempty"`
	Step        int                   `json:"step"`
	IsNew       bool                  `json:"is_new"`
	ReadOnly    bool                  `json:"read_only"`
	Items       []itemView            `json:"procedimentos"`
	Observacoes string                `json:"observacoes"`
	Entrada     *orcamento.Entrada    `json:"entrada,omitempty"`
	Parcelado   *orcamento.Parcelado  `json:"parcelado,omitempty"`
	Pagamentos  []orcamento.Pagamento `json:"pagamentos,omitempty"`
	NextParcela int                   `json:"proxima_parcela,omitempty"`
	Totais      orcamento.Breakdown   `json:"totais"`
}

func itemViews(items []orcamento.LineItem) []itemView {
	out := make([]itemView, len(items))
	for i, it := range items {
		out[i] = itemView{LineItem: it, Label: it.Label(), PrecoCentavos: it.Price(), PrecoFormatado: orcamento.FormatBRL(it.Price())}
	}
	return out
}

func viewOf(sess *session) sessionView {
	l := sess.life
	v := sessionView{
		ID:          sess.id,
		PatientID:   sess.patientID,
		BudgetID:    l.BudgetID(),
		Step:        int(l.Step()),
		IsNew:       l.IsNew(),
		ReadOnly:    l.ReadOnly(),
		Items:       itemViews(l.Items()),
		Observacoes: l.Observacoes(),
		Totais:      l.Breakdown(),
	}
	if plan := l.Plan(); plan != nil {
		switch plan.Forma() {
		case orcamento.FormaParcelado:
			v.Entrada = plan.Entrada()
			p := plan.Parcelado()
			v.Parcelado = &p
		case orcamento.FormaMultiplas:
			v.Pagamentos = plan.Pagamentos()
			v.NextParcela = plan.NextParcela()
		}
	}
	return v
}

// available junta procedimentos do paciente e serviços do catálogo: ambos podem virar itens.
func (h *Handler) available(ctx context.Context, companyID, patientID string) ([]orcamento.Procedure, error) {
	procs, err := h.Records.Procedures(ctx, companyID, patientID)
	if err != nil {
		return nil, err
	}
	services, err := h.Records.Services(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for _, s := range services {
		procs = append(procs, s.AsProcedure())
	}
	return procs, nil
}

// OpenSession abre o assistente: novo orçamento (passo 1) ou edição de um existente (passo 2).
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	cid := companyID(r)
	patientID := mux.Vars(r)["patientId"]
	var req struct {
		BudgetID     string   `json:"budget_id"`
		ProcedureIDs []string `json:"procedure_ids"`
	}
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if _, err := h.Records.Patient(ctx, cid, patientID); err != nil {
		h.writeError(w, r, err)
		return
	}
	available, err := h.available(ctx, cid, patientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var existing *orcamento.Budget
	if req.BudgetID != "" {
		existing, err = h.Budgets.Budget(ctx, cid, req.BudgetID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if existing.PatientID != patientID {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
	}
	life := orcamento.NewLifecycle(h.Budgets)
	life.Open(cid, patientID, existing, available, req.ProcedureIDs)

	now := h.now()
	for i := h.sessions.sweep(now); i > 0; i-- {
		h.Metrics.SessionClosed()
	}
	sess := h.sessions.add(cid, patientID, life, now)
	h.Metrics.SessionOpened()
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

// withSession trava a sessão, executa fn e responde com o estado atualizado.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, fn func(sess *session) error) {
	sess, err := h.sessions.get(mux.Vars(r)["sid"], companyID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.life.IsOpen() {
		h.writeError(w, r, errSessionNotFound)
		return
	}
	sess.touched = h.now()
	if fn != nil {
		if err := fn(sess); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, nil)
}

// CloseSession descarta o assistente sem salvar nada.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.get(mux.Vars(r)["sid"], companyID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.mu.Lock()
	sess.life.Close()
	sess.mu.Unlock()
	if h.sessions.remove(sess.id) {
		h.Metrics.SessionClosed()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddSessionProcedure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProcedureID string `json:"procedure_id"`
		ServiceID   string `json:"service_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	h.withSession(w, r, func(sess *session) error {
		ctx := r.Context()
		if req.ServiceID != "" {
			s, err := h.Records.Service(ctx, sess.companyID, req.ServiceID)
			if err != nil {
				return err
			}
			return sess.life.AddProcedure(s.AsProcedure())
		}
		procs, err := h.Records.Procedures(ctx, sess.companyID, sess.patientID)
		if err != nil {
			return err
		}
		for _, p := range procs {
			if p.ID == req.ProcedureID {
				return sess.life.AddProcedure(p)
			}
		}
		return repo.ErrNotFound
	})
}

func (h *Handler) RemoveSessionProcedure(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.withSession(w, r, func(sess *session) error {
		return sess.life.RemoveProcedure(id)
	})
}

// PatchSessionProcedure altera o preço (centavos ou texto "1.234,56") e/ou a comissão de um item.
func (h *Handler) PatchSessionProcedure(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		ValorCentavos   *int64   `json:"valorCentavos"`
		Valor           *string  `json:"valor"`
		ComissaoPercent *float64 `json:"comissaoPercent"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	h.withSession(w, r, func(sess *session) error {
		price := req.ValorCentavos
		if price == nil && req.Valor != nil {
			c, err := orcamento.ParseCentavos(*req.Valor)
			if err != nil {
				return err
			}
			price = &c
		}
		if price != nil {
			if err := sess.life.SetPriceOverride(id, *price); err != nil {
				return err
			}
		}
		if req.ComissaoPercent != nil {
			return sess.life.SetCommissionOverride(id, *req.ComissaoPercent)
		}
		return nil
	})
}

// PatchSession é a mutação genérica de campo: {"field": "...", "value": ...}.
func (h *Handler) PatchSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string          `json:"field"`
		Value json.RawMessage `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	h.withSession(w, r, func(sess *session) error {
		field := orcamento.Field(req.Field)
		value, err := decodeFieldValue(field, req.Value)
		if err != nil {
			return err
		}
		return sess.life.Mutate(field, value)
	})
}

func decodeFieldValue(field orcamento.Field, raw json.RawMessage) (interface{}, error) {
	isNull := len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
	switch field {
	case orcamento.FieldDesconto:
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, orcamento.ErrInvalidValue
		}
		return orcamento.ParseCentavos(s)
	case orcamento.FieldObservacoes, orcamento.FieldFormaPagamento:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, orcamento.ErrInvalidValue
		}
		return s, nil
	case orcamento.FieldEntrada:
		if isNull {
			return nil, nil
		}
		var e orcamento.Entrada
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, orcamento.ErrInvalidValue
		}
		return e, nil
	case orcamento.FieldParcelado:
		var p orcamento.Parcelado
		if isNull || json.Unmarshal(raw, &p) != nil {
			return nil, orcamento.ErrInvalidValue
		}
		return p, nil
	}
	return nil, orcamento.ErrUnknownField
}

// AddSessionPayment acrescenta um pagamento; sem "parcela" usa a próxima sugerida.
func (h *Handler) AddSessionPayment(w http.ResponseWriter, r *http.Request) {
	var pg orcamento.Pagamento
	if err := decodeBody(r, &pg); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	h.withSession(w, r, func(sess *session) error {
		if pg.Parcela == 0 && sess.life.Plan() != nil {
			pg.Parcela = sess.life.Plan().NextParcela()
		}
		return sess.life.AddPayment(pg)
	})
}

func (h *Handler) RemoveSessionPayment(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, `{"error":"invalid index"}`, http.StatusBadRequest)
		return
	}
	h.withSession(w, r, func(sess *session) error {
		return sess.life.RemovePayment(index)
	})
}

func (h *Handler) AdvanceSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *session) error {
		return sess.life.AdvanceToPayment()
	})
}

func (h *Handler) BackSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sess *session) error {
		return sess.life.GoBack()
	})
}

func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	h.persistSession(w, r, http.StatusCreated, (*orcamento.Lifecycle).SaveDraft)
}

func (h *Handler) FinalizeSession(w http.ResponseWriter, r *http.Request) {
	h.persistSession(w, r, http.StatusOK, (*orcamento.Lifecycle).Finalize)
}

// persistSession grava o orçamento e encerra a sessão. Se a gravação falhar a sessão continua
// aberta com o mesmo estado e o cliente pode tentar de novo.
func (h *Handler) persistSession(w http.ResponseWriter, r *http.Request, status int,
	persist func(*orcamento.Lifecycle, context.Context) (*orcamento.Budget, error)) {
	sess, err := h.sessions.get(mux.Vars(r)["sid"], companyID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.life.IsOpen() {
		h.writeError(w, r, errSessionNotFound)
		return
	}
	sess.touched = h.now()
	b, err := persist(sess.life, r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.sessions.remove(sess.id) {
		h.Metrics.SessionClosed()
	}
	h.Metrics.BudgetSaved(string(b.Status))
	h.audit(r, repo.AuditBudgetSaved, b, map[string]interface{}{"status": b.Status, "total_centavos": b.ValorTotalCentavos})
	h.Log.Info().Str("budget_id", b.ID).Str("status", string(b.Status)).Msg("orçamento salvo")
	writeJSON(w, status, map[string]interface{}{"orcamento": budgetViewOf(b)})
}
