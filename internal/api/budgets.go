package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/prontuario/odonto/internal/pdf"
	"github.com/prontuario/odonto/internal/repo"
	"github.com/prontuario/odonto/internal/whatsapp"
)

type budgetView struct {
	*orcamento.Budget
	Items          []itemView `json:"procedimentos"`
	Signed         bool       `json:"signed"`
	TotalFormatado string     `json:"totalFormatado"`
}

func budgetViewOf(b *orcamento.Budget) budgetView {
	return budgetView{Budget: b, Items: itemViews(b.Procedimentos), Signed: b.Signed(), TotalFormatado: orcamento.FormatBRL(b.Total())}
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	cid := companyID(r)
	patientID := mux.Vars(r)["patientId"]
	list, err := h.Budgets.ByPatient(r.Context(), cid, patientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, offset := ParseLimitOffset(r)
	total := len(list)
	start, end := pageBounds(total, limit, offset)
	out := make([]budgetView, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, budgetViewOf(&list[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orcamentos": out,
		"limit":      limit,
		"offset":     offset,
		"total":      total,
	})
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := h.Budgets.Budget(r.Context(), companyID(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetViewOf(b))
}

// DeleteBudget passa pelo ciclo de vida: orçamento assinado não é removido.
func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	b, err := h.Budgets.Budget(r.Context(), companyID(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	life := orcamento.NewLifecycle(h.Budgets)
	life.Open(b.CompanyID, b.PatientID, b, nil, nil)
	if err := life.Delete(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.audit(r, repo.AuditBudgetDeleted, b, nil)
	h.Log.Info().Str("budget_id", b.ID).Msg("orçamento removido")
	w.WriteHeader(http.StatusNoContent)
}

func branding(c *repo.Company) pdf.Branding {
	return pdf.Branding{
		CompanyName: c.Name,
		Phone:       deref(c.Phone),
		Address:     deref(c.Address),
		LogoURL:     deref(c.LogoURL),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) BudgetPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cid := companyID(r)
	b, err := h.Budgets.Budget(ctx, cid, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	company, err := h.Records.Company(ctx, cid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	patient, err := h.Records.Patient(ctx, cid, b.PatientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	name, data, err := h.Exporter.ExportBudget(ctx, b, branding(company), patient.FullName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePDF(w, name, data)
}

// SendSignature gera (uma vez) o link de assinatura e envia por WhatsApp. O link já gravado é
// devolvido mesmo quando o envio falha, para a clínica repassar manualmente.
func (h *Handler) SendSignature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cid := companyID(r)
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	b, err := h.Budgets.Budget(ctx, cid, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	patient, err := h.Records.Patient(ctx, cid, b.PatientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		phone = deref(patient.Phone)
	}
	d := &orcamento.SignatureDispatcher{Store: h.Budgets, Sender: h.Sender, BaseURL: h.PublicURL}
	doc, err := d.Send(ctx, b, phone, patient.FullName)
	if doc == nil {
		h.Metrics.SignatureLink("rejected")
		h.writeError(w, r, err)
		return
	}
	resp := map[string]interface{}{"orcamento": budgetViewOf(doc), "link": doc.SignatureLink, "sent": err == nil && h.Sender != nil}
	switch {
	case err == nil:
		h.Metrics.SignatureLink("sent")
	case errors.Is(err, whatsapp.ErrNotConfigured):
		h.Metrics.SignatureLink("not_configured")
		resp["warning"] = "Envio por WhatsApp não configurado. Compartilhe o link manualmente."
	default:
		h.Metrics.SignatureLink("send_failed")
		h.Log.Warn().Err(err).Str("budget_id", doc.ID).Msg("falha ao enviar link de assinatura")
		resp["warning"] = "Não foi possível enviar o link por WhatsApp. Compartilhe o link manualmente."
	}
	h.audit(r, repo.AuditSignatureLink, doc, map[string]interface{}{"sent": resp["sent"]})
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	procs, err := h.Records.Procedures(r.Context(), companyID(r), mux.Vars(r)["patientId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	type procView struct {
		orcamento.Procedure
		Label string `json:"label"`
	}
	out := make([]procView, len(procs))
	for i, p := range procs {
		out[i] = procView{Procedure: p, Label: orcamento.ToothLabel(p.SelectionTypes, p.Dentes)}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"procedimentos": out})
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.Records.Services(r.Context(), companyID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []orcamento.Service{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"servicos": list})
}
