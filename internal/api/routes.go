package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register monta as rotas: public sem autenticação (fluxo de assinatura do paciente) e
// protected já com RequireAuth aplicado.
func (h *Handler) Register(public, protected *mux.Router) {
	public.HandleFunc("/orcamentos/by-token", h.GetBudgetByToken).Methods(http.MethodGet)
	public.HandleFunc("/orcamentos/sign", h.SignBudget).Methods(http.MethodPost)

	protected.HandleFunc("/servicos", h.ListServices).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{patientId}/procedimentos", h.ListProcedures).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{patientId}/orcamentos", h.ListBudgets).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{patientId}/orcamentos/sessions", h.OpenSession).Methods(http.MethodPost)
	protected.HandleFunc("/patients/{patientId}/anamneses/{id}/pdf", h.AnamnesePDF).Methods(http.MethodGet)

	protected.HandleFunc("/orcamentos/sessions/{sid}", h.GetSession).Methods(http.MethodGet)
	protected.HandleFunc("/orcamentos/sessions/{sid}", h.PatchSession).Methods(http.MethodPatch)
	protected.HandleFunc("/orcamentos/sessions/{sid}", h.CloseSession).Methods(http.MethodDelete)
	protected.HandleFunc("/orcamentos/sessions/{sid}/procedures", h.AddSessionProcedure).Methods(http.MethodPost)
	protected.HandleFunc("/orcamentos/sessions/{sid}/procedures/{id}", h.PatchSessionProcedure).Methods(http.MethodPatch)
	protected.HandleFunc("/orcamentos/sessions/{sid}/procedures/{id}", h.RemoveSessionProcedure).Methods(http.MethodDelete)
	protected.HandleFunc("/orcamentos/sessions/{sid}/pagamentos", h.AddSessionPayment).Methods(http.MethodPost)
	protected.HandleFunc("/orcamentos/sessions/{sid}/pagamentos/{index}", h.RemoveSessionPayment).Methods(http.MethodDelete)
	protected.HandleFunc("/orcamentos/sessions/{sid}/advance", h.AdvanceSession).Methods(http.MethodPost)
	protected.HandleFunc("/orcamentos/sessions/{sid}/back", h.BackSession).Methods(http.MethodPost)
	protected.HandleFunc("/orcamentos/sessions/{sid}/save-draft", h.SaveDraft).Methods(http.MethodPost)
	protected.HandleFunc("/orcamentos/sessions/{sid}/finalize", h.FinalizeSession).Methods(http.MethodPost)

	protected.HandleFunc("/orcamentos/{id}", h.GetBudget).Methods(http.MethodGet)
	protected.HandleFunc("/orcamentos/{id}", h.DeleteBudget).Methods(http.MethodDelete)
	protected.HandleFunc("/orcamentos/{id}/pdf", h.BudgetPDF).Methods(http.MethodGet)
	protected.HandleFunc("/orcamentos/{id}/send-signature", h.SendSignature).Methods(http.MethodPost)
}
