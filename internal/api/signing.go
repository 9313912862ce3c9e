package api

import (
	"net/http"
	"strings"

	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/prontuario/odonto/internal/pdf"
	"github.com/prontuario/odonto/internal/repo"
	"github.com/prontuario/odonto/internal/storage"
)

// GetBudgetByToken é a página pública de assinatura: só o necessário para o paciente conferir.
func (h *Handler) GetBudgetByToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := h.Budgets.ByToken(ctx, strings.TrimSpace(r.URL.Query().Get("token")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	company, err := h.Records.Company(ctx, b.CompanyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	patient, err := h.Records.Patient(ctx, b.CompanyID, b.PatientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := map[string]interface{}{
		"id":                b.ID,
		"company_name":      company.Name,
		"patient_name":      patient.FullName,
		"procedimentos":     itemViews(b.Procedimentos),
		"desconto_centavos": b.DescontoCentavos,
		"total_centavos":    b.Total(),
		"total_formatado":   orcamento.FormatBRL(b.Total()),
		"forma_pagamento":   b.FormaPagamento,
		"entrada":           b.Entrada,
		"parcelado":         b.Parcelado,
		"pagamentos":        b.Pagamentos,
		"observacoes":       b.Observacoes,
		"status":            b.Status,
		"signed":            b.Signed(),
	}
	if b.Signed() {
		out["signed_at"] = b.SignedAt
		out["signed_by"] = b.SignedBy
	}
	writeJSON(w, http.StatusOK, out)
}

type signRequest struct {
	Token      string `json:"token"`
	SignerName string `json:"signer_name"`
	Signature  string `json:"signature"`
}

// SignBudget registra a assinatura do paciente. A imagem vai para o armazenamento de objetos
// quando configurado; sem ele fica gravada como data URL no próprio orçamento.
func (h *Handler) SignBudget(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	b, err := h.Budgets.ByToken(ctx, strings.TrimSpace(req.Token))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if b.Signed() {
		h.writeError(w, r, orcamento.ErrBudgetSigned)
		return
	}
	img, err := pdf.DecodeDataURL(req.Signature)
	if err != nil {
		http.Error(w, `{"error":"assinatura inválida"}`, http.StatusBadRequest)
		return
	}
	if err := orcamento.Sign(b, req.SignerName, pdf.EncodeDataURL(img), h.now()); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.Uploads != nil {
		url, err := h.Uploads.Put(ctx, storage.SignatureKey("orcamentos", b.CompanyID, b.ID), "image/"+img.Type, img.Data)
		if err != nil {
			h.Log.Error().Err(err).Str("budget_id", b.ID).Msg("falha ao gravar imagem da assinatura")
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "Não foi possível salvar a assinatura. Tente novamente.", "retry": true})
			return
		}
		b.SignatureImageURL = url
	}
	if err := h.Budgets.Sign(ctx, b); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Metrics.BudgetSigned()
	h.audit(r, repo.AuditBudgetSigned, b, map[string]interface{}{"signed_by": b.SignedBy})
	h.Log.Info().Str("budget_id", b.ID).Msg("orçamento assinado")
	writeJSON(w, http.StatusOK, map[string]interface{}{"orcamento": budgetViewOf(b)})
}
