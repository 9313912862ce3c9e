package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prontuario/odonto/internal/pdf"
)

func (h *Handler) AnamnesePDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cid := companyID(r)
	vars := mux.Vars(r)
	a, err := h.Records.Anamnese(ctx, cid, vars["patientId"], vars["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	company, err := h.Records.Company(ctx, cid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	patient, err := h.Records.Patient(ctx, cid, a.PatientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	exp := pdf.AnamneseExport{
		Titulo:            a.Titulo,
		SignedBy:          a.SignedBy,
		SignedAt:          a.SignedAt,
		SignatureImageURL: a.SignatureImageURL,
	}
	for _, s := range a.Secoes {
		sec := pdf.AnamneseSection{Titulo: s.Titulo}
		for _, q := range s.Perguntas {
			sec.Perguntas = append(sec.Perguntas, pdf.AnamneseQuestion{Pergunta: q.Pergunta, Resposta: q.Resposta})
		}
		exp.Secoes = append(exp.Secoes, sec)
	}
	name, data, err := h.Exporter.ExportAnamnese(ctx, exp, branding(company), patient.FullName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePDF(w, name, data)
}
