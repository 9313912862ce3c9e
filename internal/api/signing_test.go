package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAwaiting(e *testEnv) string {
	return e.budgets.put(&orcamento.Budget{
		CompanyID:      "c1",
		PatientID:      "pa1",
		Procedimentos:  []orcamento.LineItem{{Procedure: orcamento.Procedure{ID: "p1", Procedimento: "Limpeza", ValorCentavos: 10000}}},
		FormaPagamento: orcamento.FormaAVista,
		Status:         orcamento.StatusAguardandoAssinatura,
		SignatureToken: "tok-123",
		SignatureLink:  "https://app.example.com/assinatura-orcamento/?token=tok-123",
	})
}

func TestGetBudgetByToken(t *testing.T) {
	e := newTestEnv(t)
	seedAwaiting(e)
	rec := e.doAs(t, "", http.MethodGet, "/api/orcamentos/by-token?token=tok-123", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Maria Silva", body["patient_name"])
	assert.Equal(t, "Clínica Sorriso", body["company_name"])
	assert.Equal(t, float64(10000), body["total_centavos"])
	assert.Equal(t, false, body["signed"])

	rec = e.doAs(t, "", http.MethodGet, "/api/orcamentos/by-token?token=outro", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignBudget_UploadsSignature(t *testing.T) {
	e := newTestEnv(t)
	up := &fakeUploader{}
	e.h.Uploads = up
	id := seedAwaiting(e)

	rec := e.doAs(t, "", http.MethodPost, "/api/orcamentos/sign", signRequest{Token: "tok-123", SignerName: " Maria Silva ", Signature: signatureDataURL(t)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored := e.budgets.get(id)
	require.True(t, stored.Signed())
	assert.Equal(t, "Maria Silva", stored.SignedBy)
	assert.Equal(t, orcamento.StatusFinalizado, stored.Status)
	assert.Equal(t, []string{"assinaturas/orcamentos/c1/" + id + ".png"}, up.keys)
	assert.Equal(t, "http://minio:9000/odonto/assinaturas/orcamentos/c1/"+id+".png", stored.SignatureImageURL)

	rec = e.doAs(t, "", http.MethodPost, "/api/orcamentos/sign", signRequest{Token: "tok-123", SignerName: "Outra", Signature: signatureDataURL(t)})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Maria Silva", e.budgets.get(id).SignedBy)
}

func TestSignBudget_DataURLWithoutStorage(t *testing.T) {
	e := newTestEnv(t)
	id := seedAwaiting(e)
	sig := signatureDataURL(t)
	rec := e.doAs(t, "", http.MethodPost, "/api/orcamentos/sign", signRequest{Token: "tok-123", SignerName: "Maria", Signature: sig})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, sig, e.budgets.get(id).SignatureImageURL)

	rec = e.do(t, http.MethodGet, "/api/orcamentos/"+id+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "orcamento-assinado-Maria-Silva-2024-03-05.pdf")
}

func TestSignBudget_Rejections(t *testing.T) {
	e := newTestEnv(t)
	id := seedAwaiting(e)

	rec := e.doAs(t, "", http.MethodPost, "/api/orcamentos/sign", signRequest{Token: "tok-123", SignerName: "Maria", Signature: "data:text/plain;base64,aGk="})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.doAs(t, "", http.MethodPost, "/api/orcamentos/sign", signRequest{Token: "tok-123", SignerName: "  ", Signature: signatureDataURL(t)})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	e.h.Uploads = &fakeUploader{err: errors.New("minio down")}
	rec = e.doAs(t, "", http.MethodPost, "/api/orcamentos/sign", signRequest{Token: "tok-123", SignerName: "Maria", Signature: signatureDataURL(t)})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	assert.False(t, e.budgets.get(id).Signed())
}
