package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/prontuario/odonto/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudit_FinalizeSendAndSign(t *testing.T) {
	e := newTestEnv(t)
	e.h.Sender = &fakeSender{}
	sid := openSession(t, e, map[string]interface{}{"procedure_ids": []string{"p1"}})
	base := "/api/orcamentos/sessions/" + sid
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/advance", nil).Code)
	rec := e.do(t, http.MethodPost, base+"/finalize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode(t, rec)["orcamento"].(map[string]interface{})["id"].(string)

	rec = e.do(t, http.MethodPost, "/api/orcamentos/"+id+"/send-signature", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := e.budgets.get(id).SignatureToken
	require.NotEmpty(t, tok)

	req := signRequest{Token: tok, SignerName: "Maria Silva", Signature: signatureDataURL(t)}
	rec = e.doAs(t, "", http.MethodPost, "/api/orcamentos/sign", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []string{repo.AuditBudgetSaved, repo.AuditSignatureLink, repo.AuditBudgetSigned}, e.audit.actions())
	for _, ev := range e.audit.events {
		assert.Equal(t, "c1", ev.CompanyID)
		assert.Equal(t, id, ev.BudgetID)
	}
	assert.Equal(t, repo.AuditActorUser, e.audit.events[0].ActorType)
	assert.Equal(t, "u1", e.audit.events[0].ActorID)
	assert.Equal(t, repo.AuditActorPatient, e.audit.events[2].ActorType)
	assert.Empty(t, e.audit.events[2].ActorID)
}

func TestAudit_DeleteAndFailures(t *testing.T) {
	e := newTestEnv(t)
	id := e.budgets.put(&orcamento.Budget{CompanyID: "c1", PatientID: "pa1", Status: orcamento.StatusRascunho})
	e.audit.err = errors.New("audit down")

	rec := e.do(t, http.MethodDelete, "/api/orcamentos/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "falha no audit não impede a operação")
	assert.Equal(t, []string{repo.AuditBudgetDeleted}, e.audit.actions())

	signedAt := testNow
	signed := e.budgets.put(&orcamento.Budget{CompanyID: "c1", PatientID: "pa1", Status: orcamento.StatusFinalizado,
		SignedAt: &signedAt, SignedBy: "Maria"})
	rec = e.do(t, http.MethodDelete, "/api/orcamentos/"+signed, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, e.audit.events, 1, "operação recusada não gera evento")
}

func TestClientIP(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.5:5123"
	assert.Equal(t, "10.0.0.5", clientIP(r))
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
