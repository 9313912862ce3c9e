package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prontuario/odonto/internal/auth"
	"github.com/prontuario/odonto/internal/middleware"
	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/prontuario/odonto/internal/pdf"
	"github.com/prontuario/odonto/internal/repo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("api-test-secret-with-32-bytes!!!")

type fakeRecords struct {
	companies  map[string]*repo.Company
	patients   map[string]*repo.Patient
	procedures map[string][]orcamento.Procedure
	services   []orcamento.Service
	anamneses  map[string]*repo.Anamnese
}

func (f *fakeRecords) Company(_ context.Context, companyID string) (*repo.Company, error) {
	c, ok := f.companies[companyID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return c, nil
}

func (f *fakeRecords) Patient(_ context.Context, companyID, patientID string) (*repo.Patient, error) {
	p, ok := f.patients[patientID]
	if !ok || p.CompanyID != companyID {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeRecords) Procedures(_ context.Context, companyID, patientID string) ([]orcamento.Procedure, error) {
	return append([]orcamento.Procedure(nil), f.procedures[patientID]...), nil
}

func (f *fakeRecords) Service(_ context.Context, companyID, id string) (*orcamento.Service, error) {
	for _, s := range f.services {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRecords) Services(_ context.Context, companyID string) ([]orcamento.Service, error) {
	return f.services, nil
}

func (f *fakeRecords) Anamnese(_ context.Context, companyID, patientID, id string) (*repo.Anamnese, error) {
	a, ok := f.anamneses[id]
	if !ok || a.CompanyID != companyID || a.PatientID != patientID {
		return nil, repo.ErrNotFound
	}
	return a, nil
}

// fakeBudgets guarda cópias, como o banco: alterar o ponteiro devolvido não altera o registro.
type fakeBudgets struct {
	mu      sync.Mutex
	docs    map[string]*orcamento.Budget
	seq     int
	fail    error
	updates int
}

func newFakeBudgets() *fakeBudgets {
	return &fakeBudgets{docs: make(map[string]*orcamento.Budget)}
}

func clone(b *orcamento.Budget) *orcamento.Budget {
	raw, _ := json.Marshal(b)
	var out orcamento.Budget
	_ = json.Unmarshal(raw, &out)
	return &out
}

func (f *fakeBudgets) put(b *orcamento.Budget) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	cp := clone(b)
	cp.ID = fmt.Sprintf("orc-%d", f.seq)
	f.docs[cp.ID] = cp
	return cp.ID
}

func (f *fakeBudgets) get(id string) *orcamento.Budget {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.docs[id]
	if !ok {
		return nil
	}
	return clone(b)
}

func (f *fakeBudgets) CreateBudget(_ context.Context, b *orcamento.Budget) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	return f.put(b), nil
}

func (f *fakeBudgets) UpdateBudget(_ context.Context, id string, b *orcamento.Budget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	cur, ok := f.docs[id]
	if !ok {
		return repo.ErrNotFound
	}
	if cur.Signed() {
		return orcamento.ErrBudgetSigned
	}
	f.updates++
	b.KeepSignatureState(cur)
	cp := clone(b)
	cp.ID = id
	f.docs[id] = cp
	return nil
}

func (f *fakeBudgets) DeleteBudget(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	cur, ok := f.docs[id]
	if !ok {
		return repo.ErrNotFound
	}
	if cur.Signed() {
		return orcamento.ErrBudgetSigned
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeBudgets) Budget(_ context.Context, companyID, id string) (*orcamento.Budget, error) {
	b := f.get(id)
	if b == nil || b.CompanyID != companyID {
		return nil, repo.ErrNotFound
	}
	return b, nil
}

func (f *fakeBudgets) ByPatient(_ context.Context, companyID, patientID string) ([]orcamento.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []orcamento.Budget
	for i := 1; i <= f.seq; i++ {
		b, ok := f.docs[fmt.Sprintf("orc-%d", i)]
		if ok && b.CompanyID == companyID && b.PatientID == patientID {
			out = append(out, *clone(b))
		}
	}
	return out, nil
}

func (f *fakeBudgets) ByToken(_ context.Context, token string) (*orcamento.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.docs {
		if token != "" && b.SignatureToken == token {
			return clone(b), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeBudgets) Sign(_ context.Context, b *orcamento.Budget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.docs[b.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if cur.Signed() {
		return orcamento.ErrBudgetSigned
	}
	f.docs[b.ID] = clone(b)
	return nil
}

type fakeSender struct {
	calls []string
	err   error
}

func (s *fakeSender) SendSignatureLink(phone, patientName, link string) error {
	s.calls = append(s.calls, phone+"|"+patientName+"|"+link)
	return s.err
}

type fakeUploader struct {
	keys []string
	err  error
}

func (u *fakeUploader) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	return "http://minio:9000/odonto/" + key, nil
}

type fakeAudit struct {
	events []repo.AuditEvent
	err    error
}

func (a *fakeAudit) Record(_ context.Context, ev repo.AuditEvent) error {
	a.events = append(a.events, ev)
	return a.err
}

func (a *fakeAudit) actions() []string {
	out := make([]string, len(a.events))
	for i, ev := range a.events {
		out[i] = ev.Action
	}
	return out
}

var errDBDown = errors.New("connection refused")

var testNow = time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)

type testEnv struct {
	h       *Handler
	records *fakeRecords
	budgets *fakeBudgets
	audit   *fakeAudit
	router  http.Handler
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	phone := "11987654321"
	records := &fakeRecords{
		companies: map[string]*repo.Company{"c1": {ID: "c1", Name: "Clínica Sorriso"}},
		patients: map[string]*repo.Patient{
			"pa1": {ID: "pa1", CompanyID: "c1", FullName: "Maria Silva", Phone: &phone},
			"pa2": {ID: "pa2", CompanyID: "c1", FullName: "Sem Telefone"},
		},
		procedures: map[string][]orcamento.Procedure{
			"pa1": {
				{ID: "p1", Procedimento: "Limpeza", ValorCentavos: 10000, Estado: orcamento.EstadoARealizar},
				{ID: "p2", Procedimento: "Restauração", ValorCentavos: 25000, Dentes: []orcamento.Tooth{{Numero: 11}, {Numero: 21}}},
			},
		},
		services: []orcamento.Service{{ID: "s1", Nome: "Clareamento", ValorCentavos: 80000}},
		anamneses: map[string]*repo.Anamnese{
			"a1": {ID: "a1", CompanyID: "c1", PatientID: "pa1", Titulo: "Anamnese", Secoes: []repo.AnamneseSection{
				{Titulo: "Saúde geral", Perguntas: []repo.AnamneseQuestion{{Pergunta: "Tem alergia?", Resposta: "Não"}}},
			}},
		},
	}
	budgets := newFakeBudgets()
	h := NewHandler(records, budgets, zerolog.Nop())
	h.now = func() time.Time { return testNow }
	h.Exporter = &pdf.Exporter{Log: zerolog.Nop(), Now: func() time.Time { return testNow }}
	h.PublicURL = "https://app.example.com"
	audit := &fakeAudit{}
	h.Audit = audit

	r := mux.NewRouter()
	public := r.PathPrefix("/api").Subrouter()
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(testSecret))
	h.Register(public, protected)

	return &testEnv{h: h, records: records, budgets: budgets, audit: audit, router: r, token: tokenFor(t, "c1")}
}

func tokenFor(t *testing.T, companyID string) string {
	t.Helper()
	tok, err := auth.BuildJWT(testSecret, "u1", auth.RoleProfessional, companyID, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.doAs(t, e.token, method, path, body)
}

func (e *testEnv) doAs(t *testing.T, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func signatureDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 30, 10))
	for x := 0; x < 30; x++ {
		img.SetNRGBA(x, 5, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return pdf.EncodeDataURL(&pdf.Image{Data: buf.Bytes(), Type: "png"})
}
