package orcamento

import (
	"context"
	"strings"
	"time"
)

// Step is the wizard page while a budget is being composed.
type Step int

const (
	StepProcedimentos Step = 1
	StepPagamento     Step = 2
)

// Store persists budget documents. A single document write is atomic; there is no
// conflict detection between editors (last write wins), except for the signature state:
// UpdateBudget applies Budget.KeepSignatureState against the stored row and writes the
// effective status, token and link back into b.
type Store interface {
	CreateBudget(ctx context.Context, b *Budget) (string, error)
	UpdateBudget(ctx context.Context, id string, b *Budget) error
	DeleteBudget(ctx context.Context, id string) error
}

// Field names accepted by Mutate.
type Field string

const (
	FieldDesconto       Field = "descontoCentavos"
	FieldObservacoes    Field = "observacoes"
	FieldFormaPagamento Field = "formaPagamento"
	FieldEntrada        Field = "entrada"
	FieldParcelado      Field = "parcelado"
)

// Lifecycle drives the budget wizard: procedure selection (step 1), payment (step 2) and the
// persisted status. It is not safe for concurrent use; callers serialize access per session.
type Lifecycle struct {
	store Store
	now   func() time.Time

	open        bool
	existing    *Budget
	companyID   string
	patientID   string
	agg         *Aggregator
	plan        *PaymentPlan
	desconto    int64
	observacoes string
	step        Step
}

func NewLifecycle(store Store) *Lifecycle {
	return &Lifecycle{store: store, now: time.Now}
}

// Open initializes the wizard. With existing == nil a new budget is composed from the
// explicitly pre-selected procedures and the wizard starts at step 1; otherwise the persisted
// snapshot is restored and the wizard starts at the payment step.
func (l *Lifecycle) Open(companyID, patientID string, existing *Budget, available []Procedure, preSelectedIDs []string) {
	l.open = true
	l.existing = nil
	l.desconto = 0
	l.observacoes = ""
	if existing == nil {
		l.companyID = companyID
		l.patientID = patientID
		l.agg = NewAggregator(available, preSelectedIDs)
		l.plan = NewPaymentPlan()
		l.step = StepProcedimentos
		return
	}
	cp := cloneBudget(existing)
	l.existing = cp
	l.companyID = cp.CompanyID
	l.patientID = cp.PatientID
	l.agg = AggregatorFromSnapshot(cp.Procedimentos, available)
	l.plan = PaymentPlanFromBudget(cp)
	l.desconto = cp.DescontoCentavos
	l.observacoes = cp.Observacoes
	l.step = StepPagamento
}

// Close discards the in-memory state without persisting anything.
func (l *Lifecycle) Close() {
	l.open = false
	l.existing = nil
	l.agg = nil
	l.plan = nil
	l.desconto = 0
	l.observacoes = ""
	l.step = 0
}

func (l *Lifecycle) IsOpen() bool { return l.open }

func (l *Lifecycle) Step() Step { return l.step }

// IsNew reports whether the budget was never persisted.
func (l *Lifecycle) IsNew() bool { return l.open && l.existing == nil }

// ReadOnly reports whether edits are ignored because the budget was signed.
func (l *Lifecycle) ReadOnly() bool { return l.existing.Signed() }

// BudgetID is empty for a new budget.
func (l *Lifecycle) BudgetID() string {
	if l.existing == nil {
		return ""
	}
	return l.existing.ID
}

func (l *Lifecycle) Items() []LineItem {
	if !l.open {
		return nil
	}
	return l.agg.Items()
}

func (l *Lifecycle) Plan() *PaymentPlan { return l.plan }

func (l *Lifecycle) Desconto() int64 { return l.desconto }

func (l *Lifecycle) Observacoes() string { return l.observacoes }

func (l *Lifecycle) Breakdown() Breakdown {
	if !l.open {
		return Breakdown{}
	}
	return ComputeBreakdown(l.agg.Items(), l.desconto, l.plan)
}

// editable gates every mutation. A signed budget yields (false, nil): edits are silently ignored.
func (l *Lifecycle) editable() (bool, error) {
	if !l.open {
		return false, ErrNotOpen
	}
	if l.existing.Signed() {
		return false, nil
	}
	return true, nil
}

func (l *Lifecycle) AddProcedure(p Procedure) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	l.agg.Add(p)
	return nil
}

func (l *Lifecycle) RemoveProcedure(id string) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	l.agg.Remove(id)
	return nil
}

func (l *Lifecycle) SetPriceOverride(id string, centavos int64) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	return l.agg.SetPriceOverride(id, centavos)
}

func (l *Lifecycle) SetCommissionOverride(id string, percent float64) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	return l.agg.SetCommissionOverride(id, percent)
}

func (l *Lifecycle) SetDesconto(centavos int64) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	if centavos > MaxCentavos {
		return ErrInvalidAmount
	}
	if centavos < 0 {
		centavos = 0
	}
	l.desconto = centavos
	return nil
}

func (l *Lifecycle) SetObservacoes(s string) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	l.observacoes = s
	return nil
}

func (l *Lifecycle) SetFormaPagamento(f FormaPagamento) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	return l.plan.SetForma(f)
}

func (l *Lifecycle) SetEntrada(e Entrada) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	return l.plan.SetEntrada(e)
}

func (l *Lifecycle) RemoveEntrada() error {
	if ok, err := l.editable(); !ok {
		return err
	}
	l.plan.RemoveEntrada()
	return nil
}

func (l *Lifecycle) SetParcelado(numeroParcelas int, meioPagamento, dataPrimeiroPagamento string) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	return l.plan.SetParcelado(numeroParcelas, meioPagamento, dataPrimeiroPagamento)
}

func (l *Lifecycle) AddPayment(p Pagamento) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	return l.plan.AddPayment(p)
}

func (l *Lifecycle) RemovePayment(index int) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	return l.plan.RemovePayment(index)
}

// Mutate sets a budget-level field by name. Values must already carry the field's Go type
// (int64 cents, string, FormaPagamento, *Entrada / nil, Parcelado).
func (l *Lifecycle) Mutate(field Field, value any) error {
	if ok, err := l.editable(); !ok {
		return err
	}
	switch field {
	case FieldDesconto:
		switch v := value.(type) {
		case int64:
			return l.SetDesconto(v)
		case int:
			return l.SetDesconto(int64(v))
		}
	case FieldObservacoes:
		if v, ok := value.(string); ok {
			return l.SetObservacoes(v)
		}
	case FieldFormaPagamento:
		switch v := value.(type) {
		case FormaPagamento:
			return l.SetFormaPagamento(v)
		case string:
			return l.SetFormaPagamento(FormaPagamento(strings.TrimSpace(v)))
		}
	case FieldEntrada:
		switch v := value.(type) {
		case nil:
			return l.RemoveEntrada()
		case *Entrada:
			if v == nil {
				return l.RemoveEntrada()
			}
			return l.SetEntrada(*v)
		case Entrada:
			return l.SetEntrada(v)
		}
	case FieldParcelado:
		if v, ok := value.(Parcelado); ok {
			return l.SetParcelado(v.NumeroParcelas, v.MeioPagamento, v.DataPrimeiroPagamento)
		}
	default:
		return ErrUnknownField
	}
	return ErrInvalidValue
}

// AdvanceToPayment moves from procedure selection to the payment step.
func (l *Lifecycle) AdvanceToPayment() error {
	if !l.open {
		return ErrNotOpen
	}
	if l.step != StepProcedimentos {
		return ErrInvalidStep
	}
	if l.agg.Len() == 0 {
		return invalid(ErrNoProcedures, "Selecione pelo menos um procedimento.")
	}
	l.step = StepPagamento
	return nil
}

// GoBack returns to procedure selection keeping everything entered so far.
func (l *Lifecycle) GoBack() error {
	if !l.open {
		return ErrNotOpen
	}
	if l.step != StepPagamento {
		return ErrInvalidStep
	}
	l.step = StepProcedimentos
	return nil
}

// SaveDraft persists a never-saved budget as "rascunho" from the procedure step and closes
// the wizard. On failure the wizard state is kept for a retry.
func (l *Lifecycle) SaveDraft(ctx context.Context) (*Budget, error) {
	if !l.open {
		return nil, ErrNotOpen
	}
	if l.existing != nil {
		if l.existing.Signed() {
			return nil, ErrBudgetSigned
		}
		return nil, ErrNotNew
	}
	if l.step != StepProcedimentos {
		return nil, ErrInvalidStep
	}
	if l.agg.Len() == 0 {
		return nil, invalid(ErrNoProcedures, "Selecione pelo menos um procedimento.")
	}
	doc := l.assemble(StatusRascunho)
	id, err := l.store.CreateBudget(ctx, doc)
	if err != nil {
		return nil, &PersistenceError{Op: "create budget", Err: err}
	}
	doc.ID = id
	l.Close()
	return doc, nil
}

// Finalize persists the composed budget from the payment step and closes the wizard.
// A new budget becomes "aguardando_assinatura"; an existing one never has its status
// lowered, so a persisted "rascunho" stays "rascunho".
func (l *Lifecycle) Finalize(ctx context.Context) (*Budget, error) {
	if !l.open {
		return nil, ErrNotOpen
	}
	if l.existing.Signed() {
		return nil, ErrBudgetSigned
	}
	if l.step != StepPagamento {
		return nil, ErrInvalidStep
	}
	if l.agg.Len() == 0 {
		return nil, invalid(ErrNoProcedures, "Selecione pelo menos um procedimento.")
	}
	if err := l.plan.Validate(Total(l.agg.Items(), l.desconto)); err != nil {
		return nil, err
	}
	status := StatusAguardandoAssinatura
	if l.existing != nil && (l.existing.Status == StatusRascunho || l.existing.Status == StatusFinalizado) {
		status = l.existing.Status
	}
	doc := l.assemble(status)
	if l.existing == nil {
		id, err := l.store.CreateBudget(ctx, doc)
		if err != nil {
			return nil, &PersistenceError{Op: "create budget", Err: err}
		}
		doc.ID = id
	} else if err := l.store.UpdateBudget(ctx, doc.ID, doc); err != nil {
		return nil, &PersistenceError{Op: "update budget", Err: err}
	}
	l.Close()
	return doc, nil
}

// Delete removes the persisted budget the wizard was opened with.
func (l *Lifecycle) Delete(ctx context.Context) error {
	if !l.open || l.existing == nil {
		return ErrNotOpen
	}
	if l.existing.Signed() {
		return ErrBudgetSigned
	}
	if err := l.store.DeleteBudget(ctx, l.existing.ID); err != nil {
		return &PersistenceError{Op: "delete budget", Err: err}
	}
	l.Close()
	return nil
}

func (l *Lifecycle) assemble(status Status) *Budget {
	now := l.now()
	items := l.agg.Items()
	doc := &Budget{
		CompanyID:          l.companyID,
		PatientID:          l.patientID,
		Procedimentos:      items,
		DescontoCentavos:   l.desconto,
		ValorTotalCentavos: Total(items, l.desconto),
		Observacoes:        l.observacoes,
		Status:             status,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	l.plan.apply(doc)
	if l.existing != nil {
		doc.ID = l.existing.ID
		doc.CreatedAt = l.existing.CreatedAt
		doc.SignatureToken = l.existing.SignatureToken
		doc.SignatureLink = l.existing.SignatureLink
	}
	return doc
}

func cloneBudget(b *Budget) *Budget {
	cp := *b
	cp.Procedimentos = make([]LineItem, len(b.Procedimentos))
	for i, it := range b.Procedimentos {
		it.ValorCentavosEditado = copyPrice(it.ValorCentavosEditado)
		cp.Procedimentos[i] = it
	}
	if b.Entrada != nil {
		e := *b.Entrada
		cp.Entrada = &e
	}
	if b.Parcelado != nil {
		p := *b.Parcelado
		cp.Parcelado = &p
	}
	cp.Pagamentos = append([]Pagamento(nil), b.Pagamentos...)
	if b.SignedAt != nil {
		t := *b.SignedAt
		cp.SignedAt = &t
	}
	return &cp
}
