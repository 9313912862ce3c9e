package orcamento

import "strings"

// PaymentPlan holds the in-progress payment configuration. The three modes are mutually
// exclusive: switching mode discards whatever the other modes had.
type PaymentPlan struct {
	forma      FormaPagamento
	entrada    *Entrada
	parcelado  Parcelado
	pagamentos []Pagamento
}

func NewPaymentPlan() *PaymentPlan {
	return &PaymentPlan{forma: FormaAVista, parcelado: Parcelado{NumeroParcelas: MinParcelas}}
}

// PaymentPlanFromBudget restores the plan persisted in b.
func PaymentPlanFromBudget(b *Budget) *PaymentPlan {
	p := NewPaymentPlan()
	if b == nil || !b.FormaPagamento.Valid() {
		return p
	}
	p.forma = b.FormaPagamento
	switch b.FormaPagamento {
	case FormaParcelado:
		if b.Entrada != nil {
			e := *b.Entrada
			p.entrada = &e
		}
		if b.Parcelado != nil {
			p.parcelado = *b.Parcelado
			p.parcelado.NumeroParcelas = ClampParcelas(p.parcelado.NumeroParcelas)
		}
	case FormaMultiplas:
		p.pagamentos = append([]Pagamento(nil), b.Pagamentos...)
	}
	return p
}

func (p *PaymentPlan) Forma() FormaPagamento { return p.forma }

func (p *PaymentPlan) Entrada() *Entrada {
	if p.entrada == nil {
		return nil
	}
	e := *p.entrada
	return &e
}

func (p *PaymentPlan) Parcelado() Parcelado { return p.parcelado }

func (p *PaymentPlan) Pagamentos() []Pagamento {
	return append([]Pagamento(nil), p.pagamentos...)
}

// SetForma switches mode. Selecting the current mode keeps its data.
func (p *PaymentPlan) SetForma(f FormaPagamento) error {
	if !f.Valid() {
		return invalid(ErrInvalidPaymentMode, "Forma de pagamento inválida.")
	}
	if f == p.forma {
		return nil
	}
	p.forma = f
	p.entrada = nil
	p.parcelado = Parcelado{NumeroParcelas: MinParcelas}
	p.pagamentos = nil
	return nil
}

func (p *PaymentPlan) SetEntrada(e Entrada) error {
	if p.forma != FormaParcelado {
		return invalid(ErrWrongPaymentMode, "A entrada só pode ser informada no pagamento parcelado.")
	}
	if e.ValorCentavos > MaxCentavos {
		return ErrInvalidAmount
	}
	if e.ValorCentavos < 0 {
		e.ValorCentavos = 0
	}
	e.MeioPagamento = strings.TrimSpace(e.MeioPagamento)
	e.DataVencimento = strings.TrimSpace(e.DataVencimento)
	p.entrada = &e
	return nil
}

// RemoveEntrada makes the down payment absent again (not a zero-valued entry).
func (p *PaymentPlan) RemoveEntrada() {
	p.entrada = nil
}

// SetParcelado updates the installment terms; the count is clamped to 1..60.
func (p *PaymentPlan) SetParcelado(numeroParcelas int, meioPagamento, dataPrimeiroPagamento string) error {
	if p.forma != FormaParcelado {
		return invalid(ErrWrongPaymentMode, "As parcelas só podem ser configuradas no pagamento parcelado.")
	}
	p.parcelado = Parcelado{
		NumeroParcelas:        ClampParcelas(numeroParcelas),
		MeioPagamento:         strings.TrimSpace(meioPagamento),
		DataPrimeiroPagamento: strings.TrimSpace(dataPrimeiroPagamento),
	}
	return nil
}

// AddPayment appends an entry to the multiple-payments list. All four fields are required.
func (p *PaymentPlan) AddPayment(pg Pagamento) error {
	if p.forma != FormaMultiplas {
		return invalid(ErrWrongPaymentMode, "Pagamentos avulsos só podem ser adicionados em múltiplas formas de pagamento.")
	}
	pg.MeioPagamento = strings.TrimSpace(pg.MeioPagamento)
	pg.DataVencimento = strings.TrimSpace(pg.DataVencimento)
	if pg.Parcela <= 0 || pg.ValorCentavos <= 0 || pg.MeioPagamento == "" || pg.DataVencimento == "" {
		return invalid(ErrPaymentIncomplete, "Preencha parcela, valor, forma de pagamento e data de vencimento.")
	}
	if pg.ValorCentavos > MaxCentavos {
		return ErrInvalidAmount
	}
	p.pagamentos = append(p.pagamentos, pg)
	return nil
}

func (p *PaymentPlan) RemovePayment(index int) error {
	if index < 0 || index >= len(p.pagamentos) {
		return ErrPaymentIndex
	}
	p.pagamentos = append(p.pagamentos[:index], p.pagamentos[index+1:]...)
	return nil
}

// NextParcela is the installment number suggested for the next payment entry.
func (p *PaymentPlan) NextParcela() int {
	max := 0
	for _, pg := range p.pagamentos {
		if pg.Parcela > max {
			max = pg.Parcela
		}
	}
	return max + 1
}

// Validate checks the plan against the budget total before it leaves the draft.
// Parts may fall short of the total (the rest stays as open balance) but never exceed it.
func (p *PaymentPlan) Validate(total int64) error {
	switch p.forma {
	case FormaParcelado:
		if p.parcelado.MeioPagamento == "" || p.parcelado.DataPrimeiroPagamento == "" {
			return invalid(ErrInstallmentIncomplete, "Informe a forma de pagamento e a data do primeiro pagamento das parcelas.")
		}
		if p.entrada != nil {
			if p.entrada.MeioPagamento == "" || p.entrada.DataVencimento == "" {
				return invalid(ErrPaymentIncomplete, "Informe a forma de pagamento e o vencimento da entrada.")
			}
			if p.entrada.ValorCentavos > total {
				return invalid(ErrPartsExceedTotal, "O valor da entrada é maior que o total do orçamento.")
			}
		}
	case FormaMultiplas:
		if SumPagamentos(p.pagamentos) > total {
			return invalid(ErrPartsExceedTotal, "A soma dos pagamentos é maior que o total do orçamento.")
		}
	}
	return nil
}

// apply writes the plan into b so that only the fields of the active mode are populated.
func (p *PaymentPlan) apply(b *Budget) {
	b.FormaPagamento = p.forma
	b.Entrada = nil
	b.Parcelado = nil
	b.Pagamentos = nil
	switch p.forma {
	case FormaParcelado:
		b.Entrada = p.Entrada()
		pc := p.parcelado
		b.Parcelado = &pc
	case FormaMultiplas:
		b.Pagamentos = p.Pagamentos()
	}
}
