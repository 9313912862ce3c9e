package orcamento

const (
	MinParcelas = 1
	MaxParcelas = 60
)

// Subtotal sums the item prices, using the override when present.
func Subtotal(items []LineItem) int64 {
	var sum int64
	for _, it := range items {
		sum = addCentavos(sum, it.Price())
	}
	return sum
}

// Total is the discounted subtotal floored at zero. The discount itself is not capped.
func Total(items []LineItem, descontoCentavos int64) int64 {
	return floorZero(Subtotal(items) - descontoCentavos)
}

// InstallmentAmount is round(remaining / n), half away from zero. The residue is not
// redistributed; InstallmentSchedule does that.
func InstallmentAmount(remaining int64, numeroParcelas int) int64 {
	n := int64(ClampParcelas(numeroParcelas))
	if remaining < 0 {
		return -InstallmentAmount(-remaining, numeroParcelas)
	}
	return (2*remaining + n) / (2 * n)
}

// InstallmentSchedule splits remaining into n installments that sum exactly to remaining;
// the last installment absorbs the rounding residue.
func InstallmentSchedule(remaining int64, numeroParcelas int) []int64 {
	n := ClampParcelas(numeroParcelas)
	each := InstallmentAmount(remaining, n)
	if each*int64(n-1) > remaining {
		each = remaining / int64(n)
	}
	out := make([]int64, n)
	for i := 0; i < n-1; i++ {
		out[i] = each
	}
	out[n-1] = remaining - each*int64(n-1)
	return out
}

func RemainingAfterEntry(total, entradaCentavos int64) int64 {
	return floorZero(total - entradaCentavos)
}

func RemainingAfterPayments(total int64, pagamentos []Pagamento) int64 {
	return floorZero(total - SumPagamentos(pagamentos))
}

func SumPagamentos(pagamentos []Pagamento) int64 {
	var sum int64
	for _, p := range pagamentos {
		sum = addCentavos(sum, p.ValorCentavos)
	}
	return sum
}

func ClampParcelas(n int) int {
	if n < MinParcelas {
		return MinParcelas
	}
	if n > MaxParcelas {
		return MaxParcelas
	}
	return n
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Breakdown is the financial summary shown in the payment step and in the PDF.
type Breakdown struct {
	SubtotalCentavos     int64          `json:"subtotalCentavos"`
	DescontoCentavos     int64          `json:"descontoCentavos"`
	TotalCentavos        int64          `json:"totalCentavos"`
	FormaPagamento       FormaPagamento `json:"formaPagamento"`
	EntradaCentavos      int64          `json:"entradaCentavos,omitempty"`
	RestanteCentavos     int64          `json:"restanteCentavos"`
	NumeroParcelas       int            `json:"numeroParcelas,omitempty"`
	ValorParcelaCentavos int64          `json:"valorParcelaCentavos,omitempty"`
}

// ComputeBreakdown derives the payable amounts for a plan against the given items and discount.
func ComputeBreakdown(items []LineItem, descontoCentavos int64, plan *PaymentPlan) Breakdown {
	total := Total(items, descontoCentavos)
	b := Breakdown{
		SubtotalCentavos: Subtotal(items),
		DescontoCentavos: descontoCentavos,
		TotalCentavos:    total,
		RestanteCentavos: total,
	}
	if plan == nil {
		b.FormaPagamento = FormaAVista
		return b
	}
	b.FormaPagamento = plan.Forma()
	switch plan.Forma() {
	case FormaParcelado:
		if e := plan.Entrada(); e != nil {
			b.EntradaCentavos = e.ValorCentavos
		}
		b.RestanteCentavos = RemainingAfterEntry(total, b.EntradaCentavos)
		p := plan.Parcelado()
		b.NumeroParcelas = p.NumeroParcelas
		b.ValorParcelaCentavos = InstallmentAmount(b.RestanteCentavos, p.NumeroParcelas)
	case FormaMultiplas:
		b.RestanteCentavos = RemainingAfterPayments(total, plan.Pagamentos())
	}
	return b
}
