package orcamento

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemsFor(prices ...int64) []LineItem {
	a := NewAggregator(procs(prices...), ids(procs(prices...)))
	return a.Items()
}

func TestTotal_NeverNegative(t *testing.T) {
	sets := [][]int64{{}, {0}, {100}, {10000, 25000, 5000}, {1, 1, 1}}
	discounts := []int64{0, 1, 99, 100, 40000, 1 << 40}
	for _, prices := range sets {
		items := itemsFor(prices...)
		for _, d := range discounts {
			got := Total(items, d)
			want := Subtotal(items) - d
			if want < 0 {
				want = 0
			}
			assert.Equal(t, want, got, "prices=%v discount=%d", prices, d)
			assert.GreaterOrEqual(t, got, int64(0))
		}
	}
}

func TestSubtotal_FallsBackToBasePrice(t *testing.T) {
	override := int64(700)
	items := []LineItem{
		{Procedure: Procedure{ID: "a", ValorCentavos: 1000}},
		{Procedure: Procedure{ID: "b", ValorCentavos: 1000}, ValorCentavosEditado: &override},
	}
	assert.Equal(t, int64(1700), Subtotal(items))
}

func TestSums_SaturateInsteadOfWrapping(t *testing.T) {
	huge := int64(math.MaxInt64 - 10)
	items := []LineItem{
		{Procedure: Procedure{ID: "a", ValorCentavos: huge}},
		{Procedure: Procedure{ID: "b", ValorCentavos: huge}},
	}
	assert.Equal(t, int64(math.MaxInt64), Subtotal(items))
	assert.Equal(t, int64(math.MaxInt64-1000), Total(items, 1000))
	assert.Equal(t, int64(math.MaxInt64), SumPagamentos([]Pagamento{{ValorCentavos: huge}, {ValorCentavos: 20}}))
}

func TestInstallmentAmount_ResidueBounded(t *testing.T) {
	for n := 1; n <= 60; n++ {
		for _, r := range []int64{0, 1, 7, 99, 100, 1001, 30000, 33333, 123457} {
			got := InstallmentAmount(r, n)
			residue := got*int64(n) - r
			if residue < 0 {
				residue = -residue
			}
			assert.Less(t, residue, int64(n), "r=%d n=%d", r, n)
		}
	}
}

func TestInstallmentAmount_ClampsCount(t *testing.T) {
	assert.Equal(t, int64(1000), InstallmentAmount(1000, 0))
	assert.Equal(t, InstallmentAmount(6000, 60), InstallmentAmount(6000, 120))
}

func TestInstallmentSchedule_SumsExactly(t *testing.T) {
	s := InstallmentSchedule(10000, 3)
	require.Len(t, s, 3)
	assert.Equal(t, []int64{3333, 3333, 3334}, s)

	var sum int64
	for _, v := range InstallmentSchedule(123457, 7) {
		sum += v
	}
	assert.Equal(t, int64(123457), sum)
}

func TestInstallmentSchedule_NeverNegative(t *testing.T) {
	assert.Equal(t, []int64{0, 0, 0, 2}, InstallmentSchedule(2, 4))
	for r := int64(0); r < 200; r++ {
		for n := 1; n <= 12; n++ {
			var sum int64
			for _, v := range InstallmentSchedule(r, n) {
				require.GreaterOrEqual(t, v, int64(0), "r=%d n=%d", r, n)
				sum += v
			}
			require.Equal(t, r, sum, "r=%d n=%d", r, n)
		}
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, int64(30000), RemainingAfterEntry(40000, 10000))
	assert.Equal(t, int64(0), RemainingAfterEntry(40000, 50000))
	pags := []Pagamento{{ValorCentavos: 10000}, {ValorCentavos: 5000}}
	assert.Equal(t, int64(25000), RemainingAfterPayments(40000, pags))
	assert.Equal(t, int64(0), RemainingAfterPayments(10000, pags))
}

func TestScenarioA_AVista(t *testing.T) {
	items := itemsFor(10000, 25000, 5000)
	plan := NewPaymentPlan()
	b := ComputeBreakdown(items, 5000, plan)
	assert.Equal(t, int64(40000), b.SubtotalCentavos)
	assert.Equal(t, int64(35000), b.TotalCentavos)
	assert.Equal(t, FormaAVista, b.FormaPagamento)
	assert.Equal(t, int64(35000), b.RestanteCentavos)
}

func TestScenarioB_Parcelado(t *testing.T) {
	items := itemsFor(10000, 25000, 5000)
	plan := NewPaymentPlan()
	require.NoError(t, plan.SetForma(FormaParcelado))
	require.NoError(t, plan.SetEntrada(Entrada{ValorCentavos: 10000, MeioPagamento: "pix", DataVencimento: "2024-03-05"}))
	require.NoError(t, plan.SetParcelado(3, "cartao_credito", "2024-04-05"))

	b := ComputeBreakdown(items, 0, plan)
	assert.Equal(t, int64(40000), b.TotalCentavos)
	assert.Equal(t, int64(10000), b.EntradaCentavos)
	assert.Equal(t, int64(30000), b.RestanteCentavos)
	assert.Equal(t, 3, b.NumeroParcelas)
	assert.Equal(t, int64(10000), b.ValorParcelaCentavos)
	assert.Equal(t, int64(10000), InstallmentAmount(30000, 3))
}
