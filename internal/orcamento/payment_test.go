package orcamento

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetForma_DiscardsOtherModes(t *testing.T) {
	p := NewPaymentPlan()
	require.NoError(t, p.SetForma(FormaParcelado))
	require.NoError(t, p.SetEntrada(Entrada{ValorCentavos: 5000, MeioPagamento: "pix", DataVencimento: "2024-03-05"}))
	require.NoError(t, p.SetParcelado(6, "boleto", "2024-04-05"))
	require.NotNil(t, p.Entrada())

	require.NoError(t, p.SetForma(FormaMultiplas))
	require.NoError(t, p.AddPayment(Pagamento{Parcela: 1, ValorCentavos: 100, MeioPagamento: "pix", DataVencimento: "2024-03-05"}))
	require.NoError(t, p.SetForma(FormaParcelado))

	assert.Nil(t, p.Entrada(), "stale entrada must not come back")
	assert.Equal(t, Parcelado{NumeroParcelas: 1}, p.Parcelado())
	assert.Empty(t, p.Pagamentos())
}

func TestSetForma_SameModeKeepsData(t *testing.T) {
	p := NewPaymentPlan()
	require.NoError(t, p.SetForma(FormaParcelado))
	require.NoError(t, p.SetEntrada(Entrada{ValorCentavos: 5000, MeioPagamento: "pix", DataVencimento: "2024-03-05"}))
	require.NoError(t, p.SetForma(FormaParcelado))
	assert.NotNil(t, p.Entrada())
}

func TestSetForma_Invalid(t *testing.T) {
	p := NewPaymentPlan()
	err := p.SetForma("cheque")
	assert.ErrorIs(t, err, ErrInvalidPaymentMode)
	assert.Equal(t, FormaAVista, p.Forma())
}

func TestRemoveEntrada_MakesItAbsent(t *testing.T) {
	p := NewPaymentPlan()
	require.NoError(t, p.SetForma(FormaParcelado))
	require.NoError(t, p.SetEntrada(Entrada{ValorCentavos: 5000, MeioPagamento: "pix", DataVencimento: "2024-03-05"}))
	p.RemoveEntrada()
	assert.Nil(t, p.Entrada())

	b := &Budget{}
	p.apply(b)
	assert.Nil(t, b.Entrada)
	require.NotNil(t, b.Parcelado)
}

func TestSetParcelado_ClampsCount(t *testing.T) {
	p := NewPaymentPlan()
	require.NoError(t, p.SetForma(FormaParcelado))
	require.NoError(t, p.SetParcelado(99, "boleto", "2024-04-05"))
	assert.Equal(t, 60, p.Parcelado().NumeroParcelas)
	require.NoError(t, p.SetParcelado(0, "boleto", "2024-04-05"))
	assert.Equal(t, 1, p.Parcelado().NumeroParcelas)
}

func TestEntradaAndParcelado_WrongMode(t *testing.T) {
	p := NewPaymentPlan()
	assert.ErrorIs(t, p.SetEntrada(Entrada{ValorCentavos: 1}), ErrWrongPaymentMode)
	assert.ErrorIs(t, p.SetParcelado(2, "pix", "2024-01-01"), ErrWrongPaymentMode)
	assert.ErrorIs(t, p.AddPayment(Pagamento{Parcela: 1, ValorCentavos: 1, MeioPagamento: "pix", DataVencimento: "2024-01-01"}), ErrWrongPaymentMode)
}

func TestAddPayment_Validation(t *testing.T) {
	p := NewPaymentPlan()
	require.NoError(t, p.SetForma(FormaMultiplas))
	incomplete := []Pagamento{
		{ValorCentavos: 100, MeioPagamento: "pix", DataVencimento: "2024-01-01"},
		{Parcela: 1, MeioPagamento: "pix", DataVencimento: "2024-01-01"},
		{Parcela: 1, ValorCentavos: 100, MeioPagamento: "  ", DataVencimento: "2024-01-01"},
		{Parcela: 1, ValorCentavos: 100, MeioPagamento: "pix"},
	}
	for _, pg := range incomplete {
		err := p.AddPayment(pg)
		require.ErrorIs(t, err, ErrPaymentIncomplete)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.NotEmpty(t, ve.Message)
	}
	assert.Empty(t, p.Pagamentos())
}

func TestPaymentAmounts_UpperBound(t *testing.T) {
	p := NewPaymentPlan()
	require.NoError(t, p.SetForma(FormaMultiplas))
	err := p.AddPayment(Pagamento{Parcela: 1, ValorCentavos: MaxCentavos + 1, MeioPagamento: "pix", DataVencimento: "2024-01-01"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, p.Pagamentos())

	require.NoError(t, p.SetForma(FormaParcelado))
	assert.ErrorIs(t, p.SetEntrada(Entrada{ValorCentavos: MaxCentavos + 1}), ErrInvalidAmount)
	assert.Nil(t, p.Entrada())
}

func TestNextParcela_AndRemove(t *testing.T) {
	p := NewPaymentPlan()
	require.NoError(t, p.SetForma(FormaMultiplas))
	assert.Equal(t, 1, p.NextParcela())
	require.NoError(t, p.AddPayment(Pagamento{Parcela: 1, ValorCentavos: 100, MeioPagamento: "pix", DataVencimento: "2024-01-01"}))
	require.NoError(t, p.AddPayment(Pagamento{Parcela: 4, ValorCentavos: 100, MeioPagamento: "boleto", DataVencimento: "2024-02-01"}))
	assert.Equal(t, 5, p.NextParcela())

	require.NoError(t, p.RemovePayment(1))
	assert.Equal(t, 2, p.NextParcela())
	assert.ErrorIs(t, p.RemovePayment(3), ErrPaymentIndex)
	assert.ErrorIs(t, p.RemovePayment(-1), ErrPaymentIndex)
}

func TestValidate(t *testing.T) {
	p := NewPaymentPlan()
	assert.NoError(t, p.Validate(0))

	require.NoError(t, p.SetForma(FormaParcelado))
	assert.ErrorIs(t, p.Validate(1000), ErrInstallmentIncomplete)
	require.NoError(t, p.SetParcelado(2, "boleto", "2024-04-05"))
	assert.NoError(t, p.Validate(1000))
	require.NoError(t, p.SetEntrada(Entrada{ValorCentavos: 2000, MeioPagamento: "pix", DataVencimento: "2024-03-05"}))
	assert.ErrorIs(t, p.Validate(1000), ErrPartsExceedTotal)

	require.NoError(t, p.SetForma(FormaMultiplas))
	require.NoError(t, p.AddPayment(Pagamento{Parcela: 1, ValorCentavos: 600, MeioPagamento: "pix", DataVencimento: "2024-01-01"}))
	assert.NoError(t, p.Validate(1000), "an open balance is allowed")
	require.NoError(t, p.AddPayment(Pagamento{Parcela: 2, ValorCentavos: 600, MeioPagamento: "pix", DataVencimento: "2024-02-01"}))
	assert.ErrorIs(t, p.Validate(1000), ErrPartsExceedTotal)
}

func TestApply_OnlyActiveModeFields(t *testing.T) {
	p := NewPaymentPlan()
	require.NoError(t, p.SetForma(FormaMultiplas))
	require.NoError(t, p.AddPayment(Pagamento{Parcela: 1, ValorCentavos: 600, MeioPagamento: "pix", DataVencimento: "2024-01-01"}))
	b := &Budget{Entrada: &Entrada{ValorCentavos: 1}, Parcelado: &Parcelado{NumeroParcelas: 3}}
	p.apply(b)
	assert.Equal(t, FormaMultiplas, b.FormaPagamento)
	assert.Nil(t, b.Entrada)
	assert.Nil(t, b.Parcelado)
	assert.Len(t, b.Pagamentos, 1)

	require.NoError(t, p.SetForma(FormaAVista))
	p.apply(b)
	assert.Nil(t, b.Entrada)
	assert.Nil(t, b.Parcelado)
	assert.Nil(t, b.Pagamentos)
}
