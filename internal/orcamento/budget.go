// Package orcamento implements the dental budget (orçamento) lifecycle: line-item aggregation,
// pricing in integer cents, payment plans and the draft → awaiting signature → signed state machine.
package orcamento

import "time"

type ProcedureState string

const (
	EstadoARealizar    ProcedureState = "a_realizar"
	EstadoRealizado    ProcedureState = "realizado"
	EstadoPreExistente ProcedureState = "pre_existente"
)

// SelectionType marks a bulk procedure that covers a whole arcade instead of listed teeth.
type SelectionType string

const (
	SelectionAll   SelectionType = "ALL"
	SelectionUpper SelectionType = "UPPER"
	SelectionLower SelectionType = "LOWER"
)

type FaceCode string

type Tooth struct {
	Numero int        `json:"numero"`
	Faces  []FaceCode `json:"faces,omitempty"`
}

// Procedure is a clinical procedure record. Read-only from the budget's point of view.
type Procedure struct {
	ID              string          `json:"id"`
	Procedimento    string          `json:"procedimento"`
	ValorCentavos   int64           `json:"valorCentavos"`
	Dentes          []Tooth         `json:"dentes,omitempty"`
	SelectionTypes  []SelectionType `json:"selectionTypes,omitempty"`
	Estado          ProcedureState  `json:"estado,omitempty"`
	ComissaoPercent float64         `json:"comissaoPercent,omitempty"`
}

// Service is a standalone priced service from the company catalog.
type Service struct {
	ID              string  `json:"id"`
	Nome            string  `json:"nome"`
	ValorCentavos   int64   `json:"valorCentavos"`
	ComissaoPercent float64 `json:"comissaoPercent"`
}

// AsProcedure turns a catalog service into a line-item candidate without teeth.
func (s Service) AsProcedure() Procedure {
	return Procedure{
		ID:              s.ID,
		Procedimento:    s.Nome,
		ValorCentavos:   s.ValorCentavos,
		ComissaoPercent: s.ComissaoPercent,
	}
}

// LineItem is a procedure snapshot plus the per-budget editable overlays.
type LineItem struct {
	Procedure
	ValorCentavosEditado   *int64  `json:"valorCentavosEditado,omitempty"`
	ComissaoPercentEditado float64 `json:"comissaoPercentEditado"`
}

// Price returns the overridden price, or the base price when no override exists.
func (li LineItem) Price() int64 {
	if li.ValorCentavosEditado != nil {
		return *li.ValorCentavosEditado
	}
	return li.ValorCentavos
}

// Label renders the tooth coverage of the item.
func (li LineItem) Label() string {
	return ToothLabel(li.SelectionTypes, li.Dentes)
}

type Status string

const (
	StatusRascunho             Status = "rascunho"
	StatusAguardandoAssinatura Status = "aguardando_assinatura"
	StatusFinalizado           Status = "finalizado"
)

func (s Status) rank() int {
	switch s {
	case StatusAguardandoAssinatura:
		return 1
	case StatusFinalizado:
		return 2
	}
	return 0
}

type FormaPagamento string

const (
	FormaAVista    FormaPagamento = "avista"
	FormaParcelado FormaPagamento = "parcelado"
	FormaMultiplas FormaPagamento = "multiplas"
)

func (f FormaPagamento) Valid() bool {
	switch f {
	case FormaAVista, FormaParcelado, FormaMultiplas:
		return true
	}
	return false
}

// Entrada is the optional down payment of an installment plan.
type Entrada struct {
	ValorCentavos  int64  `json:"valorCentavos"`
	MeioPagamento  string `json:"meioPagamento"`
	DataVencimento string `json:"dataVencimento"`
}

type Parcelado struct {
	NumeroParcelas        int    `json:"numeroParcelas"`
	MeioPagamento         string `json:"meioPagamento"`
	DataPrimeiroPagamento string `json:"dataPrimeiroPagamento"`
}

type Pagamento struct {
	Parcela        int    `json:"parcela"`
	ValorCentavos  int64  `json:"valorCentavos"`
	MeioPagamento  string `json:"meioPagamento"`
	DataVencimento string `json:"dataVencimento"`
}

// Budget is the persisted aggregate root. Procedimentos is a snapshot, not live references.
type Budget struct {
	ID                 string         `json:"id"`
	CompanyID          string         `json:"companyId"`
	PatientID          string         `json:"patientId"`
	Procedimentos      []LineItem     `json:"procedimentos"`
	DescontoCentavos   int64          `json:"descontoCentavos"`
	ValorTotalCentavos int64          `json:"valorTotalCentavos"`
	Observacoes        string         `json:"observacoes"`
	FormaPagamento     FormaPagamento `json:"formaPagamento"`
	Entrada            *Entrada       `json:"entrada,omitempty"`
	Parcelado          *Parcelado     `json:"parcelado,omitempty"`
	Pagamentos         []Pagamento    `json:"pagamentos,omitempty"`
	Status             Status         `json:"status"`
	SignatureToken     string         `json:"signatureToken,omitempty"`
	SignatureLink      string         `json:"signatureLink,omitempty"`
	SignedAt           *time.Time     `json:"signedAt,omitempty"`
	SignedBy           string         `json:"signedBy,omitempty"`
	SignatureImageURL  string         `json:"signatureImageUrl,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// Signed reports whether a signature was captured; a signed budget is immutable.
func (b *Budget) Signed() bool {
	return b != nil && b.SignedAt != nil
}

// KeepSignatureState carries the signature state already persisted in stored over b:
// an existing token or link is kept and the status never moves back. Stores apply it on
// update so an editor holding an older copy cannot undo a link sent in the meantime.
func (b *Budget) KeepSignatureState(stored *Budget) {
	if stored == nil {
		return
	}
	if stored.SignatureToken != "" {
		b.SignatureToken = stored.SignatureToken
	}
	if stored.SignatureLink != "" {
		b.SignatureLink = stored.SignatureLink
	}
	if stored.Status.rank() > b.Status.rank() {
		b.Status = stored.Status
	}
}

// Subtotal and Total are recomputed from the snapshot, never read from ValorTotalCentavos.
func (b *Budget) Subtotal() int64 { return Subtotal(b.Procedimentos) }

func (b *Budget) Total() int64 { return Total(b.Procedimentos, b.DescontoCentavos) }
