package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/skip2/go-qrcode"
)

// BudgetDocument é tudo que o PDF do orçamento precisa, já carregado.
type BudgetDocument struct {
	Budget      *orcamento.Budget
	PatientName string
	Header      Header
	// Signature já processada; nil desenha a linha em branco
	Signature   *Image
	GeneratedAt time.Time
}

const (
	colProcedure = 95.0
	colTeeth     = 50.0
	tableHeaderH = 7.0
)

func renderBudget(doc BudgetDocument) (*document, error) {
	b := doc.Budget
	if b == nil {
		return nil, fmt.Errorf("pdf: orçamento vazio")
	}
	when := doc.GeneratedAt
	if when.IsZero() {
		when = time.Now()
	}
	d := newDocument("Orçamento - "+doc.PatientName, when)
	subtitle := "Paciente: " + doc.PatientName
	if !b.CreatedAt.IsZero() {
		subtitle += " | Emitido em " + b.CreatedAt.Format("02/01/2006")
	}
	d.header(doc.Header, "Orçamento", subtitle)

	d.itemsTable(b.Procedimentos)
	d.totals(b)
	d.paymentBlock(b)
	if obs := strings.TrimSpace(b.Observacoes); obs != "" {
		d.sectionTitle("Observações")
		d.pdf.MultiCell(0, lineH, d.tr(obs), "", "L", false)
	}
	if !b.Signed() && b.SignatureLink != "" {
		d.signatureQR(b.SignatureLink)
	}
	d.signatureBlock(doc.Signature, b.SignedBy, b.SignedAt, "Assinatura do paciente")
	if d.pdf.Err() {
		return nil, d.pdf.Error()
	}
	return d, nil
}

func (d *document) tableHeader() {
	colValue := d.contentWidth() - colProcedure - colTeeth
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.SetFillColor(230, 234, 242)
	d.pdf.CellFormat(colProcedure, tableHeaderH, d.tr("Procedimento"), "1", 0, "L", true, 0, "")
	d.pdf.CellFormat(colTeeth, tableHeaderH, d.tr("Dentes"), "1", 0, "L", true, 0, "")
	d.pdf.CellFormat(colValue, tableHeaderH, d.tr("Valor"), "1", 1, "R", true, 0, "")
	d.pdf.SetFillColor(255, 255, 255)
	d.pdf.SetFont("Helvetica", "", 10)
}

// itemsTable pagina manualmente: cada linha que não cabe abre nova página e repete o cabeçalho.
func (d *document) itemsTable(items []orcamento.LineItem) {
	d.sectionTitle("Procedimentos")
	d.tableHeader()
	colValue := d.contentWidth() - colProcedure - colTeeth
	for _, it := range items {
		name := d.pdf.SplitText(d.tr(it.Procedimento), colProcedure-2)
		teeth := d.pdf.SplitText(d.tr(it.Label()), colTeeth-2)
		rows := len(name)
		if len(teeth) > rows {
			rows = len(teeth)
		}
		if rows == 0 {
			rows = 1
		}
		h := float64(rows)*lineH + 2
		if d.ensureSpace(h) {
			d.tableHeader()
		}
		x, y := d.pdf.GetX(), d.pdf.GetY()
		d.pdf.Rect(x, y, colProcedure, h, "D")
		d.pdf.Rect(x+colProcedure, y, colTeeth, h, "D")
		d.pdf.Rect(x+colProcedure+colTeeth, y, colValue, h, "D")
		d.cellLines(x+1, y+1, colProcedure-2, name)
		d.cellLines(x+colProcedure+1, y+1, colTeeth-2, teeth)
		d.pdf.SetXY(x+colProcedure+colTeeth, y+1)
		d.pdf.CellFormat(colValue-1, lineH, d.tr(orcamento.FormatBRL(it.Price())), "", 0, "R", false, 0, "")
		d.pdf.SetXY(x, y+h)
	}
	if len(items) == 0 {
		d.pdf.SetFont("Helvetica", "I", 10)
		d.text(0, 7, "Nenhum procedimento.", "1", 1, "C")
		d.pdf.SetFont("Helvetica", "", 10)
	}
}

func (d *document) cellLines(x, y, w float64, lines []string) {
	for i, l := range lines {
		d.pdf.SetXY(x, y+float64(i)*lineH)
		d.pdf.CellFormat(w, lineH, l, "", 0, "L", false, 0, "")
	}
}

func (d *document) totals(b *orcamento.Budget) {
	d.ensureSpace(24)
	d.pdf.Ln(3)
	labelW := d.contentWidth() - 45
	row := func(label string, value int64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		d.pdf.SetFont("Helvetica", style, 10)
		d.text(labelW, 6, label, "", 0, "R")
		d.text(45, 6, orcamento.FormatBRL(value), "", 1, "R")
	}
	row("Subtotal", b.Subtotal(), false)
	if b.DescontoCentavos > 0 {
		row("Desconto", -b.DescontoCentavos, false)
	}
	row("Total", b.Total(), true)
	d.pdf.SetFont("Helvetica", "", 10)
}

func (d *document) paymentBlock(b *orcamento.Budget) {
	d.sectionTitle("Forma de pagamento")
	total := b.Total()
	switch b.FormaPagamento {
	case orcamento.FormaParcelado:
		entrada := int64(0)
		if b.Entrada != nil {
			entrada = b.Entrada.ValorCentavos
			d.text(0, 6, fmt.Sprintf("Entrada: %s (%s, vencimento %s)",
				orcamento.FormatBRL(entrada), PaymentMethodLabel(b.Entrada.MeioPagamento), formatDate(b.Entrada.DataVencimento)), "", 1, "L")
		}
		p := orcamento.Parcelado{NumeroParcelas: 1}
		if b.Parcelado != nil {
			p = *b.Parcelado
		}
		remaining := orcamento.RemainingAfterEntry(total, entrada)
		schedule := orcamento.InstallmentSchedule(remaining, p.NumeroParcelas)
		d.text(0, 6, fmt.Sprintf("Parcelado em %dx no %s, a partir de %s",
			len(schedule), PaymentMethodLabel(p.MeioPagamento), formatDate(p.DataPrimeiroPagamento)), "", 1, "L")
		first, firstOK := parseDate(p.DataPrimeiroPagamento)
		for i, v := range schedule {
			d.ensureSpace(6)
			due := ""
			if firstOK {
				due = " - vencimento " + first.AddDate(0, i, 0).Format("02/01/2006")
			}
			d.text(0, 5, fmt.Sprintf("    Parcela %d/%d: %s%s", i+1, len(schedule), orcamento.FormatBRL(v), due), "", 1, "L")
		}
	case orcamento.FormaMultiplas:
		for _, pg := range b.Pagamentos {
			d.ensureSpace(6)
			d.text(0, 5, fmt.Sprintf("Parcela %d: %s (%s, vencimento %s)",
				pg.Parcela, orcamento.FormatBRL(pg.ValorCentavos), PaymentMethodLabel(pg.MeioPagamento), formatDate(pg.DataVencimento)), "", 1, "L")
		}
		if rest := orcamento.RemainingAfterPayments(total, b.Pagamentos); rest > 0 {
			d.text(0, 6, "Saldo em aberto: "+orcamento.FormatBRL(rest), "", 1, "L")
		}
	default:
		d.text(0, 6, "À vista: "+orcamento.FormatBRL(total), "", 1, "L")
	}
}

// signatureQR imprime o QR code do link de assinatura ainda pendente.
func (d *document) signatureQR(link string) {
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return
	}
	d.ensureSpace(36)
	d.pdf.Ln(4)
	name, _, ok := d.registerImage(&Image{Data: png, Type: "png"})
	if !ok {
		return
	}
	y := d.pdf.GetY()
	d.pdf.Image(name, marginLeft, y, 28, 28, false, "", 0, "")
	d.pdf.SetXY(marginLeft+32, y+8)
	d.pdf.SetFont("Helvetica", "", 9)
	d.pdf.MultiCell(0, 4.5, d.tr("Para assinar digitalmente, aponte a câmera para o código ou acesse:\n"+link), "", "L", false)
	d.pdf.SetY(y + 30)
	d.pdf.SetFont("Helvetica", "", 10)
}

var paymentMethodLabels = map[string]string{
	"pix":            "PIX",
	"boleto":         "boleto",
	"dinheiro":       "dinheiro",
	"cartao_credito": "cartão de crédito",
	"cartao_debito":  "cartão de débito",
	"transferencia":  "transferência",
	"cheque":         "cheque",
}

func PaymentMethodLabel(m string) string {
	if l, ok := paymentMethodLabels[strings.ToLower(strings.TrimSpace(m))]; ok {
		return l
	}
	if m == "" {
		return "forma não informada"
	}
	return m
}

// Datas de pagamento chegam como yyyy-MM-dd.
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return t, err == nil
}

func formatDate(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format("02/01/2006")
	}
	if s == "" {
		return "-"
	}
	return s
}

