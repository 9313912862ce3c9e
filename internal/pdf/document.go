package pdf

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
)

const (
	marginLeft   = 15.0
	marginTop    = 15.0
	marginRight  = 15.0
	marginBottom = 18.0
	lineH        = 5.0
)

// Header são os dados de marca impressos no topo da primeira página.
type Header struct {
	CompanyName string
	Phone       string
	Address     string
	// Logo nil desenha o selo com as iniciais da clínica
	Logo *Image
}

// document embrulha o fpdf com o tradutor cp1252 (acentos nas fontes padrão).
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	seq int
}

func newDocument(title string, generatedAt time.Time) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(120, 120, 120)
		half := d.contentWidth() / 2
		pdf.CellFormat(half, 5, d.tr(fmt.Sprintf("Gerado em %s", generatedAt.Format("02/01/2006 15:04"))), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 5, d.tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()
	return d
}

func (d *document) contentWidth() float64 {
	w, _ := d.pdf.GetPageSize()
	return w - marginLeft - marginRight
}

// bottomLimit é o Y máximo antes da quebra de página.
func (d *document) bottomLimit() float64 {
	_, h := d.pdf.GetPageSize()
	return h - marginBottom
}

func (d *document) ensureSpace(h float64) bool {
	if d.pdf.GetY()+h <= d.bottomLimit() {
		return false
	}
	d.pdf.AddPage()
	return true
}

func (d *document) text(w, h float64, s, border string, ln int, align string) {
	d.pdf.CellFormat(w, h, d.tr(s), border, ln, align, false, 0, "")
}

func (d *document) sectionTitle(s string) {
	d.ensureSpace(14)
	d.pdf.Ln(3)
	d.pdf.SetFont("Helvetica", "B", 11)
	d.text(0, 7, s, "B", 1, "L")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.Ln(1)
}

// registerImage embute a imagem; uma imagem inválida não derruba o documento.
func (d *document) registerImage(img *Image) (string, float64, bool) {
	if img == nil || len(img.Data) == 0 {
		return "", 0, false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil || cfg.Height == 0 {
		return "", 0, false
	}
	d.seq++
	name := fmt.Sprintf("img%d", d.seq)
	d.pdf.RegisterImageReader(name, img.Type, bytes.NewReader(img.Data))
	if d.pdf.Err() {
		d.pdf.ClearError()
		return "", 0, false
	}
	return name, float64(cfg.Width) / float64(cfg.Height), true
}

// header desenha logo (ou selo de iniciais), nome da clínica e o título do documento.
func (d *document) header(h Header, title, subtitle string) {
	const logoH = 18.0
	top := d.pdf.GetY()
	textX := marginLeft + logoH + 4
	if name, ratio, ok := d.registerImage(h.Logo); ok {
		w := logoH * ratio
		if w > 45 {
			w = 45
		}
		d.pdf.Image(name, marginLeft, top, w, 0, false, "", 0, "")
		textX = marginLeft + w + 4
	} else {
		d.initialsBadge(h.CompanyName, marginLeft+logoH/2, top+logoH/2, logoH/2)
	}

	d.pdf.SetXY(textX, top+1)
	d.pdf.SetFont("Helvetica", "B", 14)
	d.text(0, 7, h.CompanyName, "", 2, "L")
	d.pdf.SetFont("Helvetica", "", 9)
	var contact []string
	if h.Phone != "" {
		contact = append(contact, h.Phone)
	}
	if h.Address != "" {
		contact = append(contact, h.Address)
	}
	if len(contact) > 0 {
		d.pdf.SetX(textX)
		d.text(0, 5, strings.Join(contact, " | "), "", 2, "L")
	}

	d.pdf.SetY(top + logoH + 4)
	d.pdf.SetFont("Helvetica", "B", 16)
	d.text(0, 8, title, "", 1, "C")
	if subtitle != "" {
		d.pdf.SetFont("Helvetica", "", 10)
		d.text(0, 6, subtitle, "", 1, "C")
	}
	d.pdf.Ln(2)
	d.pdf.SetFont("Helvetica", "", 10)
}

func (d *document) initialsBadge(name string, cx, cy, r float64) {
	d.pdf.SetFillColor(int(inkColor.R), int(inkColor.G), int(inkColor.B))
	d.pdf.Circle(cx, cy, r, "F")
	d.pdf.SetTextColor(255, 255, 255)
	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.SetXY(cx-r, cy-3)
	d.text(2*r, 6, Initials(name), "", 0, "C")
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetFillColor(255, 255, 255)
}

// Initials devolve até duas iniciais em maiúsculas ("Clínica Sorriso Feliz" → "CS").
func Initials(name string) string {
	var out []rune
	for _, w := range strings.Fields(name) {
		r := []rune(w)[0]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// signatureBlock desenha a assinatura processada com nome e data, ou uma linha em branco.
func (d *document) signatureBlock(sig *Image, signer string, signedAt *time.Time, label string) {
	d.ensureSpace(42)
	d.pdf.Ln(8)
	w := 80.0
	x := marginLeft + (d.contentWidth()-w)/2
	if name, ratio, ok := d.registerImage(sig); ok {
		h := 22.0
		iw := h * ratio
		if iw > w {
			iw = w
			h = iw / ratio
		}
		d.pdf.Image(name, x+(w-iw)/2, d.pdf.GetY(), iw, h, false, "", 0, "")
		d.pdf.SetY(d.pdf.GetY() + h + 1)
	} else {
		d.pdf.SetY(d.pdf.GetY() + 20)
	}
	y := d.pdf.GetY()
	d.pdf.SetDrawColor(0, 0, 0)
	d.pdf.Line(x, y, x+w, y)
	d.pdf.Ln(1)
	d.pdf.SetFont("Helvetica", "", 9)
	if signer != "" {
		d.text(0, 5, signer, "", 1, "C")
	} else {
		d.text(0, 5, label, "", 1, "C")
	}
	if signedAt != nil {
		d.text(0, 5, "Assinado eletronicamente em "+signedAt.Format("02/01/2006 às 15:04"), "", 1, "C")
	}
	d.pdf.SetFont("Helvetica", "", 10)
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
