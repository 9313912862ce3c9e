package pdf

import (
	"fmt"
	"strings"
	"time"
)

type AnamneseQuestion struct {
	Pergunta string
	Resposta string
}

type AnamneseSection struct {
	Titulo    string
	Perguntas []AnamneseQuestion
}

// AnamneseDocument é o questionário respondido, pronto para impressão.
type AnamneseDocument struct {
	Titulo      string
	PatientName string
	Secoes      []AnamneseSection
	Header      Header
	Signature   *Image
	SignedBy    string
	SignedAt    *time.Time
	GeneratedAt time.Time
}

func renderAnamnese(doc AnamneseDocument) (*document, error) {
	when := doc.GeneratedAt
	if when.IsZero() {
		when = time.Now()
	}
	title := strings.TrimSpace(doc.Titulo)
	if title == "" {
		title = "Anamnese"
	}
	d := newDocument(title+" - "+doc.PatientName, when)
	d.header(doc.Header, title, "Paciente: "+doc.PatientName)

	for _, s := range doc.Secoes {
		d.sectionTitle(s.Titulo)
		for i, q := range s.Perguntas {
			d.ensureSpace(12)
			d.pdf.SetFont("Helvetica", "B", 10)
			d.pdf.MultiCell(0, lineH, d.tr(fmt.Sprintf("%d. %s", i+1, q.Pergunta)), "", "L", false)
			d.pdf.SetFont("Helvetica", "", 10)
			answer := strings.TrimSpace(q.Resposta)
			if answer == "" {
				answer = "Não respondida"
			}
			d.pdf.SetX(marginLeft + 5)
			d.pdf.MultiCell(0, lineH, d.tr(answer), "", "L", false)
			d.pdf.Ln(1)
		}
	}
	if len(doc.Secoes) == 0 {
		d.text(0, 7, "Nenhuma resposta registrada.", "", 1, "C")
	}
	d.signatureBlock(doc.Signature, doc.SignedBy, doc.SignedAt, "Assinatura do paciente")
	if d.pdf.Err() {
		return nil, d.pdf.Error()
	}
	return d, nil
}
