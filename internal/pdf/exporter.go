package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/prontuario/odonto/internal/metrics"
	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/rs/zerolog"
)

// Branding são os dados da clínica como vêm do cadastro; LogoURL ainda não foi carregada.
type Branding struct {
	CompanyName string
	Phone       string
	Address     string
	LogoURL     string
}

// Exporter monta os PDFs carregando logo e assinatura. Falha em imagem nunca impede o
// documento: o logo vira selo de iniciais e a assinatura vira linha em branco.
type Exporter struct {
	Images  *ImageLoader
	Metrics *metrics.Metrics
	Log     zerolog.Logger
	Now     func() time.Time
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) header(ctx context.Context, br Branding) Header {
	h := Header{CompanyName: br.CompanyName, Phone: br.Phone, Address: br.Address}
	if br.LogoURL == "" || e.Images == nil {
		return h
	}
	logo, err := e.Images.Load(ctx, br.LogoURL)
	if err != nil {
		e.Log.Warn().Err(err).Msg("logo indisponível, usando iniciais")
		return h
	}
	h.Logo = logo
	return h
}

func (e *Exporter) signature(ctx context.Context, ref string) *Image {
	if ref == "" {
		return nil
	}
	var raw *Image
	var err error
	if e.Images != nil {
		raw, err = e.Images.Load(ctx, ref)
	} else {
		raw, err = DecodeDataURL(ref)
	}
	if err != nil {
		e.Log.Warn().Err(err).Msg("assinatura indisponível, usando linha em branco")
		return nil
	}
	img, err := ProcessSignature(raw)
	if err != nil {
		e.Log.Warn().Err(err).Msg("falha ao processar assinatura")
		return nil
	}
	return img
}

// ExportBudget devolve o nome do arquivo e o PDF do orçamento.
func (e *Exporter) ExportBudget(ctx context.Context, b *orcamento.Budget, br Branding, patientName string) (string, []byte, error) {
	if b == nil {
		return "", nil, fmt.Errorf("pdf: orçamento vazio")
	}
	now := e.now()
	signed := b.SignatureImageURL != ""
	d, err := renderBudget(BudgetDocument{
		Budget:      b,
		PatientName: patientName,
		Header:      e.header(ctx, br),
		Signature:   e.signature(ctx, b.SignatureImageURL),
		GeneratedAt: now,
	})
	if err != nil {
		return "", nil, fmt.Errorf("render orçamento: %w", err)
	}
	data, err := d.bytes()
	if err != nil {
		return "", nil, fmt.Errorf("render orçamento: %w", err)
	}
	e.Metrics.PDFExported("orcamento", signed)
	e.Log.Info().Str("budget_id", b.ID).Bool("signed", signed).Int("pages", d.pdf.PageCount()).Msg("orçamento exportado")
	return BudgetFilename(patientName, signed, now), data, nil
}

// AnamneseExport é a anamnese com a referência da assinatura ainda não carregada.
type AnamneseExport struct {
	Titulo            string
	Secoes            []AnamneseSection
	SignedBy          string
	SignedAt          *time.Time
	SignatureImageURL string
}

func (e *Exporter) ExportAnamnese(ctx context.Context, a AnamneseExport, br Branding, patientName string) (string, []byte, error) {
	now := e.now()
	signed := a.SignatureImageURL != ""
	d, err := renderAnamnese(AnamneseDocument{
		Titulo:      a.Titulo,
		PatientName: patientName,
		Secoes:      a.Secoes,
		Header:      e.header(ctx, br),
		Signature:   e.signature(ctx, a.SignatureImageURL),
		SignedBy:    a.SignedBy,
		SignedAt:    a.SignedAt,
		GeneratedAt: now,
	})
	if err != nil {
		return "", nil, fmt.Errorf("render anamnese: %w", err)
	}
	data, err := d.bytes()
	if err != nil {
		return "", nil, fmt.Errorf("render anamnese: %w", err)
	}
	e.Metrics.PDFExported("anamnese", signed)
	return AnamneseFilename(patientName, signed, now), data, nil
}
