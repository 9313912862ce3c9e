package pdf

import (
	"strings"
	"time"
)

// BudgetFilename: orcamento[-assinado]-{nome}-{yyyy-MM-dd}.pdf
func BudgetFilename(patientName string, signed bool, date time.Time) string {
	return documentFilename("orcamento", "-assinado", patientName, signed, date)
}

// AnamneseFilename: anamnese[-assinada]-{nome}-{yyyy-MM-dd}.pdf
func AnamneseFilename(patientName string, signed bool, date time.Time) string {
	return documentFilename("anamnese", "-assinada", patientName, signed, date)
}

func documentFilename(prefix, signedSuffix, name string, signed bool, date time.Time) string {
	var b strings.Builder
	b.WriteString(prefix)
	if signed {
		b.WriteString(signedSuffix)
	}
	if slug := nameSlug(name); slug != "" {
		b.WriteByte('-')
		b.WriteString(slug)
	}
	b.WriteByte('-')
	b.WriteString(date.Format("2006-01-02"))
	b.WriteString(".pdf")
	return b.String()
}

// nameSlug troca espaços por hífen e remove caracteres que quebram o Content-Disposition.
func nameSlug(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '"', '/', '\\', ';', '\r', '\n':
			return -1
		}
		return r
	}, name)
	return strings.Join(strings.Fields(name), "-")
}
