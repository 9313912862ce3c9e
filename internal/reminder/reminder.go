package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/prontuario/odonto/internal/repo"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// PendingLister returns budgets still waiting for the patient's signature. Tests pass a mock;
// in production nil selects repo.ListPendingSignatures.
type PendingLister interface {
	ListPendingSignatures(ctx context.Context, db *gorm.DB, before time.Time) ([]repo.PendingSignatureRow, error)
}

// SendSignatureReminders resends the signature link of every budget idle since before.
// Per-budget failures are logged and do not stop the rest. A nil sender counts everything as skipped.
func SendSignatureReminders(ctx context.Context, db *gorm.DB, before time.Time, sender orcamento.LinkSender, log zerolog.Logger) (sent int, skipped int) {
	return SendSignatureRemindersWithLister(ctx, db, before, sender, nil, log)
}

func SendSignatureRemindersWithLister(ctx context.Context, db *gorm.DB, before time.Time, sender orcamento.LinkSender, lister PendingLister, log zerolog.Logger) (sent int, skipped int) {
	if db == nil && lister == nil {
		log.Warn().Msg("db nil e sem lister, nada a fazer")
		return 0, 0
	}
	var rows []repo.PendingSignatureRow
	var err error
	if lister != nil {
		rows, err = lister.ListPendingSignatures(ctx, db, before)
	} else {
		rows, err = repo.ListPendingSignatures(ctx, db, before)
	}
	if err != nil {
		log.Error().Err(err).Msg("ListPendingSignatures")
		return 0, 0
	}
	if sender == nil {
		log.Info().Int("pending", len(rows)).Msg("WhatsApp não configurado, nenhum lembrete enviado")
		return 0, len(rows)
	}
	for _, r := range rows {
		phone := ""
		if r.PatientPhone != nil {
			phone = strings.TrimSpace(*r.PatientPhone)
		}
		if phone == "" {
			log.Info().Str("budget_id", r.BudgetID).Msg("paciente sem telefone")
			skipped++
			continue
		}
		if err := sender.SendSignatureLink(phone, r.PatientName, r.SignatureLink); err != nil {
			log.Error().Err(err).Str("budget_id", r.BudgetID).Str("company_id", r.CompanyID).Msg("envio falhou")
			skipped++
			continue
		}
		sent++
		log.Info().Str("budget_id", r.BudgetID).Msg("lembrete enviado")
	}
	return sent, skipped
}
