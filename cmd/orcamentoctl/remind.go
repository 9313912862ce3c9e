package main

import (
	"fmt"
	"time"

	"github.com/prontuario/odonto/internal/logger"
	"github.com/prontuario/odonto/internal/orcamento"
	"github.com/prontuario/odonto/internal/reminder"
	"github.com/prontuario/odonto/internal/whatsapp"
	"github.com/spf13/cobra"
)

func (a *app) remindCmd() *cobra.Command {
	var idle time.Duration
	cmd := &cobra.Command{
		Use:   "reenviar-links",
		Short: "Reenvia por WhatsApp o link de orçamentos aguardando assinatura",
		RunE: func(cmd *cobra.Command, args []string) error {
			if idle <= 0 {
				return fmt.Errorf("--parado deve ser positivo")
			}
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)

			var sender orcamento.LinkSender
			wa := whatsapp.NewClient(whatsapp.Config{
				AccountSid: a.cfg.TwilioAccountSid,
				AuthToken:  a.cfg.TwilioAuthToken,
				From:       a.cfg.TwilioWhatsAppFrom,
			}, logger.Component("whatsapp"))
			if wa.Configured() {
				sender = wa
			}
			before := time.Now().Add(-idle)
			sent, skipped := reminder.SendSignatureReminders(cmd.Context(), db, before, sender, logger.Component("reminder"))
			a.log.Info().Int("sent", sent).Int("skipped", skipped).Time("before", before).Msg("lembretes concluídos")
			fmt.Fprintf(cmd.OutOrStdout(), "enviados=%d ignorados=%d\n", sent, skipped)
			return nil
		},
	}
	cmd.Flags().DurationVar(&idle, "parado", 72*time.Hour, "tempo mínimo sem alteração desde o envio do link")
	return cmd
}
