// Command orcamentoctl reúne as tarefas de operação fora do servidor HTTP:
// migrations, exportação de PDF, lembretes de assinatura e tokens de desenvolvimento.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prontuario/odonto/internal/config"
	"github.com/prontuario/odonto/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "orcamentoctl",
		Short:         "Ferramentas de operação dos orçamentos odontológicos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			a.log = logger.Setup(a.cfg.LogLevel, a.cfg.LogFormat)
		},
	}
	root.AddCommand(a.migrateCmd(), a.exportCmd(), a.remindCmd(), a.tokenCmd())
	return root
}

func (a *app) openDB(ctx context.Context) (*gorm.DB, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL não configurada")
	}
	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
