package main

import (
	"fmt"

	"github.com/prontuario/odonto/internal/migrate"
	"github.com/spf13/cobra"
)

func (a *app) migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica ou lista as migrations SQL",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "diretório das migrations")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Aplica as migrations pendentes",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)
			return migrate.Run(cmd.Context(), db, dir)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Mostra quais migrations já foram aplicadas",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)
			list, err := migrate.Status(cmd.Context(), db, dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range list {
				state := "pendente"
				if m.Applied {
					state = "aplicada"
				}
				fmt.Fprintf(out, "%-40s %s\n", m.Version, state)
			}
			return nil
		},
	})
	return cmd
}
