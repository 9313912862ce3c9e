package main

import (
	"fmt"
	"time"

	"github.com/prontuario/odonto/internal/auth"
	"github.com/spf13/cobra"
)

func (a *app) tokenCmd() *cobra.Command {
	var userID, companyID, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite um JWT para testar a API localmente",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case auth.RoleProfessional, auth.RoleSecretary, auth.RoleAdmin:
			default:
				return fmt.Errorf("role inválida: %q", role)
			}
			tok, err := auth.BuildJWT(a.cfg.JWTSecret, userID, role, companyID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "dev", "id do usuário")
	cmd.Flags().StringVar(&companyID, "company", "", "id da empresa (clínica)")
	cmd.Flags().StringVar(&role, "role", auth.RoleProfessional, "PROFESSIONAL, SECRETARY ou ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "validade do token")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
