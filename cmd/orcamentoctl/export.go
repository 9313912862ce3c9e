package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prontuario/odonto/internal/cache"
	"github.com/prontuario/odonto/internal/logger"
	"github.com/prontuario/odonto/internal/pdf"
	"github.com/prontuario/odonto/internal/repo"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	var companyID, budgetID, outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Gera o PDF de um orçamento salvo",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL não configurada")
			}
			pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("conexão postgres: %w", err)
			}
			defer pool.Close()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db)

			b, err := repo.BudgetByID(ctx, pool, companyID, budgetID)
			if err != nil {
				return fmt.Errorf("orçamento %s: %w", budgetID, err)
			}
			company, err := repo.CompanyByID(ctx, pool, companyID)
			if err != nil {
				return fmt.Errorf("empresa %s: %w", companyID, err)
			}
			patientName := ""
			if p, err := repo.PatientByIDAndCompany(ctx, db, b.PatientID, companyID); err == nil {
				patientName = p.FullName
			}

			images := cache.New(a.cfg.ImageCacheTTL)
			defer images.Close()
			exp := &pdf.Exporter{
				Images: &pdf.ImageLoader{
					HTTP:     &http.Client{},
					ProxyURL: a.cfg.ImageProxyURL,
					Timeout:  a.cfg.ImageFetchTimeout,
					Cache:    images,
					Log:      logger.Component("images"),
				},
				Log: logger.Component("pdf"),
			}
			br := pdf.Branding{CompanyName: company.Name}
			if company.Phone != nil {
				br.Phone = *company.Phone
			}
			if company.Address != nil {
				br.Address = *company.Address
			}
			if company.LogoURL != nil {
				br.LogoURL = *company.LogoURL
			}
			filename, data, err := exp.ExportBudget(ctx, b, br, patientName)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, filename)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "id da empresa (clínica)")
	cmd.Flags().StringVar(&budgetID, "budget", "", "id do orçamento")
	cmd.Flags().StringVar(&outDir, "out", ".", "diretório de saída")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}
