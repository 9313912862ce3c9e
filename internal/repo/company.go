package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Company é a clínica dona dos pacientes e orçamentos; nome e logo vão no cabeçalho dos PDFs.
type Company struct {
	ID      string
	Name    string
	LogoURL *string
	Phone   *string
	Address *string
	CNPJ    *string
}

func CompanyByID(ctx context.Context, pool *pgxpool.Pool, id string) (*Company, error) {
	var c Company
	err := pool.QueryRow(ctx, `
		SELECT id::text, name, logo_url, phone, address, cnpj
		FROM companies WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.LogoURL, &c.Phone, &c.Address, &c.CNPJ)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func UpdateCompanyLogo(ctx context.Context, pool *pgxpool.Pool, id string, logoURL *string) error {
	tag, err := pool.Exec(ctx, `UPDATE companies SET logo_url = $1, updated_at = now() WHERE id = $2`, logoURL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
