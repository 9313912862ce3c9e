package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prontuario/odonto/internal/migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenDB abre conexão GORM a partir de DATABASE_URL. Se não houver, retorna nil.
func OpenDB(ctx context.Context) (*gorm.DB, string) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, ""
	}
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{})
	if err != nil {
		return nil, url
	}
	if _, err := db.DB(); err != nil {
		return nil, url
	}
	return db, url
}

// OpenPool abre o pool pgx para o mesmo DATABASE_URL.
func OpenPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, url)
}

func MustMigrate(ctx context.Context, db *gorm.DB) error {
	migrationsDir, err := findMigrationsDir()
	if err != nil {
		return err
	}
	return migrate.Run(ctx, db, migrationsDir)
}

// SeedCompanyPatient cria uma empresa e um paciente descartáveis para testes de integração.
func SeedCompanyPatient(ctx context.Context, db *gorm.DB, name string) (companyID, patientID string, err error) {
	var c struct{ ID string }
	if err = db.WithContext(ctx).Raw(`INSERT INTO companies (name) VALUES (?) RETURNING id::text AS id`, name).Scan(&c).Error; err != nil {
		return "", "", err
	}
	var p struct{ ID string }
	if err = db.WithContext(ctx).Raw(`INSERT INTO patients (company_id, full_name, phone) VALUES (?, ?, ?) RETURNING id::text AS id`,
		c.ID, "Maria Silva", "+5511999990000").Scan(&p).Error; err != nil {
		return "", "", err
	}
	return c.ID, p.ID, nil
}

func findMigrationsDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	cur := wd
	for i := 0; i < 8; i++ {
		candidate := filepath.Join(cur, "migrations")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", errors.New("migrations dir not found from working directory")
}
