package repo

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"
)

// ErrNotFound é devolvido quando o registro não existe, foi removido ou pertence a outra empresa.
var ErrNotFound = errors.New("not found")

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
