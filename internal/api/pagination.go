package api

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ParseLimitOffset lê limit e offset da query. Valores inválidos ficam no padrão (20, 0); limit máximo 100.
func ParseLimitOffset(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit = defaultLimit
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = min(n, maxLimit)
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n >= 0 {
		offset = n
	}
	return limit, offset
}

// pageBounds devolve a janela [start, end) de uma lista com total itens.
func pageBounds(total, limit, offset int) (start, end int) {
	start = min(offset, total)
	end = min(start+limit, total)
	return start, end
}
