package orcamento

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const maxListedTeeth = 5

// ToothLabel renders the tooth coverage of a procedure:
// "Todos os dentes", "Superiores + Inferiores", "11, 21, 31" or "11-17 (7 dentes)".
func ToothLabel(selection []SelectionType, dentes []Tooth) string {
	var upper, lower bool
	for _, s := range selection {
		switch s {
		case SelectionAll:
			return "Todos os dentes"
		case SelectionUpper:
			upper = true
		case SelectionLower:
			lower = true
		}
	}
	var parts []string
	if upper {
		parts = append(parts, "Superiores")
	}
	if lower {
		parts = append(parts, "Inferiores")
	}
	if len(parts) > 0 {
		return strings.Join(parts, " + ")
	}
	if len(dentes) == 0 {
		return ""
	}
	nums := make([]int, len(dentes))
	for i, d := range dentes {
		nums[i] = d.Numero
	}
	sort.Ints(nums)
	if len(nums) <= maxListedTeeth {
		s := make([]string, len(nums))
		for i, n := range nums {
			s[i] = strconv.Itoa(n)
		}
		return strings.Join(s, ", ")
	}
	return fmt.Sprintf("%d-%d (%d dentes)", nums[0], nums[len(nums)-1], len(nums))
}
