package orcamento

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func teeth(nums ...int) []Tooth {
	out := make([]Tooth, len(nums))
	for i, n := range nums {
		out[i] = Tooth{Numero: n}
	}
	return out
}

func TestToothLabel(t *testing.T) {
	cases := []struct {
		name      string
		selection []SelectionType
		dentes    []Tooth
		want      string
	}{
		{"few teeth", nil, teeth(11, 21, 31), "11, 21, 31"},
		{"sorted", nil, teeth(31, 11, 21), "11, 21, 31"},
		{"five listed", nil, teeth(15, 14, 13, 12, 11), "11, 12, 13, 14, 15"},
		{"range", nil, teeth(11, 12, 13, 14, 15, 16, 17), "11-17 (7 dentes)"},
		{"all", []SelectionType{SelectionAll}, teeth(11), "Todos os dentes"},
		{"all wins", []SelectionType{SelectionUpper, SelectionAll}, nil, "Todos os dentes"},
		{"upper", []SelectionType{SelectionUpper}, nil, "Superiores"},
		{"lower", []SelectionType{SelectionLower}, nil, "Inferiores"},
		{"both arcades", []SelectionType{SelectionLower, SelectionUpper}, nil, "Superiores + Inferiores"},
		{"none", nil, nil, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ToothLabel(c.selection, c.dentes))
		})
	}
}
