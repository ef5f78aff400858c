package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sidediff/sidediff/internal/comments"
	"github.com/sidediff/sidediff/internal/diffmodel"
)

func TestSideForRowPrefersRightThenLeftThenMeta(t *testing.T) {
	line := uint32(1)
	cases := []struct {
		name string
		row  diffmodel.SideBySideRow
		want comments.LineSide
	}{
		{"both sides present picks right", diffmodel.SideBySideRow{
			Left:  diffmodel.DiffCell{Kind: diffmodel.CellContext, Line: &line},
			Right: diffmodel.DiffCell{Kind: diffmodel.CellAdded, Line: &line},
		}, comments.SideRight},
		{"left only", diffmodel.SideBySideRow{
			Left: diffmodel.DiffCell{Kind: diffmodel.CellRemoved, Line: &line},
		}, comments.SideLeft},
		{"neither side present", diffmodel.SideBySideRow{}, comments.SideMeta},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := sideForRow(tt.row); got != tt.want {
				t.Errorf("sideForRow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyMatchesRecognizesBoundKeys(t *testing.T) {
	up := key.NewBinding(key.WithKeys("up", "k"))
	if !keyMatches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}, up) {
		t.Error("expected 'k' to match the Up binding")
	}
	if keyMatches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, up) {
		t.Error("expected 'x' not to match the Up binding")
	}
}
