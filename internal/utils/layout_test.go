package utils

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestDetailBuilder_Row(t *testing.T) {
	db := NewDetailBuilder(16, lipgloss.NewStyle())
	db.Row("NAT gateway", "nat-0abc")
	db.Row("Elastic IP", "")

	got := db.String()
	if !strings.Contains(got, "NAT gateway") || !strings.Contains(got, "nat-0abc") {
		t.Errorf("Row output missing label or value: %q", got)
	}
	if !strings.Contains(got, "—") {
		t.Error("empty value should render as a dash")
	}
}

func TestDetailBuilder_Section(t *testing.T) {
	db := NewDetailBuilder(16, lipgloss.NewStyle())
	db.Section("Routes")

	got := db.String()
	if !strings.Contains(got, "── Routes") {
		t.Error("Section should contain heading")
	}
	if !strings.Contains(got, "───") {
		t.Error("Section should contain padding dashes")
	}
}

func TestDetailBuilder_Blank(t *testing.T) {
	db := NewDetailBuilder(16, lipgloss.NewStyle())
	db.Row("A", "1")
	db.Blank()
	db.Row("B", "2")

	if !strings.Contains(db.String(), "\n\n") {
		t.Error("Blank should insert empty line")
	}
}
