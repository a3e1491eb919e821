// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/gomlx/opset/pkg/opset"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	requiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "9", Dark: "9"}).
			Bold(true).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

// highlightedTable is a table where some rows can be highlighted.
type highlightedTable struct {
	Table       *lgtable.Table
	Count       int
	Highlighted map[int]bool
}

// Row appends a row, highlighted or not.
func (t *highlightedTable) Row(highlight bool, row ...string) {
	if highlight {
		t.Highlighted[t.Count] = true
	}
	t.Table.Row(row...)
	t.Count++
}

// Render the table.
func (t *highlightedTable) Render() string { return t.Table.Render() }

func newTable(alignments ...lipgloss.Position) *highlightedTable {
	t := &highlightedTable{Highlighted: make(map[int]bool)}
	t.Table = lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row < 0 {
				s = headerRowStyle
				return
			}
			switch {
			case t.Highlighted[row]:
				s = requiredStyle
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			s = s.Align(alignment)
			return
		})
	return t
}

// operationsTable lists one operation per row: its signature and the names of its attributes.
func operationsTable(specs []*opset.OpSpec) *highlightedTable {
	t := newTable(lipgloss.Right, lipgloss.Left)
	t.Table.Headers("Operation", "Signature", "Attributes")
	for _, spec := range specs {
		attrs := spec.Attributes()
		names := make([]string, len(attrs))
		for ii, a := range attrs {
			names[ii] = a.Name()
		}
		t.Row(false, spec.Name(), spec.String(), strings.Join(names, ", "))
	}
	return t
}

// attributesTable lists the attributes of one operation. Required attributes are highlighted.
func attributesTable(spec *opset.OpSpec) *highlightedTable {
	t := newTable(lipgloss.Right, lipgloss.Left)
	t.Table.Headers("Attribute", "Kind", "Constraints")
	t.Row(false, "signature", "", spec.String())
	for _, a := range spec.Attributes() {
		t.Row(a.IsRequired(), a.Name(), a.Kind().String(), a.Describe())
	}
	return t
}
