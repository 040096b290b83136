package main

import (
	"fmt"

	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/charmbracelet/lipgloss"
)

var (
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

const timestampFormat = "2006-01-02 15:04:05"

// formatGenerationLine renders one row of the list output
func formatGenerationLine(gen types.Generation, active bool) string {
	marker := ""
	if active {
		marker = " " + activeStyle.Render("(active)")
	}
	return fmt.Sprintf("  %d - %s - %d links%s",
		gen.ID,
		gen.CreatedAt.Local().Format(timestampFormat),
		len(gen.Links),
		marker,
	)
}

// formatGeneration renders the detailed show output
func formatGeneration(gen *types.Generation, active bool) string {
	out := fmt.Sprintf("Generation %d:\n", gen.ID)
	out += fmt.Sprintf("  Created at: %s\n", gen.CreatedAt.Local().Format(timestampFormat))
	out += fmt.Sprintf("  Active: %v\n", active)
	out += fmt.Sprintf("  Config: %s\n", gen.ConfigSource)
	out += "  Links:\n"
	for _, link := range gen.Links {
		out += fmt.Sprintf("    %s -> %s [%s]\n", link.Target, link.Source, link.Kind)
		if link.BackupPath != "" {
			out += dimStyle.Render(fmt.Sprintf("      (backup: %s)", link.BackupPath)) + "\n"
		}
	}
	return out
}

// formatVerifyResult renders one row of the verify output
func formatVerifyResult(result types.VerifyResult) string {
	if result.Status == types.StatusOk {
		return fmt.Sprintf("  %s %s", okStyle.Render("ok"), result.Link.Target)
	}
	line := fmt.Sprintf("  %s %s", badStyle.Render(string(result.Status)), result.Link.Target)
	if result.Detail != "" {
		line += dimStyle.Render(" (" + result.Detail + ")")
	}
	return line
}
