// Package ui provides styled terminal output helpers for the CLI.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	PrimaryColor   = lipgloss.Color("#00B3A4")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// PrintTitle prints a section title.
func PrintTitle(title string) {
	fmt.Println(TitleStyle.Render(title))
}

// PrintSuccess prints a success message.
func PrintSuccess(format string, args ...interface{}) {
	fmt.Println(SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message.
func PrintWarning(format string, args ...interface{}) {
	fmt.Println(WarningStyle.Render("⚠ " + fmt.Sprintf(format, args...)))
}

// PrintInfo prints an informational message.
func PrintInfo(format string, args ...interface{}) {
	fmt.Println(SecondaryStyle.Render(fmt.Sprintf(format, args...)))
}

// PrintSQL prints generated SQL with a dim caption.
func PrintSQL(sqlText string) {
	fmt.Println(SecondaryStyle.Render("-- generated SQL"))
	color.New(color.FgCyan).Println(sqlText)
}

// PrintTable renders rows as a boxed table with a header row.
func PrintTable(header []string, rows [][]string) {
	data := pterm.TableData{header}
	data = append(data, rows...)
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

// PrintBars renders a horizontal bar chart.
func PrintBars(bars []pterm.Bar) {
	_ = pterm.DefaultBarChart.WithHorizontal().WithShowValue().WithBars(bars).Render()
}

// RenderMarkdown renders markdown text for the terminal.
func RenderMarkdown(text string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}
