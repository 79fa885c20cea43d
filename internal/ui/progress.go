package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Progress tracks completion of a batch of independent items.
type Progress struct {
	Label   string // e.g., "Generating signatures..."
	Done    int    // Finished items
	Failed  int    // Finished items that failed
	Total   int    // Item count
	Current string // Last finished item
	Width   int    // Terminal width
	bar     progress.Model
}

// NewProgress creates a progress display for total items.
func NewProgress(label string, total int) *Progress {
	p := &Progress{Label: label, Total: total}
	return p.SetWidth(GetTerminalWidth())
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := min(max(width-30, 20), 50) // Leave room for percentage and counters
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// Advance records one finished item.
func (p *Progress) Advance(item string, failed bool) {
	p.Done++
	if failed {
		p.Failed++
	}
	p.Current = item
}

// Percent returns completion in the range [0, 1].
func (p *Progress) Percent() float64 {
	if p.Total <= 0 {
		return 1
	}
	return min(float64(p.Done)/float64(p.Total), 1)
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	counter := fmt.Sprintf("[%s/%s]", humanize.Comma(int64(p.Done)), humanize.Comma(int64(p.Total)))
	b.WriteString(lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  %s", p.bar.ViewAs(p.Percent()), p.Percent()*100, counter)))
	b.WriteString("\n")

	var notes []string
	if p.Failed > 0 {
		notes = append(notes, fmt.Sprintf("%d failed", p.Failed))
	}
	if p.Current != "" {
		notes = append(notes, "last "+p.Current)
	}
	if len(notes) > 0 {
		b.WriteString("  ")
		b.WriteString(ProgressNoteStyle.Render(strings.Join(notes, ", ")))
		b.WriteString("\n")
	}

	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
