package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// ReportFunc records one finished item of a tracked operation.
type ReportFunc func(item string, failed bool)

// Operation is work tracked by RunWithProgress.
type Operation func(ctx context.Context, report ReportFunc) error

type itemDoneMsg struct {
	item   string
	failed bool
}

type operationDoneMsg struct{}

// progressModel is a Bubble Tea model that redraws a Progress as items
// finish and quits when the operation returns.
type progressModel struct {
	progress *Progress
}

// Init implements tea.Model
func (m progressModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.SetWidth(min(max(msg.Width, MinTerminalWidth), MaxContentWidth))
	case itemDoneMsg:
		m.progress.Advance(msg.item, msg.failed)
	case operationDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m progressModel) View() string {
	return m.progress.Render()
}

// RunWithProgress runs op while drawing a live progress bar on out. When out
// is not a terminal the operation runs without a display.
func RunWithProgress(ctx context.Context, out io.Writer, label string, total int, op Operation) error {
	if !IsTerminal(out) {
		return op(ctx, func(string, bool) {})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(
		progressModel{progress: NewProgress(label, total)},
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)

	errCh := make(chan error, 1)
	go func() {
		err := op(ctx, func(item string, failed bool) {
			prog.Send(itemDoneMsg{item: item, failed: failed})
		})
		prog.Send(operationDoneMsg{})
		errCh <- err
	}()

	if _, err := prog.Run(); err != nil {
		// Interrupted: stop the operation and wait for it
		cancel()
		opErr := <-errCh
		if opErr != nil {
			return opErr
		}
		return fmt.Errorf("progress display failed: %w", err)
	}
	return <-errCh
}

// Printer provides methods for printing UI components to a writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Param) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error result box with hints
func (p *Printer) PrintError(title string, err error, hints ...string) {
	p.Println(NewFailureResult(title, err, hints...).SetWidth(p.width).Render())
}

// PrintTable prints a bordered table
func (p *Printer) PrintTable(headers []string, rows [][]string) {
	p.Println(RenderTable(headers, rows))
}
