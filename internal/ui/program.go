package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one key/value line in a result box. Details render in order.
type Detail struct {
	Key   string
	Value string
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

// NewPrinterWidth creates a Printer with a fixed width
func NewPrinterWidth(w io.Writer, width int) *Printer {
	p := NewPrinter(w)
	if width >= MinTerminalWidth {
		p.width = width
	}
	return p
}

// Width returns the width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details []Detail) {
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintError prints an error result box. hint may span several lines.
func (p *Printer) PrintError(title string, err error, hint string) {
	p.Println(RenderErrorBox(title, err, hint, p.width))
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details []Detail, width int) string {
	lines := []string{
		SuccessTitleStyle.Render(SuccessMarker + "  " + title),
		"",
	}
	for _, d := range details {
		lines = append(lines, renderDetail(d.Key, ValueStyle.Render(d.Value)))
	}
	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box with troubleshooting
func RenderErrorBox(title string, err error, hint string, width int) string {
	lines := []string{
		ErrorTitleStyle.Render(FailureMarker + "  " + title),
		"",
	}

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("Error: "+err.Error()), "")
	}

	if hint != "" {
		for _, line := range strings.Split(hint, "\n") {
			lines = append(lines, HintStyle.Render(line))
		}
	}

	return ErrorBoxStyle(width).Render(strings.TrimRight(strings.Join(lines, "\n"), "\n"))
}

// renderDetail renders one "key: value" line; value is already styled
func renderDetail(key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, KeyStyle.Render(key+":"), " ", value)
}
