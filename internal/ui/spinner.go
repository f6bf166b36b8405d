package ui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// doneMsg tells the spinner that the wrapped operation returned
type doneMsg struct{}

// spinnerModel shows a spinner and a label until doneMsg arrives.
// Ctrl+C cancels the wrapped operation instead of killing the program.
type spinnerModel struct {
	spinner spinner.Model
	label   string
	cancel  context.CancelFunc
	done    bool
}

func newSpinnerModel(label string, cancel context.CancelFunc) spinnerModel {
	return spinnerModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		label:   label,
		cancel:  cancel,
	}
}

// Init implements tea.Model
func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && m.cancel != nil {
			m.cancel()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.label + "\n"
}

// RunWithSpinner runs fn while a spinner with label is shown on out.
// Without a terminal on out, fn simply runs. fn's error is returned.
func RunWithSpinner(ctx context.Context, out *os.File, label string, fn func(context.Context) error) error {
	if !IsTerminal(out) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(label, cancel), tea.WithOutput(out))

	result := make(chan error, 1)
	go func() {
		result <- fn(ctx)
		p.Send(doneMsg{})
	}()

	_, runErr := p.Run()
	if runErr != nil {
		cancel()
	}
	if err := <-result; err != nil {
		return err
	}
	return runErr
}
