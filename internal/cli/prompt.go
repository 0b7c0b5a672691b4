package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

var (
	// confirmFunc asks a yes/no question; replaced in tests.
	confirmFunc = confirm

	// interactiveFunc reports whether prompts can be shown; replaced in tests.
	interactiveFunc = interactive
)

// interactive reports whether stdin and stdout are both terminals.
func interactive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirmModel is a single yes/no question. Anything but y answers no.
type confirmModel struct {
	question string
	details  []string

	answered  bool
	confirmed bool
}

func newConfirmModel(question string, details []string) confirmModel {
	return confirmModel{question: question, details: details}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answered = true
		m.confirmed = true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "q", "ctrl+c":
		m.answered = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}
	var b strings.Builder
	for _, d := range m.details {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(d))
	}
	fmt.Fprintf(&b, "%s %s ", titleStyle.Render(m.question), mutedStyle.Render("[y/N]"))
	return b.String()
}

// confirm runs the question as a small terminal program.
func confirm(question string, details []string) (bool, error) {
	final, err := tea.NewProgram(newConfirmModel(question, details)).Run()
	if err != nil {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	m, ok := final.(confirmModel)
	if !ok {
		return false, nil
	}
	return m.confirmed, nil
}
