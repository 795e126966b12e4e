// File: internal/ui/authcode/authcode.go
package authcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrCancelled = errors.New("authorization cancelled")

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

// Model is a single-line prompt for the OAuth authorization code
type Model struct {
	input     textinput.Model
	authURL   string
	value     string
	cancelled bool
}

func NewModel(authURL string) Model {
	ti := textinput.New()
	ti.Placeholder = "authorization code or redirected URL"
	ti.Prompt = "> "
	ti.Focus()

	return Model{input: ti, authURL: authURL}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			if v := strings.TrimSpace(m.input.Value()); v != "" {
				m.value = v
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.value != "" || m.cancelled {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Open this URL in a browser and approve access:"))
	sb.WriteString("\n\n")
	// Rendered unstyled so terminals keep it clickable and copyable
	sb.WriteString(m.authURL)
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("Paste the code, or the whole address of the page you were sent to. Esc cancels."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) Value() string {
	return m.value
}

func (m Model) Cancelled() bool {
	return m.cancelled
}

// Runs the prompt on in/out until the user submits a code, cancels, or ctx ends
func Prompt(ctx context.Context, in io.Reader, out io.Writer, authURL string) (string, error) {
	p := tea.NewProgram(NewModel(authURL), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("error running authorization prompt: %w", err)
	}

	m, ok := final.(Model)
	if !ok || m.Cancelled() {
		return "", ErrCancelled
	}
	return m.Value(), nil
}
