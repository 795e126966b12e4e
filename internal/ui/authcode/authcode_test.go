package authcode

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func TestModelSubmitsTrimmedValue(t *testing.T) {
	m := typeText(t, NewModel("https://accounts.example/consent"), "  4/abc ")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "4/abc", m.Value())
	assert.False(t, m.Cancelled())
}

func TestModelIgnoresEmptySubmit(t *testing.T) {
	next, cmd := NewModel("u").Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, next.(Model).Value())
}

func TestModelCancel(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		next, cmd := NewModel("u").Update(tea.KeyMsg{Type: key})

		require.NotNil(t, cmd)
		assert.True(t, next.(Model).Cancelled())
	}
}

func TestModelView(t *testing.T) {
	m := NewModel("https://accounts.example/consent?state=s1")
	view := m.View()

	assert.Contains(t, view, "https://accounts.example/consent?state=s1")
	assert.Contains(t, view, "Esc cancels")

	next, _ := typeText(t, m, "code").Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, next.(Model).View())
}
