package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/closet/internal/tasks"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

// keyMap defines the picker key bindings.
type keyMap struct {
	Toggle  key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model is the candidate picker state.
type Model struct {
	list      list.Model
	keys      keyMap
	items     []tasks.ItemResult
	selected  map[string]bool
	confirmed bool
}

// NewModel creates a picker over the pipeline's item results. Candidates are
// pre-selected unless their branch failed.
func NewModel(items []tasks.ItemResult) Model {
	selected := make(map[string]bool, len(items))
	for _, item := range items {
		selected[item.Candidate.ID] = item.Err == ""
	}

	m := Model{
		keys:     newKeyMap(),
		items:    items,
		selected: selected,
	}

	delegate := list.NewDefaultDelegate()
	m.list = list.New(m.listItems(), delegate, 0, 0)
	m.list.Title = titleStyle.Render("Select garments to add")
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(false)

	return m
}

func (m Model) listItems() []list.Item {
	items := make([]list.Item, len(m.items))
	for i, item := range m.items {
		items[i] = candidateItem{item: item, selected: m.selected[item.Candidate.ID]}
	}
	return items
}

// SelectedIDs returns the candidate IDs confirmed by the user, or nil when
// the picker was dismissed.
func (m Model) SelectedIDs() []string {
	if !m.confirmed {
		return nil
	}
	var ids []string
	for _, item := range m.items {
		if m.selected[item.Candidate.ID] {
			ids = append(ids, item.Candidate.ID)
		}
	}
	return ids
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Toggle):
			if item, ok := m.list.SelectedItem().(candidateItem); ok {
				id := item.item.Candidate.ID
				m.selected[id] = !m.selected[id]
				m.list.SetItems(m.listItems())
			}
			return m, nil
		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View() + "\nspace: toggle • enter: confirm • q: cancel\n"
}

// PickCandidates runs the interactive picker and returns the selected
// candidate IDs. A dismissed picker returns an empty selection.
func PickCandidates(items []tasks.ItemResult) ([]string, error) {
	model := NewModel(items)
	program := tea.NewProgram(model)

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("picker failed: %w", err)
	}

	if m, ok := final.(Model); ok {
		return m.SelectedIDs(), nil
	}
	return nil, nil
}
