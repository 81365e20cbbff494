// Package ui renders the live storefront menu as a single-screen terminal
// UI. It is a pure view over the updates emitted by the watch controller:
// one of loading, error, empty, or populated is shown at any time, plus a
// category filter strip when there is something to filter.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/config"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/menu"
	"github.com/helloservices00-blip/fresh-ear-client-ui/internal/watch"
)

// UpdateMsg delivers a new pipeline state to the UI.
type UpdateMsg watch.Update

// updatesClosedMsg signals that the pipeline has shut down.
type updatesClosedMsg struct{}

// Model is the bubbletea model for the menu screen.
type Model struct {
	updates     <-chan watch.Update
	setCategory func(string)

	spinner  spinner.Model
	styles   Styles
	current  watch.Update
	catIndex int
	width    int
}

// New creates the menu screen. setCategory is invoked when the user moves
// the category filter; the resulting re-reduced view arrives as a later
// UpdateMsg.
func New(updates <-chan watch.Update, setCategory func(string)) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		updates:     updates,
		setCategory: setCategory,
		spinner:     sp,
		styles:      DefaultStyles(),
		width:       80,
	}
}

// waitForUpdate blocks on the updates channel as a tea command.
func waitForUpdate(ch <-chan watch.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return UpdateMsg(u)
	}
}

// Init starts the spinner and the update pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UpdateMsg:
		m.current = watch.Update(msg)
		m.clampCategory()
		return m, waitForUpdate(m.updates)

	case updatesClosedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			return m.moveCategory(-1), nil
		case "right", "l":
			return m.moveCategory(1), nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.current.Display() == watch.DisplayLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// clampCategory keeps the selection valid when the category set shrinks,
// falling back to "All" (index 0) when the active entry disappears.
func (m *Model) clampCategory() {
	cats := m.current.View.Categories
	for i, c := range cats {
		if c == m.current.View.ActiveCategory {
			m.catIndex = i
			return
		}
	}
	m.catIndex = 0
}

func (m Model) moveCategory(delta int) Model {
	cats := m.current.View.Categories
	if len(cats) < 2 || m.setCategory == nil {
		return m
	}

	next := m.catIndex + delta
	if next < 0 {
		next = len(cats) - 1
	}
	if next >= len(cats) {
		next = 0
	}
	m.catIndex = next
	m.setCategory(cats[next])
	return m
}

// View renders exactly one of the four display states.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Fresh Ear Menu"))
	b.WriteString("\n")

	if m.current.Fallback {
		b.WriteString(m.styles.Banner.Render("demo mode: dataset " + config.FallbackAppID))
		b.WriteString("\n")
	}

	switch m.current.Display() {
	case watch.DisplayLoading:
		b.WriteString("\n" + m.spinner.View() + " Loading menu...\n")
	case watch.DisplayError:
		m.renderError(&b)
	case watch.DisplayEmpty:
		b.WriteString("\n" + m.styles.Muted.Render("No products available right now.") + "\n")
	case watch.DisplayPopulated:
		m.renderMenu(&b)
	}

	b.WriteString(m.styles.Help.Render("←/→ filter category · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderError(b *strings.Builder) {
	b.WriteString("\n" + m.styles.Error.Render("The menu is unavailable.") + "\n")
	if m.current.Err != nil {
		b.WriteString(m.styles.Muted.Render(m.current.Err.Error()) + "\n")
	}
}

func (m Model) renderMenu(b *strings.Builder) {
	view := m.current.View

	// The filter strip only appears when there is a real choice to make.
	if len(view.Categories) >= 2 {
		parts := make([]string, len(view.Categories))
		for i, cat := range view.Categories {
			if i == m.catIndex {
				parts[i] = m.styles.CategoryActive.Render(cat)
			} else {
				parts[i] = m.styles.CategoryIdle.Render(cat)
			}
		}
		b.WriteString("\n" + strings.Join(parts, " ") + "\n")
	}

	for _, cat := range view.GroupOrder {
		b.WriteString("\n" + m.styles.GroupTitle.Render(cat) + "\n")
		for _, p := range view.Grouped[cat] {
			b.WriteString(m.renderItem(p))
		}
	}
}

func (m Model) renderItem(p menu.Product) string {
	line := "  " + m.styles.ItemName.Render(p.Name)
	if p.Description != "" {
		line += "  " + m.styles.ItemDesc.Render(p.Description)
	}
	line += "  " + m.styles.Price.Render("$"+p.Price.StringFixed(2))
	return line + "\n"
}
