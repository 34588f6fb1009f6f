// Package console implements a read-only bubbletea operator dashboard
// (tick rate, loaded-chunk count, connected players, region pool
// occupancy), the same TUI stack go-mclib-client/client/tui.go drives
// for a player's live view, repurposed for server operators.
package console

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxOpenRegionFiles mirrors world/store.MaxOpen, duplicated here rather
// than imported to keep this display package independent of the world
// subsystem; it is only used to scale the occupancy bar.
const maxOpenRegionFiles = 16

// Stats is one snapshot of server vital signs.
type Stats struct {
	TicksPerSecond   float64
	LoadedChunks     int
	ConnectedPlayers int
	OpenRegionFiles  int
}

// Sink supplies the latest Stats snapshot on demand; the dashboard
// polls it on a fixed interval rather than owning a push channel, so it
// can be bolted onto any subsystem (chunkmap.Map, store.Store, a player
// registry) without those packages depending on console.
type Sink interface {
	Stats() Stats
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type tickMsg time.Time

func pollEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model for the dashboard. It never accepts
// player input (spec: "read-only"); the only keys it handles are the
// quit keys.
type Model struct {
	sink     Sink
	interval time.Duration
	stats    Stats
	width    int
	quitting bool
	occBar   progress.Model
}

func NewModel(sink Sink, interval time.Duration) Model {
	if interval <= 0 {
		interval = time.Second
	}
	return Model{sink: sink, interval: interval, occBar: progress.New(progress.WithDefaultGradient())}
}

func (m Model) Init() tea.Cmd {
	return pollEvery(m.interval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.occBar.Width = msg.Width - len("Region pool: ")
	case tickMsg:
		m.stats = m.sink.Stats()
		return m, pollEvery(m.interval)
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	title := titleStyle.Render("Server Dashboard")
	rows := []string{
		row("Ticks/sec", fmt.Sprintf("%.1f", m.stats.TicksPerSecond)),
		row("Loaded chunks", fmt.Sprintf("%d", m.stats.LoadedChunks)),
		row("Connected players", fmt.Sprintf("%d", m.stats.ConnectedPlayers)),
		row("Open region files", fmt.Sprintf("%d", m.stats.OpenRegionFiles)),
	}
	occupancy := float64(m.stats.OpenRegionFiles) / float64(maxOpenRegionFiles)
	if occupancy > 1 {
		occupancy = 1
	}
	occRow := labelStyle.Render("Region pool: ") + m.occBar.ViewAs(occupancy)

	help := helpStyle.Render("Ctrl+C/Esc: quit")
	body := title
	for _, r := range rows {
		body += "\n" + r
	}
	return body + "\n" + occRow + "\n\n" + help
}

func row(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value)
}
