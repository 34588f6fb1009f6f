package console

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeSink struct{ stats Stats }

func (f fakeSink) Stats() Stats { return f.stats }

func TestUpdateAppliesTickSnapshot(t *testing.T) {
	m := NewModel(fakeSink{stats: Stats{TicksPerSecond: 20, LoadedChunks: 5, ConnectedPlayers: 2, OpenRegionFiles: 1}}, time.Millisecond)
	updated, cmd := m.Update(tickMsg(time.Now()))
	next := updated.(Model)
	if next.stats.LoadedChunks != 5 || next.stats.ConnectedPlayers != 2 {
		t.Fatalf("stats not applied: %+v", next.stats)
	}
	if cmd == nil {
		t.Fatal("expected a follow-up poll command")
	}
}

func TestQuitKeyStopsTheProgram(t *testing.T) {
	m := NewModel(fakeSink{}, time.Second)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	next := updated.(Model)
	if !next.quitting {
		t.Fatal("expected quitting to be set")
	}
	if cmd == nil {
		t.Fatal("expected tea.Quit command")
	}
}

func TestViewRendersStatsAfterTick(t *testing.T) {
	m := NewModel(fakeSink{stats: Stats{TicksPerSecond: 19.8, LoadedChunks: 3}}, time.Millisecond)
	updated, _ := m.Update(tickMsg(time.Now()))
	view := updated.(Model).View()
	if view == "" {
		t.Fatal("expected non-empty view")
	}
}
