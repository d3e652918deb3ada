package chart

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestCellSurface_SizeAndClear(t *testing.T) {
	s := NewCellSurface(10, 4)
	w, h := s.Size()
	if w != 10 || h != 4 {
		t.Errorf("size = %dx%d, want 10x4", w, h)
	}

	s.Text(0, 0, "hi", lipgloss.NewStyle())
	s.Clear()
	if s.RuneAt(0, 0) != ' ' {
		t.Error("Clear should blank every cell")
	}
}

func TestCellSurface_NegativeSize(t *testing.T) {
	s := NewCellSurface(-3, -1)
	w, h := s.Size()
	if w != 0 || h != 0 {
		t.Errorf("negative size should clamp to 0x0, got %dx%d", w, h)
	}
	// Drawing on an empty surface must not panic.
	s.Text(0, 0, "x", lipgloss.NewStyle())
	s.FillRect(0, 0, 2, 2, lipgloss.NewStyle())
}

func TestCellSurface_FillRectClips(t *testing.T) {
	s := NewCellSurface(4, 3)
	s.FillRect(2, 1, 5, 5, lipgloss.NewStyle())

	if s.RuneAt(2, 1) != '█' || s.RuneAt(3, 2) != '█' {
		t.Error("in-bounds cells should be filled")
	}
	if s.RuneAt(0, 0) != ' ' {
		t.Error("cells outside the rect should stay blank")
	}
}

func TestCellSurface_FillBarPartialTop(t *testing.T) {
	s := NewCellSurface(3, 5)
	s.FillBar(0, 2, 4, 2.5, lipgloss.NewStyle())

	// Two full rows up from the baseline, then a half block.
	if s.RuneAt(0, 4) != '█' || s.RuneAt(0, 3) != '█' {
		t.Errorf("full rows wrong: %q %q", s.RuneAt(0, 4), s.RuneAt(0, 3))
	}
	if s.RuneAt(0, 2) != '▄' {
		t.Errorf("partial top = %q, want half block", s.RuneAt(0, 2))
	}
	if s.RuneAt(0, 1) != ' ' {
		t.Error("rows above the bar should stay blank")
	}
	if s.RuneAt(2, 4) != ' ' {
		t.Error("columns beyond the bar width should stay blank")
	}
}

func TestCellSurface_FillBarZeroHeight(t *testing.T) {
	s := NewCellSurface(3, 3)
	s.FillBar(0, 3, 2, 0, lipgloss.NewStyle())
	for x := 0; x < 3; x++ {
		if s.RuneAt(x, 2) != ' ' {
			t.Error("zero-height bar should draw nothing")
		}
	}
}

func TestCellSurface_FillBarNearFullRoundsUp(t *testing.T) {
	s := NewCellSurface(1, 4)
	s.FillBar(0, 1, 3, 2.99, lipgloss.NewStyle())
	if s.RuneAt(0, 1) != '█' {
		t.Errorf("2.99 rows should round to 3 full cells, top = %q", s.RuneAt(0, 1))
	}
}

func TestCellSurface_HLineAndText(t *testing.T) {
	s := NewCellSurface(8, 2)
	s.HLine(1, 0, 5, lipgloss.NewStyle())
	if s.RuneAt(1, 0) != '─' || s.RuneAt(5, 0) != '─' {
		t.Error("HLine cells missing")
	}
	if s.RuneAt(6, 0) != ' ' {
		t.Error("HLine overran its width")
	}

	s.Text(2, 1, "abcdefghij", lipgloss.NewStyle())
	if s.RuneAt(2, 1) != 'a' || s.RuneAt(7, 1) != 'f' {
		t.Error("Text cells wrong")
	}
}

func TestCellSurface_Render(t *testing.T) {
	s := NewCellSurface(3, 2)
	s.Text(0, 0, "ab", lipgloss.NewStyle())
	s.Text(0, 1, "c", lipgloss.NewStyle())

	out := s.Render()
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "ab " {
		t.Errorf("line 0 = %q, want %q", lines[0], "ab ")
	}
	if lines[1] != "c  " {
		t.Errorf("line 1 = %q, want %q", lines[1], "c  ")
	}
}
