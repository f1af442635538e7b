package ebitenview

import (
	"testing"
	"time"

	"github.com/lao-tseu-is-alive/go-node-field/pkg/field"
)

func window(x, y float64) Sample {
	return Sample{Width: 800, Height: 600, DPR: 1, Visible: true, CursorX: x, CursorY: y}
}

func TestSignals_FirstSampleAnnouncesEverything(t *testing.T) {
	s := NewSignals()
	sig := s.Sample(time.Unix(0, 0), window(10, 10))
	if !sig.Resize || sig.Width != 800 || sig.Height != 600 {
		t.Errorf("first sample resize = %+v", sig)
	}
	if !sig.Visibility || !sig.Visible {
		t.Errorf("first sample visibility = %v/%v", sig.Visibility, sig.Visible)
	}
	if sig.Pointer == nil || sig.Pointer.Kind != field.PointerMove {
		t.Errorf("first sample pointer = %+v", sig.Pointer)
	}
}

func TestSignals_ResizeIsThrottledOnTrailingEdge(t *testing.T) {
	s := NewSignals()
	start := time.Unix(0, 0)
	s.Sample(start, window(-1, -1))

	resizes := 0
	var last Signal
	// A drag resize: a new size every 16ms for 400ms.
	for i := 1; i <= 25; i++ {
		in := window(-1, -1)
		in.Width = 800 + float64(i)*10
		sig := s.Sample(start.Add(time.Duration(i)*16*time.Millisecond), in)
		if sig.Resize {
			resizes++
			last = sig
		}
	}
	if resizes == 0 || resizes > 4 {
		t.Fatalf("resizes during drag = %d; want a throttled handful", resizes)
	}

	// Size settles; the final size still gets through once the interval elapsed.
	in := window(-1, -1)
	in.Width = 800 + 25*10
	for i := 26; i < 60; i++ {
		if sig := s.Sample(start.Add(time.Duration(i)*16*time.Millisecond), in); sig.Resize {
			last = sig
		}
	}
	if last.Width != 1050 {
		t.Errorf("last resize width = %v; want the settled 1050", last.Width)
	}
}

func TestSignals_Visibility(t *testing.T) {
	s := NewSignals()
	now := time.Unix(0, 0)
	s.Sample(now, window(-1, -1))

	hidden := window(-1, -1)
	hidden.Visible = false
	if sig := s.Sample(now, hidden); !sig.Visibility || sig.Visible {
		t.Errorf("minimise not reported: %+v", sig)
	}
	if sig := s.Sample(now, hidden); sig.Visibility {
		t.Error("unchanged visibility reported again")
	}
	if sig := s.Sample(now, window(-1, -1)); !sig.Visibility || !sig.Visible {
		t.Errorf("restore not reported: %+v", sig)
	}
}

func TestSignals_Pointer(t *testing.T) {
	s := NewSignals()
	now := time.Unix(0, 0)

	tests := []struct {
		name string
		in   Sample
		want *field.PointerKind
	}{
		{"Outside", window(-5, 10), nil},
		{"Enters", window(100, 100), kind(field.PointerMove)},
		{"Still", window(100, 100), nil},
		{"Moves", window(101, 100), kind(field.PointerMove)},
		{"Press", func() Sample { in := window(101, 100); in.Pressed = true; return in }(), kind(field.PointerDown)},
		{"Held", func() Sample { in := window(101, 100); in.Pressed = true; return in }(), nil},
		{"Over the panel", func() Sample { in := window(20, 20); in.Captured = true; return in }(), kind(field.PointerLeave)},
		{"Back in", window(300, 300), kind(field.PointerMove)},
		{"Leaves window", window(900, 300), kind(field.PointerLeave)},
	}
	for _, tt := range tests {
		now = now.Add(20 * time.Millisecond)
		sig := s.Sample(now, tt.in)
		switch {
		case tt.want == nil && sig.Pointer != nil:
			t.Errorf("%s: unexpected pointer %+v", tt.name, sig.Pointer)
		case tt.want != nil && sig.Pointer == nil:
			t.Errorf("%s: no pointer event; want %v", tt.name, *tt.want)
		case tt.want != nil && sig.Pointer.Kind != *tt.want:
			t.Errorf("%s: pointer kind %v; want %v", tt.name, sig.Pointer.Kind, *tt.want)
		case tt.want != nil && !sig.Pointer.At.Equal(now):
			t.Errorf("%s: pointer time %v; want %v", tt.name, sig.Pointer.At, now)
		}
	}
}

func kind(k field.PointerKind) *field.PointerKind { return &k }

func TestNodeColor(t *testing.T) {
	c := nodeColor(190, 0.6, 0.5)
	if c.A != 128 {
		t.Errorf("alpha = %d; want 128", c.A)
	}
	if !(c.B > c.R && c.G > c.R) {
		t.Errorf("hue 190 should be cyan-ish, got %+v", c)
	}
	if got := nodeColor(550, 0.6, 2); got.A != 255 || got != nodeColor(190, 0.6, 1) {
		t.Errorf("hue wrap or alpha clamp failed: %+v", got)
	}
}
