package field

import (
	"testing"
	"time"
)

func TestInputTracker_Record(t *testing.T) {
	start := time.Unix(1000, 0)
	tr := NewInputTracker(16*time.Millisecond, 1200*time.Millisecond)

	if !tr.Record(PointerEvent{X: 10, Y: 20, Kind: PointerMove, At: start}) {
		t.Fatal("first move must be recorded")
	}
	if s := tr.State(); !s.Active || s.Pos.X != 10 || s.Pos.Y != 20 {
		t.Errorf("State() = %+v; want active at (10,20)", s)
	}

	if tr.Record(PointerEvent{X: 11, Y: 21, Kind: PointerMove, At: start.Add(8 * time.Millisecond)}) {
		t.Error("move inside the throttle window must be dropped")
	}
	if s := tr.State(); s.Pos.X != 10 {
		t.Errorf("throttled move updated the position to %v", s.Pos)
	}

	if !tr.Record(PointerEvent{X: 12, Y: 22, Kind: PointerDown, At: start.Add(20 * time.Millisecond)}) {
		t.Error("down after the throttle window must be recorded")
	}

	if !tr.Record(PointerEvent{Kind: PointerLeave, At: start.Add(21 * time.Millisecond)}) {
		t.Error("leave must deactivate an active pointer even inside the throttle window")
	}
	if tr.State().Active {
		t.Error("pointer still active after leave")
	}
	if tr.Record(PointerEvent{Kind: PointerLeave, At: start.Add(30 * time.Millisecond)}) {
		t.Error("second leave must report no change")
	}
}

func TestInputTracker_Expire(t *testing.T) {
	start := time.Unix(1000, 0)
	tr := NewInputTracker(16*time.Millisecond, 1200*time.Millisecond)
	tr.Record(PointerEvent{X: 1, Y: 1, Kind: PointerMove, At: start})

	tests := []struct {
		name       string
		at         time.Duration
		wantExpire bool
		wantActive bool
	}{
		{"Just after the event", 100 * time.Millisecond, false, true},
		{"One millisecond short", 1199 * time.Millisecond, false, true},
		{"At the idle bound", 1200 * time.Millisecond, true, false},
		{"Already inactive", 5 * time.Second, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Expire(start.Add(tt.at)); got != tt.wantExpire {
				t.Errorf("Expire(+%v) = %v; want %v", tt.at, got, tt.wantExpire)
			}
			if got := tr.State().Active; got != tt.wantActive {
				t.Errorf("Active = %v; want %v", got, tt.wantActive)
			}
		})
	}
}

func TestPointerKind_String(t *testing.T) {
	tests := []struct {
		kind PointerKind
		want string
	}{
		{PointerMove, "move"},
		{PointerDown, "down"},
		{PointerLeave, "leave"},
		{PointerKind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("PointerKind(%d).String() = %q; want %q", tt.kind, got, tt.want)
		}
	}
}
