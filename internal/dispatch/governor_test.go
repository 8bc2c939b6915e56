package dispatch

import "testing"

func TestGovernorAdmit(t *testing.T) {
	tests := []struct {
		name     string
		bound    int
		eager    bool
		observed []string
		chainLen int
		key      string
		want     Decision
	}{
		{"first entry with zero bound", 0, false, nil, 0, "A", Grow},
		{"within bound", 3, false, []string{"A"}, 1, "B", Grow},
		{"at bound", 2, false, []string{"A", "B"}, 2, "C", Collapse},
		{"eager before saturation", 5, true, nil, 0, "A", Grow},
		{"eager one shape short", 5, true, []string{"A"}, 1, "B", Grow},
		{"eager completes prediction", 5, true, []string{"A", "B"}, 0, "C", Collapse},
		{"lazy completes prediction", 5, false, []string{"A", "B"}, 2, "C", Grow},
		{"eager with known shape", 5, true, []string{"A", "B"}, 1, "A", Grow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGovernor(tt.bound, 3, tt.eager)
			for _, k := range tt.observed {
				g.Observe(k)
			}
			if got := g.Admit(tt.chainLen, tt.key); got != tt.want {
				t.Errorf("Admit(%d, %q) = %v, want %v", tt.chainLen, tt.key, got, tt.want)
			}
		})
	}
}

func TestEagerGovernorNeverSaturates(t *testing.T) {
	g := NewGovernor(5, 3, true)
	for _, k := range []string{"A", "B", "C"} {
		if g.Admit(g.Observed(), k) == Collapse {
			break
		}
		g.Observe(k)
	}
	if g.Saturated() {
		t.Errorf("eager governor observed %d of 3 shapes, want the last one collapsed", g.Observed())
	}
	if g.Observed() != 2 {
		t.Errorf("Observed() = %d, want 2", g.Observed())
	}
}
