package colorutil

import "testing"

func TestSegmentColorDistinct(t *testing.T) {
	seen := make(map[[3]uint8]int)
	for i := 0; i < 12; i++ {
		c := SegmentColor(i)
		key := [3]uint8{c.R, c.G, c.B}
		if prev, dup := seen[key]; dup {
			t.Errorf("segments %d and %d share color %v", prev, i, c)
		}
		seen[key] = i
		if c.A != 255 {
			t.Errorf("segment %d alpha = %d, want opaque", i, c.A)
		}
	}
}

func TestSegmentColorDeterministic(t *testing.T) {
	if SegmentColor(5) != SegmentColor(5) {
		t.Error("SegmentColor must be deterministic")
	}
}
