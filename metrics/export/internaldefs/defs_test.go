package internaldefs

import "testing"

func TestCounterDefsNamesUnique(t *testing.T) {
	seen := make(map[string]bool, len(CounterDefs))
	for _, def := range CounterDefs {
		if def.Name == "" || def.Help == "" {
			t.Fatalf("counter def %d missing name or help", def.ID)
		}
		if seen[def.Name] {
			t.Fatalf("duplicate counter name %q", def.Name)
		}
		seen[def.Name] = true
	}
}

func TestNormalizeBuckets(t *testing.T) {
	out := NormalizeBuckets([]uint64{1, 2, 3})
	if out[0] != 1 || out[1] != 2 || out[2] != 3 || out[7] != 0 {
		t.Fatalf("unexpected normalization: %v", out)
	}

	long := NormalizeBuckets([]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if long[7] != 8 {
		t.Fatalf("expected truncation at 8 buckets, got %v", long)
	}
}

func TestCumulativeBuckets(t *testing.T) {
	out := CumulativeBuckets([8]uint64{1, 1, 0, 2, 0, 0, 0, 1})
	want := [8]uint64{1, 2, 2, 4, 4, 4, 4, 5}
	if out != want {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestHistogramBoundsAligned(t *testing.T) {
	if len(HistogramBounds) != 8 || len(HistogramBoundSuffix) != 8 {
		t.Fatalf("expected 8 bounds, got %d and %d", len(HistogramBounds), len(HistogramBoundSuffix))
	}
}
