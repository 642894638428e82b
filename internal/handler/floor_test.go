package handler

import (
	"testing"
)

func TestLockOrder(t *testing.T) {
	cases := []struct {
		name string
		a, b uint64
		want []uint64
	}{
		{"already ascending", 3, 9, []uint64{3, 9}},
		{"descending is flipped", 9, 3, []uint64{3, 9}},
		{"same id collapses to one lock", 5, 5, []uint64{5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := lockOrder(tc.a, tc.b)
			if len(got) != len(tc.want) {
				t.Fatalf("lockOrder(%d, %d) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("lockOrder(%d, %d) = %v, want %v", tc.a, tc.b, got, tc.want)
				}
			}
		})
	}

	t.Run("both argument orders lock identically", func(t *testing.T) {
		ab := lockOrder(12, 40)
		ba := lockOrder(40, 12)
		if len(ab) != len(ba) || ab[0] != ba[0] || ab[1] != ba[1] {
			t.Fatalf("lock order depends on argument order: %v vs %v", ab, ba)
		}
	})
}
