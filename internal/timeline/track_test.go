package timeline

import "testing"

func item(track int, start, end float64) *Item {
	return &Item{ID: NewID(), Kind: KindVideo, Range: TimeRange{Start: start, End: end}, Track: track}
}

func TestFindAvailableTrack(t *testing.T) {
	tests := []struct {
		name  string
		items []*Item
		start float64
		end   float64
		want  int
	}{
		{"empty composition", nil, 0, 30, 0},
		{"no overlap on track zero", []*Item{item(0, 40, 50)}, 0, 30, 0},
		{"overlap pushes to next track", []*Item{item(0, 0, 30)}, 10, 20, 1},
		{"touching ranges do not overlap", []*Item{item(0, 0, 30)}, 30, 60, 0},
		{
			"skips to first free gap",
			[]*Item{item(0, 0, 30), item(1, 5, 25), item(2, 0, 10)},
			12, 18, 2,
		},
		{
			"all tracks occupied",
			[]*Item{item(0, 0, 30), item(1, 0, 30), item(2, 0, 30)},
			0, 30, 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindAvailableTrack(tt.start, tt.end, tt.items); got != tt.want {
				t.Errorf("FindAvailableTrack(%v, %v) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestTimeRange_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{"disjoint", TimeRange{0, 10}, TimeRange{20, 30}, false},
		{"contained", TimeRange{0, 30}, TimeRange{10, 20}, true},
		{"partial", TimeRange{0, 15}, TimeRange{10, 20}, true},
		{"touching endpoints", TimeRange{0, 10}, TimeRange{10, 20}, false},
		{"identical", TimeRange{5, 10}, TimeRange{5, 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("overlap test not symmetric for %v, %v", tt.a, tt.b)
			}
		})
	}
}

func TestFindAvailableTrack_InvariantAfterAdds(t *testing.T) {
	comp := NewComposition()

	ranges := []TimeRange{
		{0, 30}, {10, 20}, {5, 35}, {30, 60}, {0, 5}, {25, 45},
	}
	for _, r := range ranges {
		if _, err := comp.AddItem(ItemSpec{Kind: KindVideo, Range: r, Track: -1}); err != nil {
			t.Fatalf("AddItem(%v) error = %v", r, err)
		}
	}

	items := comp.Items()
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			if a.Track == b.Track && a.Range.Overlaps(b.Range) {
				t.Errorf("items %v and %v overlap on track %d", a.Range, b.Range, a.Track)
			}
		}
	}
}
