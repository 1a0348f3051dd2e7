package timeline

// FindAvailableTrack returns the lowest track index on which the
// candidate range [start, end) overlaps no existing item. Greedy
// first-fit: tracks are cheap and unbounded, so no attempt is made at
// optimal packing. Terminates at one past the highest occupied track.
func FindAvailableTrack(start, end float64, items []*Item) int {
	candidate := TimeRange{Start: start, End: end}

	track := 0
	for {
		clear := true
		for _, item := range items {
			if item.Track != track {
				continue
			}
			if item.Range.Overlaps(candidate) {
				clear = false
				break
			}
		}
		if clear {
			return track
		}
		track++
	}
}
