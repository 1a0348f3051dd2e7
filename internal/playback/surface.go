// Package playback keeps one authoritative playback clock consistent
// across the media surfaces that render a composition. A surface is an
// opaque handle to an external media element; the synchronizer issues
// commands to it and consumes its event notifications.
package playback

// Surface is the command side of a media surface. Seek takes a time in
// the surface's own media timebase, in seconds. Implementations must
// tolerate commands arriving before metadata is loaded.
type Surface interface {
	Play() error
	Pause()
	Seek(t float64)
}
