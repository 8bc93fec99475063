// ABOUTME: Capabilities the timeline consumes from its host
// ABOUTME: MediaHandle for playable audio, Notifier for user-facing messages
package timeline

// MediaHandle is a playable audio resource owned by one clip.
//
// Play, Pause and Seek are requests; an implementation may complete them
// asynchronously. Callbacks registered with OnDuration and OnError must not
// be invoked from inside Play, Pause or Seek.
type MediaHandle interface {
	// Play starts (or resumes) playback from the current position
	Play() error
	// Pause stops playback, keeping the current position
	Pause() error
	// Seek sets the clip-local playback position in seconds
	Seek(seconds float64) error
	// Paused reports whether the handle is not producing sound
	Paused() bool
	// OnDuration registers fn to be called once the duration is known.
	// If it is already known fn is called immediately.
	OnDuration(fn func(seconds float64))
	// OnError registers fn to be called on asynchronous playback failures
	OnError(fn func(err error))
	// Close releases the resource
	Close() error
}

// Level is the severity of a notification
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notifier surfaces short messages to the user
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(level Level, message string)

// Notify calls f(level, message)
func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}
