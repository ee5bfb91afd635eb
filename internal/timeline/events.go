package timeline

type Event string

const (
	EventStateChange    Event = "stateChange"
	EventClipAdded      Event = "clipAdded"
	EventPlay           Event = "play"
	EventPause          Event = "pause"
	EventSeek           Event = "seek"
	EventVolumeChange   Event = "volumeChange"
	EventMuteChange     Event = "muteChange"
	EventRateChange     Event = "rateChange"
	EventExportStart    Event = "exportStart"
	EventExportComplete Event = "exportComplete"
)

// Events lists every event the engine emits, in declaration order.
var Events = []Event{
	EventStateChange,
	EventClipAdded,
	EventPlay,
	EventPause,
	EventSeek,
	EventVolumeChange,
	EventMuteChange,
	EventRateChange,
	EventExportStart,
	EventExportComplete,
}

// Listener receives the payload of an emitted event. The payload type depends
// on the event: State for stateChange, Clip for clipAdded, float64 for seek,
// volumeChange and rateChange, bool for muteChange, ExportOptions for
// exportStart, ExportResult for exportComplete and nil for play and pause.
type Listener func(data any)

type listeners map[Event][]Listener

func (l listeners) add(event Event, cb Listener) {
	l[event] = append(l[event], cb)
}

// emit calls listeners in registration order. Listeners run synchronously on
// the caller's goroutine and must not mutate the engine from inside the
// callback.
func (l listeners) emit(event Event, data any) {
	for _, cb := range l[event] {
		cb(data)
	}
}
