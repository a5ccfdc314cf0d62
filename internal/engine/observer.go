package engine

import "math"

// Observer receives display notifications when a note-on is accepted. It is
// called synchronously on the goroutine that submitted the note, never on
// the audio goroutine.
type Observer interface {
	VelocityChanged(velocity float32)
	FrequencyChanged(frequency float32)
}

// GateObserver is implemented by observers that also want note-off notices.
type GateObserver interface {
	NoteReleased(channel, note int)
}

// DerivedFrequency is the value reported to FrequencyChanged for a note of
// frequency hz: log2(hz)*hz. It only scales the web UI's frequency meter.
func DerivedFrequency(hz float64) float64 {
	if hz <= 0 {
		return 0
	}
	return math.Log2(hz) * hz
}

// NotificationKind identifies a Notification.
type NotificationKind int

const (
	NotifyVelocity NotificationKind = iota
	NotifyFrequency
	NotifyNoteOff
)

// Notification is a single observer callback delivered over a channel.
type Notification struct {
	Kind    NotificationKind
	Value   float32
	Channel int
	Note    int
}

// ChanObserver forwards notifications to a buffered channel. Sends never
// block; notifications are dropped while the channel is full.
type ChanObserver struct {
	C chan Notification
}

func NewChanObserver(size int) *ChanObserver {
	if size <= 0 {
		size = 16
	}
	return &ChanObserver{C: make(chan Notification, size)}
}

func (o *ChanObserver) send(n Notification) {
	select {
	case o.C <- n:
	default:
	}
}

func (o *ChanObserver) VelocityChanged(velocity float32) {
	o.send(Notification{Kind: NotifyVelocity, Value: velocity})
}

func (o *ChanObserver) FrequencyChanged(frequency float32) {
	o.send(Notification{Kind: NotifyFrequency, Value: frequency})
}

func (o *ChanObserver) NoteReleased(channel, note int) {
	o.send(Notification{Kind: NotifyNoteOff, Channel: channel, Note: note})
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (obs Observers) VelocityChanged(velocity float32) {
	for _, o := range obs {
		o.VelocityChanged(velocity)
	}
}

func (obs Observers) FrequencyChanged(frequency float32) {
	for _, o := range obs {
		o.FrequencyChanged(frequency)
	}
}

func (obs Observers) NoteReleased(channel, note int) {
	for _, o := range obs {
		if g, ok := o.(GateObserver); ok {
			g.NoteReleased(channel, note)
		}
	}
}
