package effects

import (
	"time"

	"go.uber.org/zap"

	"github.com/vburojevic/bmxt/internal/domain"
)

// AudioAlert plays a tone. Fire-and-forget.
type AudioAlert interface {
	Play(frequencyHz float64, duration time.Duration)
}

// NotificationBridge reaches haptic and system notification channels.
// All calls are best-effort.
type NotificationBridge interface {
	Vibrate(pattern []time.Duration)
	PermissionGranted() bool
	IsBackgrounded() bool
	Notify(title, body string)
}

// Preparer is implemented by capabilities that need to be acquired when a
// session starts or resumes.
type Preparer interface {
	Prepare() error
}

// Tone parameters
const (
	TransitionToneHz = 880
	TransitionTone   = 600 * time.Millisecond
	WarningToneHz    = 440
	WarningTone      = 100 * time.Millisecond
)

// VibrationPattern is the buzz-pause-buzz pattern sent on every transition
var VibrationPattern = []time.Duration{200 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

// Dispatcher turns transition events into alert calls
type Dispatcher struct {
	audio  AudioAlert
	bridge NotificationBridge
	log    *zap.SugaredLogger
}

// NewDispatcher creates a Dispatcher. Either capability may be nil.
func NewDispatcher(audio AudioAlert, bridge NotificationBridge, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{audio: audio, bridge: bridge, log: log}
}

// Prepare acquires capabilities that need it. Failures are logged, never returned.
func (d *Dispatcher) Prepare() {
	for _, c := range []interface{}{d.audio, d.bridge} {
		p, ok := c.(Preparer)
		if !ok {
			continue
		}
		if err := p.Prepare(); err != nil {
			d.log.Debugw("capability unavailable", "error", err)
		}
	}
}

// Dispatch fires the effects for one event
func (d *Dispatcher) Dispatch(e domain.Event) {
	if !e.IsTransition() {
		d.play(WarningToneHz, WarningTone)
		return
	}

	d.play(TransitionToneHz, TransitionTone)

	if d.bridge == nil {
		return
	}
	d.bridge.Vibrate(VibrationPattern)

	// The visible UI already shows the change while in the foreground.
	if !d.bridge.PermissionGranted() || !d.bridge.IsBackgrounded() {
		return
	}
	title, body, _ := e.Message()
	d.log.Debugw("notify", "event", e.String(), "title", title)
	d.bridge.Notify(title, body)
}

func (d *Dispatcher) play(hz float64, duration time.Duration) {
	if d.audio == nil {
		return
	}
	d.audio.Play(hz, duration)
}
