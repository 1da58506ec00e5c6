package connection

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const eventBufferSize = 16

// Tracker owns the connection state of the peripheral
type Tracker struct {
	mutex      sync.RWMutex
	state      State
	addr       string
	session    string
	advertiser Advertiser
	events     chan Event
	now        func() time.Time
}

// NewTracker returns a tracker in the Disconnected state
func NewTracker(advertiser Advertiser) *Tracker {
	return &Tracker{
		state:      Disconnected,
		advertiser: advertiser,
		events:     make(chan Event, eventBufferSize),
		now:        time.Now,
	}
}

// SetAdvertiser replaces the advertiser used on disconnect. The transport usually needs the
// tracker before it exists, so it is registered after construction.
func (t *Tracker) SetAdvertiser(advertiser Advertiser) {
	t.mutex.Lock()
	t.advertiser = advertiser
	t.mutex.Unlock()
}

// OnConnect marks the peripheral connected and starts a new session
func (t *Tracker) OnConnect(addr string) {
	t.mutex.Lock()
	t.state = Connected
	t.addr = addr
	t.session = uuid.New().String()
	ev := Event{State: Connected, Addr: addr, Session: t.session, At: t.now()}
	t.mutex.Unlock()

	log.WithFields(log.Fields{"addr": addr, "session": ev.Session}).Info("Central connected")
	t.emit(ev)
}

// OnDisconnect marks the peripheral disconnected and re-arms advertising once
func (t *Tracker) OnDisconnect(addr string) {
	t.mutex.Lock()
	session := t.session
	t.state = Disconnected
	t.addr = ""
	t.session = ""
	advertiser := t.advertiser
	ev := Event{State: Disconnected, Addr: addr, Session: session, At: t.now()}
	t.mutex.Unlock()

	entry := log.WithFields(log.Fields{"addr": addr, "session": session})
	entry.Info("Central disconnected")
	t.emit(ev)
	if advertiser == nil {
		entry.Warn("No advertiser registered, peripheral stays hidden")
		return
	}
	// the result is reported by the stack; nothing is retried here
	if err := advertiser.StartAdvertising(); err != nil {
		entry.WithError(err).Warn("Restart advertising issue")
	}
}

// State returns the current connection state
func (t *Tracker) State() State {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.state
}

// Connected reports whether a central is connected
func (t *Tracker) Connected() bool { return t.State() == Connected }

// Session returns the id of the current connection, empty while disconnected
func (t *Tracker) Session() string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.session
}

// Addr returns the address of the connected central
func (t *Tracker) Addr() string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.addr
}

// Events returns the stream of connection events. Events are dropped when nobody drains it.
func (t *Tracker) Events() <-chan Event { return t.events }

func (t *Tracker) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		log.WithField("state", ev.State).Debug("Connection event dropped, buffer full")
	}
}
