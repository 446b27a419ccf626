package events

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/autofx/autofx/internal/logging"
	"github.com/autofx/autofx/internal/metrics"
)

// Greeting is the Info message every session receives first.
const Greeting = "Connected to backend terminal"

// DefaultSessionBuffer is the per-session queue length used when none is configured.
const DefaultSessionBuffer = 256

// HubOptions configures a Hub.
type HubOptions struct {
	// SessionBuffer is the per-session queue length. Messages beyond it are dropped.
	SessionBuffer int
	// ReplaySize is the number of recent messages kept per active process and
	// replayed to new sessions. Zero disables replay.
	ReplaySize int
	Logger     *slog.Logger
}

// Hub relays viewer messages from the supervisor to every connected session.
type Hub struct {
	bus           *Bus
	logger        *slog.Logger
	sessionBuffer int
	replaySize    int

	mu          sync.Mutex
	sessions    map[uint64]*Session
	nextID      uint64
	replay      map[string]*logging.RingBuffer[Message]
	replayOrder []string
}

// NewHub creates a Hub on top of bus.
func NewHub(bus *Bus, opts HubOptions) *Hub {
	if opts.SessionBuffer < 1 {
		opts.SessionBuffer = DefaultSessionBuffer
	}
	if opts.ReplaySize < 0 {
		opts.ReplaySize = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("events")
	}
	return &Hub{
		bus:           bus,
		logger:        logger,
		sessionBuffer: opts.SessionBuffer,
		replaySize:    opts.ReplaySize,
		sessions:      make(map[uint64]*Session),
		replay:        make(map[string]*logging.RingBuffer[Message]),
	}
}

// Broadcast delivers msg to every connected session. Sessions receive messages
// in Broadcast order; a full or closed session loses the message without
// affecting the others.
func (h *Hub) Broadcast(msg Message) {
	if msg == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.recordLocked(msg)
	h.bus.Publish(Broadcast{Msg: msg})
	metrics.MessageBroadcast(msg.Kind())
}

func (h *Hub) recordLocked(msg Message) {
	if h.replaySize == 0 {
		return
	}
	id := msg.Process()
	if id == "" {
		return
	}
	if msg.Kind() == KindClose {
		if _, ok := h.replay[id]; ok {
			delete(h.replay, id)
			h.replayOrder = slices.DeleteFunc(h.replayOrder, func(s string) bool { return s == id })
		}
		return
	}
	buf, ok := h.replay[id]
	if !ok {
		buf = logging.NewRingBuffer[Message](h.replaySize)
		h.replay[id] = buf
		h.replayOrder = append(h.replayOrder, id)
	}
	buf.Write(msg)
}

// Connect registers a new session. The session's first message is the greeting,
// followed by any replay history, followed by live messages.
func (h *Hub) Connect() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Session{
		id:   h.nextID,
		ch:   make(chan Message, h.sessionBuffer),
		done: make(chan struct{}),
	}

	s.offer(Info("", Greeting))
	for _, id := range h.replayOrder {
		for _, msg := range h.replay[id].ReadAll() {
			s.offer(msg)
		}
	}

	// Subscribing under mu means every later Broadcast reaches this session
	// and no earlier one is delivered twice.
	s.unsub = h.bus.Subscribe(func(b Broadcast) {
		s.offer(b.Msg)
	})

	h.sessions[s.id] = s
	metrics.SetViewers(len(h.sessions))
	h.logger.Debug("Viewer connected", "session", s.id, "viewers", len(h.sessions))
	return s
}

// Disconnect removes a session. It is safe to call more than once.
func (h *Hub) Disconnect(s *Session) {
	if s == nil {
		return
	}
	s.once.Do(func() {
		close(s.done)
		if s.unsub != nil {
			s.unsub()
		}

		h.mu.Lock()
		delete(h.sessions, s.id)
		n := len(h.sessions)
		h.mu.Unlock()

		metrics.SetViewers(n)
		h.logger.Debug("Viewer disconnected", "session", s.id, "viewers", n, "dropped", s.Dropped())
	})
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// CloseAll disconnects every session.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		h.Disconnect(s)
	}
}

// Session is one connected viewer.
type Session struct {
	id      uint64
	ch      chan Message
	done    chan struct{}
	once    sync.Once
	unsub   func()
	dropped atomic.Uint64
}

// ID returns the session identifier.
func (s *Session) ID() uint64 { return s.id }

// Messages returns the session's ordered message queue. It is never closed;
// select on Done to detect disconnection.
func (s *Session) Messages() <-chan Message { return s.ch }

// Done is closed when the session is disconnected.
func (s *Session) Done() <-chan struct{} { return s.done }

// Dropped returns how many messages this session lost because its queue was full.
func (s *Session) Dropped() uint64 { return s.dropped.Load() }

func (s *Session) offer(msg Message) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.ch <- msg:
	default:
		s.dropped.Add(1)
		metrics.MessageDropped()
	}
}
