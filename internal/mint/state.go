package mint

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nnm-backend/internal/tiers"
	"nnm-backend/internal/utils"
)

// State is the lifecycle state of one mint attempt.
type State string

const (
	StateIdle                   State = "idle"
	StateResolvingAuthorization State = "resolving_authorization"
	StateResolvingPrice         State = "resolving_price"
	StateReady                  State = "ready"
	StateSubmitting             State = "submitting"
	StateConfirmed              State = "confirmed"
	StateRejected               State = "rejected"
)

// terminal reports whether no further transitions can follow.
func (s State) terminal() bool {
	return s == StateConfirmed || s == StateRejected
}

// Attempt is the tracked record of one mint attempt.
type Attempt struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tier      tiers.ID  `json:"tier"`
	Requester string    `json:"requester,omitempty"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	ImageURI  string    `json:"image_uri,omitempty"`
	TokenURI  string    `json:"token_uri,omitempty"`
	TxHash    string    `json:"tx_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateListener observes attempt transitions. Listeners receive a copy
// and are invoked outside the tracker's lock, so they may read tracker
// state; publishing and push delivery hang off this hook.
type StateListener interface {
	AttemptUpdated(attempt Attempt)
}

// Tracker tracks in-flight attempts and enforces one live attempt per
// requester, preventing duplicate transactions and double rendering for
// the same click.
type Tracker struct {
	mu        sync.RWMutex
	attempts  map[string]*Attempt
	active    map[string]string // normalized requester -> attempt ID
	listeners []StateListener
}

// NewTracker creates an empty attempt tracker.
func NewTracker() *Tracker {
	return &Tracker{
		attempts: make(map[string]*Attempt),
		active:   make(map[string]string),
	}
}

// AddListener registers a transition observer.
func (t *Tracker) AddListener(l StateListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Begin registers a new attempt. It fails with ErrAttemptInFlight when
// the requester already has a non-terminal attempt.
func (t *Tracker) Begin(name string, tier tiers.ID, requester string) (Attempt, error) {
	t.mu.Lock()

	key := utils.NormalizeAddress(requester)
	if key != "" {
		if activeID, ok := t.active[key]; ok {
			if existing, ok := t.attempts[activeID]; ok && !existing.State.terminal() {
				t.mu.Unlock()
				return Attempt{}, ErrAttemptInFlight
			}
		}
	}

	now := time.Now().UTC()
	attempt := &Attempt{
		ID:        uuid.New().String(),
		Name:      name,
		Tier:      tier,
		Requester: key,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.attempts[attempt.ID] = attempt
	if key != "" {
		t.active[key] = attempt.ID
	}

	snapshot := *attempt
	listeners := t.listenersLocked()
	t.mu.Unlock()

	notifyAll(listeners, snapshot)
	return snapshot, nil
}

// Get returns a copy of an attempt.
func (t *Tracker) Get(id string) (Attempt, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	attempt, ok := t.attempts[id]
	if !ok {
		return Attempt{}, false
	}
	return *attempt, true
}

// Transition moves an attempt to a new state, applying optional field
// mutations first.
func (t *Tracker) Transition(id string, state State, mutate func(*Attempt)) {
	t.mu.Lock()

	attempt, ok := t.attempts[id]
	if !ok || attempt.State.terminal() {
		t.mu.Unlock()
		return
	}
	if mutate != nil {
		mutate(attempt)
	}
	attempt.State = state
	attempt.UpdatedAt = time.Now().UTC()

	if state.terminal() && attempt.Requester != "" {
		delete(t.active, attempt.Requester)
	}

	snapshot := *attempt
	listeners := t.listenersLocked()
	t.mu.Unlock()

	notifyAll(listeners, snapshot)
}

// Release frees the requester's in-flight slot without ending the
// attempt. Used when submission is handed off to the caller's wallet:
// this service never observes the confirmation, so the attempt must not
// hold the slot forever.
func (t *Tracker) Release(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	attempt, ok := t.attempts[id]
	if !ok || attempt.Requester == "" {
		return
	}
	if t.active[attempt.Requester] == id {
		delete(t.active, attempt.Requester)
	}
}

// Fail marks an attempt rejected with the failure message.
func (t *Tracker) Fail(id string, err error) {
	t.Transition(id, StateRejected, func(a *Attempt) {
		if err != nil {
			a.Error = err.Error()
		}
	})
}

func (t *Tracker) listenersLocked() []StateListener {
	return append([]StateListener(nil), t.listeners...)
}

func notifyAll(listeners []StateListener, snapshot Attempt) {
	for _, l := range listeners {
		l.AttemptUpdated(snapshot)
	}
}
