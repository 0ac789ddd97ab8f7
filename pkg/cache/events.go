package cache

// Op is a cache operation reported to the observability hook.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpFlush  Op = "flush"
	OpSweep  Op = "sweep"
)

// Outcome classifies how an operation ended.
type Outcome string

const (
	OutcomeHit   Outcome = "hit"
	OutcomeMiss  Outcome = "miss"
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Event describes one cache operation. KeyHash is the parameter hash
// portion of the key, never the raw parameters.
type Event struct {
	Op      Op
	Kind    Kind
	KeyHash string
	Outcome Outcome
}

// Notifier receives cache operation events. The cache layer itself
// does not log; it notifies, and the host decides what to record.
type Notifier interface {
	Notify(Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }
