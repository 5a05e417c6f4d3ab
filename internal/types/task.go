package types

// Kind is the finite set of internal transitions the worker dispatches
// on. The original source queues records by bare method name looked up
// at runtime ("method_name", args); this is that dispatch made into a
// tagged variant, per the design notes' guidance for a systems
// language — the worker below is a single switch over this set.
type Kind int

const (
	KindInitLeaderElection Kind = iota
	KindChangRoberts
	KindPanic
	KindInitMessage
	KindPropagateMessage
	KindPersistMessage
	KindQuitPropagate
	KindChangeNextPointer
	KindJoinAccept
	KindCompleteJoin
)

func (k Kind) String() string {
	switch k {
	case KindInitLeaderElection:
		return "init_leader_election"
	case KindChangRoberts:
		return "chang_roberts"
	case KindPanic:
		return "panic"
	case KindInitMessage:
		return "init_message"
	case KindPropagateMessage:
		return "propagate_message"
	case KindPersistMessage:
		return "persist_message"
	case KindQuitPropagate:
		return "quit_propagate"
	case KindChangeNextPointer:
		return "change_next_ptr"
	case KindJoinAccept:
		return "join_accept"
	case KindCompleteJoin:
		return "complete_join"
	default:
		return "unknown"
	}
}

// TokenType distinguishes the two Chang-Roberts token kinds.
type TokenType int

const (
	TokenElection TokenType = iota
	TokenElected
)

// ChangRobertsArgs carries an election/elected token hop.
type ChangRobertsArgs struct {
	Token TokenType
	ID    uint64
}

// PanicArgs carries the orphan announcement: "my predecessor has not
// contacted me".
type PanicArgs struct {
	Orphan Identity
}

// InitMessageArgs is produced by the local input source for a freshly
// typed line of chat.
type InitMessageArgs struct {
	Text string
}

// PropagateArgs is phase 1 (uplink) of message propagation.
type PropagateArgs struct {
	Text   string
	Sender uint64
}

// PersistArgs is phase 2 (broadcast) of message propagation.
type PersistArgs struct {
	Text    string
	Sender  uint64
	Initial bool
}

// QuitArgs carries a departing node's identity and its successor, so
// the walk can find the departing node's predecessor.
type QuitArgs struct {
	Target     Identity
	TargetNext Identity
}

// ChangeNextArgs carries a new successor pointer, both for
// KindChangeNextPointer (successor repair) and for KindCompleteJoin
// (the join initiator's NEW -> READY step).
type ChangeNextArgs struct {
	NewNext Identity
}

// JoinAcceptArgs is a join request needing a synchronous reply: the
// HTTP handler blocks on Reply for the worker to swap the pointer and
// hand back the old one, the same request/reply-channel shape used
// whenever an HTTP-facing call needs a value only the worker can
// produce.
type JoinAcceptArgs struct {
	Joiner Identity
	Reply  chan<- JoinResult
}

// JoinResult is what the worker hands back to a blocked join handler.
type JoinResult struct {
	OldNext Identity
}

// Task is a single queued unit of work: a tagged variant over the
// transitions above, dispatched by the worker strictly in arrival
// order. Unrecognized values of Args for a given Kind are a
// programmer error, not a runtime condition — every producer in this
// module constructs Task values through the NewXxxTask constructors.
type Task struct {
	Kind Kind
	Args interface{}
}

func NewInitLeaderElectionTask() Task {
	return Task{Kind: KindInitLeaderElection}
}

func NewChangRobertsTask(token TokenType, id uint64) Task {
	return Task{Kind: KindChangRoberts, Args: ChangRobertsArgs{Token: token, ID: id}}
}

func NewPanicTask(orphan Identity) Task {
	return Task{Kind: KindPanic, Args: PanicArgs{Orphan: orphan}}
}

func NewInitMessageTask(text string) Task {
	return Task{Kind: KindInitMessage, Args: InitMessageArgs{Text: text}}
}

func NewPropagateTask(text string, sender uint64) Task {
	return Task{Kind: KindPropagateMessage, Args: PropagateArgs{Text: text, Sender: sender}}
}

func NewPersistTask(text string, sender uint64, initial bool) Task {
	return Task{Kind: KindPersistMessage, Args: PersistArgs{Text: text, Sender: sender, Initial: initial}}
}

func NewQuitPropagateTask(target, targetNext Identity) Task {
	return Task{Kind: KindQuitPropagate, Args: QuitArgs{Target: target, TargetNext: targetNext}}
}

func NewChangeNextTask(newNext Identity) Task {
	return Task{Kind: KindChangeNextPointer, Args: ChangeNextArgs{NewNext: newNext}}
}

func NewJoinAcceptTask(joiner Identity, reply chan<- JoinResult) Task {
	return Task{Kind: KindJoinAccept, Args: JoinAcceptArgs{Joiner: joiner, Reply: reply}}
}

// NewCompleteJoinTask is scheduled by the join initiator once the
// bootstrap peer has accepted it, handing the worker the bootstrap's
// old successor so it can finish the NEW -> READY transition under the
// single-writer discipline.
func NewCompleteJoinTask(newNext Identity) Task {
	return Task{Kind: KindCompleteJoin, Args: ChangeNextArgs{NewNext: newNext}}
}
