// Package ring implements a peer's distributed core: membership
// (join/quit/repair), Chang-Roberts leader election, the heartbeat
// failure detector, and leader-mediated message propagation — all
// driven off a single bounded task queue drained by one worker
// goroutine per node.
package ring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ringoverlay/ringchat/internal/display"
	"github.com/ringoverlay/ringchat/internal/logging"
	"github.com/ringoverlay/ringchat/internal/types"
)

// ErrSpoofedJoin describes a join whose advertised address does not
// match the caller's observed network address. The HTTP join handler
// performs that check and answers 403 itself; acceptJoin does not
// return it.
var ErrSpoofedJoin = errors.New("ring: join request address does not match advertised address")

// Node owns the one mutable piece of state a peer has: its identity
// (immutable), its successor pointer, its membership status, the
// believed leader and the Chang-Roberts participant flag. Every one of
// those fields except lastHeartbeat is written exclusively by the
// worker goroutine (poll); everything else only ever reads them under
// mu.
type Node struct {
	// self is immutable after construction.
	self types.Identity

	mu          sync.RWMutex
	next        types.Identity
	status      types.Status
	hasLeader   bool
	leaderID    uint64
	participant bool

	// lastHeartbeat is the one sanctioned concurrent write outside the
	// worker: the HTTP handler for /heartbeat stores into it directly,
	// with plain relaxed ordering.
	lastHeartbeat int64

	configuration *types.Configuration
	transport     Transport
	queue         *TaskQueue
	invoker       Invoker
	log           logging.Logger
	printer       display.Printer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewNode constructs a Node and starts its worker. bootstrap is nil for
// a solitary node (born READY) or the configured bootstrap peer for a
// node born NEW.
func NewNode(configuration *types.Configuration, bootstrap *types.Identity, transport Transport, log logging.Logger, printer display.Printer) *Node {
	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{
		self:          configuration.Self,
		configuration: configuration,
		transport:     transport,
		queue:         NewTaskQueue(configuration.QueueSize),
		invoker:       NewInvoker(),
		log:           log,
		printer:       printer,
		ctx:           ctx,
		cancel:        cancel,
		lastHeartbeat: time.Now().Unix(),
	}

	if bootstrap == nil {
		n.next = n.self
		n.status = types.StatusReady
		n.hasLeader = true
		n.leaderID = n.self.ID()
	} else {
		n.next = *bootstrap
		n.status = types.StatusNew
	}

	n.invoker.Spawn(n.poll)
	n.invoker.Spawn(n.heartbeatLoop)
	return n
}

// Self returns the node's own identity.
func (n *Node) Self() types.Identity {
	return n.self
}

// RequestTimeout exposes the configured bound for a single ring hop, so
// callers outside this package (the HTTP handlers waiting on a
// JoinAccept reply) can size their own waits consistently.
func (n *Node) RequestTimeout() time.Duration {
	return n.configuration.RequestTimeout
}

// Enqueue places a task on the bounded queue, blocking the caller if it
// is full.
func (n *Node) Enqueue(task types.Task) {
	n.queue.Enqueue(task)
}

// Start runs the join sequence for a NEW node. It is a no-op for a node
// that was born READY. On a rejected join (spoof guard tripped on the
// acceptor, or a connection failure) the node stays NEW.
func (n *Node) Start(ctx context.Context) error {
	n.mu.RLock()
	status := n.status
	next := n.next
	n.mu.RUnlock()

	if status != types.StatusNew {
		return nil
	}

	resp, err := n.transport.Join(ctx, next, n.self)
	if err != nil {
		n.log.Warnf("join against %s failed: %v", next, err)
		return err
	}
	if !resp.Success {
		n.log.Warnf("join against %s rejected: %s", next, resp.Message)
		return nil
	}

	n.Enqueue(types.NewCompleteJoinTask(types.Identity{Host: resp.Host, Port: resp.Port}))
	return nil
}

// Snapshot returns the node's current state for GET /serialize.
func (n *Node) Snapshot() types.SerializeResponse {
	n.mu.RLock()
	defer n.mu.RUnlock()

	res := types.SerializeResponse{
		Host:      n.self.Host,
		Port:      n.self.Port,
		NextHost:  n.next.Host,
		NextPort:  n.next.Port,
		Heartbeat: atomic.LoadInt64(&n.lastHeartbeat),
	}
	if n.hasLeader {
		leader := n.leaderID
		res.Leader = &leader
	}
	return res
}

// TouchHeartbeat is the one write permitted outside the worker: the
// HTTP /heartbeat handler calls it directly.
func (n *Node) TouchHeartbeat() {
	atomic.StoreInt64(&n.lastHeartbeat, time.Now().Unix())
}

// Stop cancels the node's background activities and waits for them to
// exit. Safe to call once.
func (n *Node) Stop() {
	n.cancel()
	n.queue.Close()
	n.invoker.Stop()
}

// poll is the worker: it drains the queue one task at a time to
// completion — tasks never preempt, and any outbound request a task
// issues blocks this loop until the transport returns or fails.
func (n *Node) poll() {
	defer n.log.Debugf("worker for %s stopping", n.self)
	for {
		select {
		case <-n.ctx.Done():
			return
		case task, ok := <-n.queue.Tasks():
			if !ok {
				return
			}
			n.dispatch(task)
		}
	}
}

// dispatch is the single switch over the task variant. Unknown kinds
// are dropped after a warning is logged; nothing is sent back.
func (n *Node) dispatch(task types.Task) {
	switch task.Kind {
	case types.KindCompleteJoin:
		args := task.Args.(types.ChangeNextArgs)
		n.completeJoin(args.NewNext)
	case types.KindJoinAccept:
		args := task.Args.(types.JoinAcceptArgs)
		n.acceptJoin(args.Joiner, args.Reply)
	case types.KindQuitPropagate:
		args := task.Args.(types.QuitArgs)
		n.handleQuit(args.Target, args.TargetNext)
	case types.KindChangeNextPointer:
		args := task.Args.(types.ChangeNextArgs)
		n.changeNextPointer(args.NewNext)
	case types.KindInitLeaderElection:
		n.initLeaderElection()
	case types.KindChangRoberts:
		args := task.Args.(types.ChangRobertsArgs)
		n.changRoberts(args.Token, args.ID)
	case types.KindPanic:
		args := task.Args.(types.PanicArgs)
		n.handlePanic(args.Orphan)
	case types.KindInitMessage:
		args := task.Args.(types.InitMessageArgs)
		n.initMessage(args.Text)
	case types.KindPropagateMessage:
		args := task.Args.(types.PropagateArgs)
		n.propagateMessage(args.Text, args.Sender)
	case types.KindPersistMessage:
		args := task.Args.(types.PersistArgs)
		n.persistMessage(args.Text, args.Sender, args.Initial)
	default:
		n.log.Warnf("dropping task of unknown kind %v", task.Kind)
	}
}

// requestContext bounds a single outbound ring hop issued by the
// worker.
func (n *Node) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), n.configuration.RequestTimeout)
}

// scheduleElection re-enters the task queue to kick off a new election
// round (triggered after a join, quit, or successor repair). It is
// spawned through the invoker rather than enqueued inline because the callers
// here all run on the worker goroutine itself (dispatch is mid-task);
// enqueuing inline would deadlock the one consumer against itself if
// the queue were momentarily full.
func (n *Node) scheduleElection() {
	n.invoker.Spawn(func() {
		n.Enqueue(types.NewInitLeaderElectionTask())
	})
}
