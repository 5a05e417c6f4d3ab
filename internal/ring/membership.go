package ring

import (
	"context"

	"github.com/ringoverlay/ringchat/internal/types"
)

// completeJoin finishes the NEW -> READY transition for a join
// initiator once its bootstrap peer has accepted it. Runs on the
// worker so it honors the single-writer invariant on next/status.
func (n *Node) completeJoin(newNext types.Identity) {
	n.mu.Lock()
	n.next = newNext
	n.status = types.StatusReady
	n.mu.Unlock()

	n.log.Infof("joined ring, successor now %s", newNext)
	n.scheduleElection()
}

// acceptJoin is the join acceptor side: capture the current
// successor, point next at the joiner, and hand the old successor back
// through reply so the blocked HTTP handler can respond. The spoof
// guard (source address must equal the advertised ip) is enforced by
// the caller before this is ever enqueued, since it requires the raw
// connection's remote address which only the HTTP handler has.
func (n *Node) acceptJoin(joiner types.Identity, reply chan<- types.JoinResult) {
	n.mu.Lock()
	old := n.next
	n.next = joiner
	n.mu.Unlock()

	select {
	case reply <- types.JoinResult{OldNext: old}:
	default:
		// The handler gave up waiting; the pointer swap already
		// happened and must not be undone — the joiner simply won't
		// get its response and will remain NEW, retrying is up to it.
	}
}

// handleQuit propagates or applies a QUIT announcement. The walk
// terminates at the unique predecessor of target: the node whose next
// equals target.
func (n *Node) handleQuit(target, targetNext types.Identity) {
	n.mu.Lock()
	isPredecessor := n.next == target
	if isPredecessor {
		n.next = targetNext
	}
	n.mu.Unlock()

	if isPredecessor {
		n.log.Infof("absorbed departure of %s, successor now %s", target, targetNext)
		n.scheduleElection()
		return
	}

	ctx, cancel := n.requestContext()
	defer cancel()
	n.mu.RLock()
	next := n.next
	n.mu.RUnlock()
	if err := n.transport.Quit(ctx, next, target, targetNext); err != nil {
		n.log.Errorf("failed forwarding quit for %s to %s: %v", target, next, err)
	}
}

// changeNextPointer applies a successor repair and reschedules
// election.
func (n *Node) changeNextPointer(newNext types.Identity) {
	n.mu.Lock()
	n.next = newNext
	n.mu.Unlock()

	n.log.Warnf("successor repaired, next now %s", newNext)
	n.scheduleElection()
}

// QuitRing is called once, on shutdown, by the process orchestrating
// the node (cmd/ringnode). A singleton ring (next == self) has nobody
// to announce to.
func (n *Node) QuitRing(ctx context.Context) {
	n.mu.RLock()
	self := n.self
	next := n.next
	n.mu.RUnlock()

	if next == self {
		return
	}

	if err := n.transport.Quit(ctx, next, self, next); err != nil {
		n.log.Warnf("quit announcement to %s failed: %v", next, err)
	}
}
