package ring

import (
	"sync/atomic"
	"time"

	"github.com/ringoverlay/ringchat/internal/types"
)

// heartbeatLoop is the failure detector: every HeartbeatInterval it
// performs two independent actions, emit and check. It runs outside
// the worker on its own goroutine since neither action requires the
// single-writer discipline — emit only reads next, and check only
// reads the atomically-maintained lastHeartbeat scalar.
func (n *Node) heartbeatLoop() {
	ticker := time.NewTicker(n.configuration.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.emitHeartbeat()
			n.checkHeartbeat()
		}
	}
}

// emitHeartbeat sends a liveness beat to the successor. Connection
// failure is swallowed — repair is driven by the receive side, not
// the send side.
func (n *Node) emitHeartbeat() {
	n.mu.RLock()
	next := n.next
	n.mu.RUnlock()

	ctx, cancel := n.requestContext()
	defer cancel()
	if err := n.transport.Heartbeat(ctx, next); err != nil {
		n.log.Debugf("heartbeat to %s failed: %v", next, err)
	}
}

// checkHeartbeat detects a silent predecessor: if this node hasn't
// received an inbound heartbeat in over HeartbeatTimeout, it raises
// the orphan announcement.
func (n *Node) checkHeartbeat() {
	last := atomic.LoadInt64(&n.lastHeartbeat)
	if time.Now().Unix()-last > int64(n.configuration.HeartbeatTimeout.Seconds()) {
		n.initPanic()
	}
}

// initPanic raises the orphan announcement: "my predecessor has not
// contacted me, look for a ring node that can reach me". It enqueues
// onto the worker because forwarding the panic token and the
// possible repair it triggers must honor the single-writer invariant
// on next.
func (n *Node) initPanic() {
	n.Enqueue(types.NewPanicTask(n.self))
}

// handlePanic forwards the orphan token one hop. If that forward fails
// with a connection error, this node's own successor is the dead node:
// replace it with the orphan's identity, closing the gap, and
// reschedule an election.
func (n *Node) handlePanic(orphan types.Identity) {
	n.mu.RLock()
	next := n.next
	n.mu.RUnlock()

	ctx, cancel := n.requestContext()
	defer cancel()
	if err := n.transport.Panic(ctx, next, orphan); err != nil {
		n.log.Warnf("successor %s unreachable, repairing with orphan %s", next, orphan)
		n.changeNextPointer(orphan)
		return
	}
}
