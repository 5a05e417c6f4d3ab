package ring

import "github.com/ringoverlay/ringchat/internal/types"

// initMessage is produced by the local input source for a freshly
// typed line.
func (n *Node) initMessage(text string) {
	n.propagateMessage(text, n.self.ID())
}

// propagateMessage is phase 1 (uplink): if this node believes itself
// leader, jump straight to phase 2; otherwise forward unchanged to the
// successor. sender is preserved across every hop.
func (n *Node) propagateMessage(text string, sender uint64) {
	n.mu.RLock()
	isLeader := n.hasLeader && n.leaderID == n.self.ID()
	next := n.next
	n.mu.RUnlock()

	if isLeader {
		n.persistMessage(text, sender, true)
		return
	}

	ctx, cancel := n.requestContext()
	defer cancel()
	if err := n.transport.MessagePost(ctx, next, text, sender); err != nil {
		// Best-effort: a broken uplink simply drops this hop's attempt.
		// The next heartbeat cycle will eventually repair a dead
		// successor and a later message will get through.
		n.log.Warnf("failed uplinking message to %s: %v", next, err)
	}
}

// persistMessage is phase 2 (broadcast): the leader forwards first and
// displays second; every later recipient stops the lap once it reaches
// back to the leader rather than relaying or displaying again.
func (n *Node) persistMessage(text string, sender uint64, initial bool) {
	n.mu.RLock()
	isLeader := n.hasLeader && n.leaderID == n.self.ID()
	next := n.next
	n.mu.RUnlock()

	if !initial && isLeader {
		return
	}

	ctx, cancel := n.requestContext()
	defer cancel()
	if err := n.transport.MessagePut(ctx, next, text, sender); err != nil {
		n.log.Warnf("failed broadcasting message to %s: %v", next, err)
	}

	n.printer.Print(types.Decode(sender).String(), text)
}
