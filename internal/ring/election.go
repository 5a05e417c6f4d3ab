package ring

import (
	"time"

	"github.com/ringoverlay/ringchat/internal/types"
)

// initLeaderElection is Chang-Roberts round initiation: settle for a
// fixed delay, then inject an ELECTION token carrying id 0 as if it
// had arrived from the outside. Runs on the worker, so the sleep
// really does suspend task processing for the duration — that is a
// deliberate design choice, not an incidental delay.
func (n *Node) initLeaderElection() {
	select {
	case <-n.ctx.Done():
		return
	case <-time.After(n.configuration.ElectionSettleDelay):
	}
	n.changRoberts(types.TokenElection, 0)
}

// changRoberts is the single state transition function for both token
// types.
func (n *Node) changRoberts(token types.TokenType, tokenID uint64) {
	me := n.self.ID()

	switch token {
	case types.TokenElection:
		n.mu.Lock()
		switch {
		case tokenID > me:
			n.participant = true
			n.mu.Unlock()
			n.forwardToken(types.TokenElection, tokenID)
		case tokenID < me && !n.participant:
			n.participant = true
			n.mu.Unlock()
			n.forwardToken(types.TokenElection, me)
		case tokenID < me && n.participant:
			// Swallow: a higher id's token already passed through here.
			n.mu.Unlock()
		case tokenID == me:
			n.participant = false
			n.leaderID = me
			n.hasLeader = true
			n.mu.Unlock()
			n.log.Infof("elected self (%d) as leader", me)
			n.forwardToken(types.TokenElected, me)
		default:
			n.mu.Unlock()
		}

	case types.TokenElected:
		if tokenID == me {
			// The ELECTED token completed its lap back to the leader.
			return
		}
		n.mu.Lock()
		n.participant = false
		n.leaderID = tokenID
		n.hasLeader = true
		n.mu.Unlock()
		n.forwardToken(types.TokenElected, tokenID)
	}
}

// forwardToken sends a Chang-Roberts token one hop to the current
// successor: tokens circulate one hop at a time.
func (n *Node) forwardToken(token types.TokenType, id uint64) {
	n.mu.RLock()
	next := n.next
	n.mu.RUnlock()

	ctx, cancel := n.requestContext()
	defer cancel()

	var err error
	if token == types.TokenElection {
		err = n.transport.Election(ctx, next, id)
	} else {
		err = n.transport.Elected(ctx, next, id)
	}
	if err != nil {
		n.log.Errorf("failed forwarding %v token to %s: %v", token, next, err)
	}
}
