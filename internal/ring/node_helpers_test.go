package ring

import (
	"context"
	"testing"
	"time"

	"github.com/ringoverlay/ringchat/internal/logging"
	"github.com/ringoverlay/ringchat/internal/types"
)

// testConfiguration mirrors DefaultConfiguration but with durations
// short enough for a test to wait out directly.
func testConfiguration(self types.Identity) *types.Configuration {
	return &types.Configuration{
		Self:                self,
		QueueSize:           10,
		ElectionSettleDelay: 5 * time.Millisecond,
		HeartbeatInterval:   10 * time.Millisecond,
		HeartbeatTimeout:    30 * time.Millisecond,
		RequestTimeout:      time.Second,
	}
}

// newBareNode builds a Node struct directly rather than through
// NewNode, so unit tests can exercise a single protocol-logic method
// without the worker and heartbeat goroutines racing against
// assertions. Every test in this package that needs the full
// concurrent wiring uses NewNode instead (see ring_e2e_test.go).
func newBareNode(self types.Identity, cfg *types.Configuration, transport Transport) *Node {
	ctx, cancel := context.WithCancel(context.Background())
	return &Node{
		self:          self,
		configuration: cfg,
		transport:     transport,
		queue:         NewTaskQueue(cfg.QueueSize),
		invoker:       NewInvoker(),
		log:           logging.NewStdLogger("[test]"),
		printer:       &recordingPrinter{},
		ctx:           ctx,
		cancel:        cancel,
		next:          self,
		lastHeartbeat: time.Now().Unix(),
	}
}

func idOf(host string, port uint16) types.Identity {
	return types.Identity{Host: host, Port: port}
}

// electionState is a lock-guarded snapshot of the fields election
// convergence tests need to poll, since reading them directly from
// another goroutine while the worker mutates them would race.
type electionState struct {
	next      types.Identity
	status    types.Status
	hasLeader bool
	leaderID  uint64
}

func readElectionState(n *Node) electionState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return electionState{
		next:      n.next,
		status:    n.status,
		hasLeader: n.hasLeader,
		leaderID:  n.leaderID,
	}
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not satisfied within %s", timeout)
}
