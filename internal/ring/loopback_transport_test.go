package ring

import (
	"context"
	"fmt"
	"sync"

	"github.com/ringoverlay/ringchat/internal/types"
)

// loopbackTransport wires a handful of real Nodes together in-process,
// dispatching each Transport call straight onto the addressed Node's
// queue instead of going over a socket, so the full
// election/membership/message wiring can be exercised end to end
// without net/http.
type loopbackTransport struct {
	mu    sync.RWMutex
	nodes map[types.Identity]*Node
}

func newLoopbackTransport() *loopbackTransport {
	return &loopbackTransport{nodes: make(map[types.Identity]*Node)}
}

func (l *loopbackTransport) register(n *Node) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes[n.Self()] = n
}

func (l *loopbackTransport) unregister(id types.Identity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.nodes, id)
}

func (l *loopbackTransport) get(id types.Identity) *Node {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nodes[id]
}

func (l *loopbackTransport) Join(_ context.Context, target, self types.Identity) (types.JoinResponse, error) {
	node := l.get(target)
	if node == nil {
		return types.JoinResponse{}, fmt.Errorf("loopback: %s unreachable", target)
	}
	reply := make(chan types.JoinResult, 1)
	node.Enqueue(types.NewJoinAcceptTask(self, reply))
	result := <-reply
	return types.JoinResponse{Host: result.OldNext.Host, Port: result.OldNext.Port, Success: true}, nil
}

func (l *loopbackTransport) Quit(_ context.Context, target, departing, departingNext types.Identity) error {
	node := l.get(target)
	if node == nil {
		return fmt.Errorf("loopback: %s unreachable", target)
	}
	node.Enqueue(types.NewQuitPropagateTask(departing, departingNext))
	return nil
}

func (l *loopbackTransport) Election(_ context.Context, target types.Identity, tokenID uint64) error {
	node := l.get(target)
	if node == nil {
		return fmt.Errorf("loopback: %s unreachable", target)
	}
	node.Enqueue(types.NewChangRobertsTask(types.TokenElection, tokenID))
	return nil
}

func (l *loopbackTransport) Elected(_ context.Context, target types.Identity, tokenID uint64) error {
	node := l.get(target)
	if node == nil {
		return fmt.Errorf("loopback: %s unreachable", target)
	}
	node.Enqueue(types.NewChangRobertsTask(types.TokenElected, tokenID))
	return nil
}

func (l *loopbackTransport) MessagePost(_ context.Context, target types.Identity, text string, sender uint64) error {
	node := l.get(target)
	if node == nil {
		return fmt.Errorf("loopback: %s unreachable", target)
	}
	node.Enqueue(types.NewPropagateTask(text, sender))
	return nil
}

func (l *loopbackTransport) MessagePut(_ context.Context, target types.Identity, text string, sender uint64) error {
	node := l.get(target)
	if node == nil {
		return fmt.Errorf("loopback: %s unreachable", target)
	}
	node.Enqueue(types.NewPersistTask(text, sender, false))
	return nil
}

func (l *loopbackTransport) Heartbeat(_ context.Context, target types.Identity) error {
	node := l.get(target)
	if node == nil {
		return fmt.Errorf("loopback: %s unreachable", target)
	}
	node.TouchHeartbeat()
	return nil
}

func (l *loopbackTransport) Panic(_ context.Context, target, orphan types.Identity) error {
	node := l.get(target)
	if node == nil {
		return fmt.Errorf("loopback: %s unreachable", target)
	}
	node.Enqueue(types.NewPanicTask(orphan))
	return nil
}

func (l *loopbackTransport) Serialize(_ context.Context, target types.Identity) (types.SerializeResponse, error) {
	node := l.get(target)
	if node == nil {
		return types.SerializeResponse{}, fmt.Errorf("loopback: %s unreachable", target)
	}
	return node.Snapshot(), nil
}
