package ring

import (
	"context"
	"sync"

	"github.com/ringoverlay/ringchat/internal/types"
)

// fakeTransport records every outbound call a Node makes so tests can
// assert on hop-by-hop behavior without a real network.
type fakeTransport struct {
	mu sync.Mutex

	joinResp types.JoinResponse
	joinErr  error

	serializeResp types.SerializeResponse
	serializeErr  error

	quitErr     error
	electionErr error
	electedErr  error
	postErr     error
	putErr      error
	heartbeatErr error
	panicErr    error

	quitCalls     []quitCall
	electionCalls []tokenCall
	electedCalls  []tokenCall
	postCalls     []messageCall
	putCalls      []messageCall
	heartbeatCalls []types.Identity
	panicCalls    []panicCall
}

type quitCall struct {
	target, departing, departingNext types.Identity
}

type tokenCall struct {
	target types.Identity
	id     uint64
}

type messageCall struct {
	target types.Identity
	text   string
	sender uint64
}

type panicCall struct {
	target, orphan types.Identity
}

func (f *fakeTransport) Join(_ context.Context, _ types.Identity, _ types.Identity) (types.JoinResponse, error) {
	return f.joinResp, f.joinErr
}

func (f *fakeTransport) Quit(_ context.Context, target, departing, departingNext types.Identity) error {
	f.mu.Lock()
	f.quitCalls = append(f.quitCalls, quitCall{target, departing, departingNext})
	f.mu.Unlock()
	return f.quitErr
}

func (f *fakeTransport) Election(_ context.Context, target types.Identity, tokenID uint64) error {
	f.mu.Lock()
	f.electionCalls = append(f.electionCalls, tokenCall{target, tokenID})
	f.mu.Unlock()
	return f.electionErr
}

func (f *fakeTransport) Elected(_ context.Context, target types.Identity, tokenID uint64) error {
	f.mu.Lock()
	f.electedCalls = append(f.electedCalls, tokenCall{target, tokenID})
	f.mu.Unlock()
	return f.electedErr
}

func (f *fakeTransport) MessagePost(_ context.Context, target types.Identity, text string, sender uint64) error {
	f.mu.Lock()
	f.postCalls = append(f.postCalls, messageCall{target, text, sender})
	f.mu.Unlock()
	return f.postErr
}

func (f *fakeTransport) MessagePut(_ context.Context, target types.Identity, text string, sender uint64) error {
	f.mu.Lock()
	f.putCalls = append(f.putCalls, messageCall{target, text, sender})
	f.mu.Unlock()
	return f.putErr
}

func (f *fakeTransport) Heartbeat(_ context.Context, target types.Identity) error {
	f.mu.Lock()
	f.heartbeatCalls = append(f.heartbeatCalls, target)
	f.mu.Unlock()
	return f.heartbeatErr
}

func (f *fakeTransport) Panic(_ context.Context, target, orphan types.Identity) error {
	f.mu.Lock()
	f.panicCalls = append(f.panicCalls, panicCall{target, orphan})
	f.mu.Unlock()
	return f.panicErr
}

func (f *fakeTransport) Serialize(_ context.Context, _ types.Identity) (types.SerializeResponse, error) {
	return f.serializeResp, f.serializeErr
}

// recordingPrinter captures every displayed chat line for assertions.
type recordingPrinter struct {
	mu    sync.Mutex
	lines []string
}

func (p *recordingPrinter) Print(sender, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, sender+": "+text)
}

func (p *recordingPrinter) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}
