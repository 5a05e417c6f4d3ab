package ring

import (
	"context"

	"github.com/ringoverlay/ringchat/internal/types"
)

// Transport is every outbound ring hop a Node can make: a narrow
// interface the Node depends on so the wire format is swappable, one
// typed method per endpoint, since every ring hop here targets exactly
// one successor.
//
// Every method is synchronous: any outbound request issued by a task
// blocks the worker until the call returns or fails. Connection
// failure is the only feedback channel — no method here returns a
// structured protocol-level error from the remote peer.
type Transport interface {
	// Join asks target to accept self as its new immediate successor,
	// returning target's previous successor pointer.
	Join(ctx context.Context, target, self types.Identity) (types.JoinResponse, error)

	// Quit forwards a departure announcement one hop.
	Quit(ctx context.Context, target types.Identity, departing, departingNext types.Identity) error

	// Election forwards a Chang-Roberts ELECTION token.
	Election(ctx context.Context, target types.Identity, tokenID uint64) error

	// Elected forwards a Chang-Roberts ELECTED token.
	Elected(ctx context.Context, target types.Identity, tokenID uint64) error

	// MessagePost is phase 1 (uplink) of message propagation.
	MessagePost(ctx context.Context, target types.Identity, text string, sender uint64) error

	// MessagePut is phase 2 (broadcast) of message propagation.
	MessagePut(ctx context.Context, target types.Identity, text string, sender uint64) error

	// Heartbeat emits a liveness beat to target.
	Heartbeat(ctx context.Context, target types.Identity) error

	// Panic forwards an orphan announcement.
	Panic(ctx context.Context, target types.Identity, orphan types.Identity) error

	// Serialize fetches target's current snapshot, used by the
	// /serialize/all ring walk.
	Serialize(ctx context.Context, target types.Identity) (types.SerializeResponse, error)
}
