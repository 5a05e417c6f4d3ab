package types

// Status is the node's membership state, per the data model: a NEW
// node has a bootstrap successor but has not completed join; a READY
// node participates in the ring.
type Status int

const (
	StatusNew Status = iota
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}
