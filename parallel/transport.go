package parallel

import (
	"context"
	"errors"
)

// ErrNoCoordinator is returned when a non-coordinator rank broadcasts over
// a transport with no peer to receive from.
var ErrNoCoordinator = errors.New("parallel: broadcast has no coordinator payload")

// Transport replicates coordinator-built state (symmetry table, integrals,
// excitation queue) to every rank before first read. Omitting this step
// leaves non-coordinator ranks with empty state, so setup treats it as
// mandatory.
type Transport interface {
	// Broadcast delivers the coordinator's payload to every rank.
	// The coordinator calls with root=true and its payload; other ranks
	// call with root=false and nil, blocking until the payload arrives
	// or ctx is done.
	Broadcast(ctx context.Context, root bool, data []byte) ([]byte, error)
}

// Loopback is the single-rank transport: a broadcast is the identity.
type Loopback struct{}

// Broadcast implements Transport.
func (Loopback) Broadcast(_ context.Context, root bool, data []byte) ([]byte, error) {
	if !root {
		return nil, ErrNoCoordinator
	}
	return data, nil
}

// Group is an in-process transport connecting n ranks through channels.
// Useful for exercising multi-rank replication inside one process.
type Group struct {
	chans []chan []byte
}

// GroupMember is one rank's endpoint of a Group.
type GroupMember struct {
	group *Group
	rank  int
}

// NewGroup returns one connected transport endpoint per rank.
func NewGroup(n int) []*GroupMember {
	g := &Group{chans: make([]chan []byte, n)}
	for i := range g.chans {
		g.chans[i] = make(chan []byte, 1)
	}
	members := make([]*GroupMember, n)
	for i := range members {
		members[i] = &GroupMember{group: g, rank: i}
	}
	return members
}

// Broadcast implements Transport.
func (m *GroupMember) Broadcast(ctx context.Context, root bool, data []byte) ([]byte, error) {
	if root {
		for i, ch := range m.group.chans {
			if i == m.rank {
				continue
			}
			select {
			case ch <- data:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return data, nil
	}
	select {
	case data := <-m.group.chans[m.rank]:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
