package dht

// An Observer watches an engine, waiting for its nodes to change.
type Observer interface {
	// NotifyNodesChanged is invoked after every operation which mutated the
	// engine. The slice of nodes must not be modified.
	NotifyNodesChanged(nodes []NodeInfo)
}

// FuncObserver implements Observer.
type FuncObserver func(nodes []NodeInfo)

// NotifyNodesChanged implements Observer.
func (f FuncObserver) NotifyNodesChanged(nodes []NodeInfo) { f(nodes) }

// MembershipObserver wraps an observer and filters out events where the set
// of node IDs and positions hasn't changed, such as a weight-only load
// balance. When membership changes, next.NotifyNodesChanged is invoked with
// the full set of nodes.
func MembershipObserver(next Observer) Observer {
	return &membershipObserver{next: next}
}

type membershipObserver struct {
	lastMembers []member // Members in engine order
	next        Observer
}

type member struct {
	ID       int
	Position int
}

func (mo *membershipObserver) NotifyNodesChanged(nodes []NodeInfo) {
	members := make([]member, 0, len(nodes))
	for _, n := range nodes {
		members = append(members, member{ID: n.ID, Position: n.Position})
	}

	if membersEqual(members, mo.lastMembers) {
		return
	}

	mo.lastMembers = members
	mo.next.NotifyNodesChanged(nodes)
}

func membersEqual(a, b []member) bool {
	if len(a) != len(b) {
		return false
	}

	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Observers is a list of observers which can be notified together.
type Observers []Observer

// Notify invokes NotifyNodesChanged on every observer in order.
func (os Observers) Notify(nodes []NodeInfo) {
	for _, o := range os {
		o.NotifyNodesChanged(nodes)
	}
}
