package domain

// DeliveryStatus represents the lifecycle state of a delivery.
type DeliveryStatus string

// Delivery lifecycle states. Stored lowercase.
const (
	StatusPending   DeliveryStatus = "pending"
	StatusAccepted  DeliveryStatus = "accepted"
	StatusPickedUp  DeliveryStatus = "picked_up"
	StatusCompleted DeliveryStatus = "completed"
	StatusCancelled DeliveryStatus = "cancelled"
)

var allowedStatuses = [...]DeliveryStatus{
	StatusPending, StatusAccepted, StatusPickedUp, StatusCompleted, StatusCancelled,
}

// transitions is the canonical five-state machine:
// pending -> accepted -> picked_up -> completed, with cancelled reachable
// from any non-terminal state.
var transitions = map[DeliveryStatus][]DeliveryStatus{
	StatusPending:  {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusPickedUp, StatusCompleted, StatusCancelled},
	StatusPickedUp: {StatusCompleted, StatusCancelled},
}

// Valid checks if the DeliveryStatus is a known state.
func (s DeliveryStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the state is final. Terminal deliveries are
// retained for history and never mutated again.
func (s DeliveryStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active reports whether a courier is currently bound to the delivery.
func (s DeliveryStatus) Active() bool {
	return s == StatusAccepted || s == StatusPickedUp
}

// CanTransition reports whether moving from s to next is a legal
// lifecycle transition.
func (s DeliveryStatus) CanTransition(next DeliveryStatus) bool {
	for _, v := range transitions[s] {
		if v == next {
			return true
		}
	}
	return false
}
