package notify

import "time"

// Server-originated event names.
const (
	EventNewDelivery          = "new_delivery"
	EventDeliveryAssigned     = "delivery_assigned"
	EventDriverAssigned       = "driver_assigned"
	EventDeliveryStatusUpdate = "delivery_status_update"
	EventDriverStatusUpdate   = "driver_status_update"
	EventLocationUpdate       = "location_update"
	EventError                = "error"
)

// Client-to-server message names.
const (
	MsgSubscribeToDelivery     = "subscribe_to_delivery"
	MsgUnsubscribeFromDelivery = "unsubscribe_from_delivery"
	MsgUpdateLocation          = "update_location"
)

// TopicUser returns the personal topic for a user id.
func TopicUser(userID string) string { return "user:" + userID }

// TopicRole returns the shared topic for a role.
func TopicRole(role string) string { return "role:" + role }

// TopicDelivery returns the per-delivery topic.
func TopicDelivery(deliveryID string) string { return "delivery:" + deliveryID }

// Envelope wraps every frame sent to a client.
type Envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	TS      time.Time `json:"ts"`
}

// NewDeliveryPayload announces a fresh pending delivery to all couriers.
type NewDeliveryPayload struct {
	DeliveryID     string    `json:"delivery_id"`
	PickupLocation string    `json:"pickup_location"`
	DropoffAddress string    `json:"dropoff_address"`
	Category       string    `json:"category"`
	EstimatedCost  *float64  `json:"estimated_cost,omitempty"`
	DistanceKm     float64   `json:"distance_km"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeliverySummary is the trimmed delivery view sent to the assigned courier.
type DeliverySummary struct {
	PickupLocation string   `json:"pickup_location"`
	DropoffAddress string   `json:"dropoff_address"`
	Category       string   `json:"category"`
	EstimatedCost  *float64 `json:"estimated_cost,omitempty"`
	DistanceKm     float64  `json:"distance_km"`
}

// DeliveryAssignedPayload notifies the winning courier.
type DeliveryAssignedPayload struct {
	DeliveryID string          `json:"delivery_id"`
	Delivery   DeliverySummary `json:"delivery"`
}

// DriverAssignedPayload notifies the customer that a courier took the job.
type DriverAssignedPayload struct {
	DeliveryID string `json:"delivery_id"`
	CourierID  string `json:"courier_id"`
}

// DeliveryStatusUpdatePayload reports a lifecycle transition.
type DeliveryStatusUpdatePayload struct {
	DeliveryID string    `json:"delivery_id"`
	Status     string    `json:"status"`
	CourierID  *string   `json:"courier_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DriverStatusUpdatePayload reports a courier availability change to admins.
type DriverStatusUpdatePayload struct {
	CourierID string    `json:"courier_id"`
	Available bool      `json:"available"`
	TS        time.Time `json:"ts"`
}

// LocationUpdatePayload is an ephemeral courier position scoped to a delivery.
type LocationUpdatePayload struct {
	DeliveryID string    `json:"delivery_id"`
	CourierID  string    `json:"courier_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	TS         time.Time `json:"ts"`
}

// ErrorPayload is sent to a client whose message was rejected; the
// connection stays open.
type ErrorPayload struct {
	Message string `json:"message"`
}
