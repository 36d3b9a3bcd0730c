package service

// ConfigNotifier receives change events for pricing configuration entities.
// The websocket hub implements it to push cache-invalidation hints to
// connected admin clients.
type ConfigNotifier interface {
	ConfigChanged(entity, id string)
}

type nopNotifier struct{}

func (nopNotifier) ConfigChanged(entity, id string) {}

// NewNopNotifier returns a notifier that drops every event. Used in tests and
// when the websocket hub is disabled.
func NewNopNotifier() ConfigNotifier {
	return nopNotifier{}
}
