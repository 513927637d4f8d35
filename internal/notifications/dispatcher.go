package notifications

import "context"

// Dispatcher routes frames through Redis when it is configured, so every
// instance's subscriber delivers them, and straight to the local hub otherwise.
type Dispatcher struct {
	hub      *Hub
	notifier *Notifier
}

// NewDispatcher wires a hub and a notifier. Either may be nil.
func NewDispatcher(hub *Hub, notifier *Notifier) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier}
}

// ToUser delivers payload to every connection of userID.
func (d *Dispatcher) ToUser(ctx context.Context, userID uint, payload string) error {
	if d == nil {
		return nil
	}
	if d.notifier.Enabled() {
		return d.notifier.PublishUser(ctx, userID, payload)
	}
	if d.hub != nil {
		d.hub.Broadcast(userID, payload)
	}
	return nil
}

// ToAll delivers payload to every connected client.
func (d *Dispatcher) ToAll(ctx context.Context, payload string) error {
	if d == nil {
		return nil
	}
	if d.notifier.Enabled() {
		return d.notifier.PublishBroadcast(ctx, payload)
	}
	if d.hub != nil {
		d.hub.BroadcastAll(payload)
	}
	return nil
}
