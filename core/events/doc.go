// Package events defines the typed events a call session emits while it is
// alive. Each event carries the kind and the moment it was observed; consumers
// switch on the concrete type rather than inspecting loosely typed payloads.
package events
