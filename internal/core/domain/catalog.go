// Package domain defines the supply-chain event catalog, the immutable event
// record and the error taxonomy shared by every layer of the portal.
package domain

// Role is one of the fixed actor categories allowed to submit events.
type Role string

const (
	RoleFeedlot   Role = "FEEDLOT"
	RoleScale     Role = "SCALE"
	RoleVet       Role = "VET"
	RoleNutrition Role = "NUTRITION"
	RoleTruck     Role = "TRUCK"
	RolePacker    Role = "PACKER"
)

var roles = []Role{RoleFeedlot, RoleScale, RoleVet, RoleNutrition, RoleTruck, RolePacker}

// Roles returns every known role in declaration order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// Known reports whether r is one of the fixed roles.
func (r Role) Known() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

// EventType names a lifecycle fact. Every event type belongs to exactly one role.
type EventType string

const (
	EventAnimalRegistered      EventType = "ANIMAL_REGISTERED"
	EventArrivalRecorded       EventType = "ARRIVAL_RECORDED"
	EventPenMoved              EventType = "PEN_MOVED"
	EventShipOut               EventType = "SHIP_OUT"
	EventWeighIn               EventType = "WEIGH_IN"
	EventWeighOut              EventType = "WEIGH_OUT"
	EventWeighVoided           EventType = "WEIGH_VOIDED"
	EventWeighCorrected        EventType = "WEIGH_CORRECTED"
	EventTreatmentAdministered EventType = "TREATMENT_ADMINISTERED"
	EventTreatmentVoided       EventType = "TREATMENT_VOIDED"
	EventRationDefined         EventType = "RATION_DEFINED"
	EventRationAssigned        EventType = "RATION_ASSIGNED"
	EventFeedDelivered         EventType = "FEED_DELIVERED"
	EventPickupRecorded        EventType = "PICKUP_RECORDED"
	EventDeliveryRecorded      EventType = "DELIVERY_RECORDED"
	EventReceivedAtPacker      EventType = "RECEIVED_AT_PACKER"
)

// EventSpec classifies a single event type.
type EventSpec struct {
	Type  EventType
	Owner Role
	// Compensating event types void or amend an earlier record and must
	// carry a correction reference in their payload.
	Compensating bool
}

var catalog = []EventSpec{
	{Type: EventAnimalRegistered, Owner: RoleFeedlot},
	{Type: EventArrivalRecorded, Owner: RoleFeedlot},
	{Type: EventPenMoved, Owner: RoleFeedlot},
	{Type: EventShipOut, Owner: RoleFeedlot},

	{Type: EventWeighIn, Owner: RoleScale},
	{Type: EventWeighOut, Owner: RoleScale},
	{Type: EventWeighVoided, Owner: RoleScale, Compensating: true},
	{Type: EventWeighCorrected, Owner: RoleScale, Compensating: true},

	{Type: EventTreatmentAdministered, Owner: RoleVet},
	{Type: EventTreatmentVoided, Owner: RoleVet, Compensating: true},

	{Type: EventRationDefined, Owner: RoleNutrition},
	{Type: EventRationAssigned, Owner: RoleNutrition},
	{Type: EventFeedDelivered, Owner: RoleNutrition},

	{Type: EventPickupRecorded, Owner: RoleTruck},
	{Type: EventDeliveryRecorded, Owner: RoleTruck},

	{Type: EventReceivedAtPacker, Owner: RolePacker},
}

var specsByType = func() map[EventType]EventSpec {
	m := make(map[EventType]EventSpec, len(catalog))
	for _, spec := range catalog {
		m[spec.Type] = spec
	}
	return m
}()

// Catalog returns a copy of every event type specification in declaration order.
func Catalog() []EventSpec {
	out := make([]EventSpec, len(catalog))
	copy(out, catalog)
	return out
}

// Known reports whether t is part of the catalog.
func (t EventType) Known() bool {
	_, ok := specsByType[t]
	return ok
}

// Compensating reports whether t voids or corrects an earlier record.
// Unknown event types are never compensating.
func (t EventType) Compensating() bool {
	return specsByType[t].Compensating
}

// Owner returns the role permitted to emit t.
func (t EventType) Owner() (Role, bool) {
	spec, ok := specsByType[t]
	return spec.Owner, ok
}

// EventTypesFor returns the event types owned by r in declaration order.
func EventTypesFor(r Role) []EventType {
	var out []EventType
	for _, spec := range catalog {
		if spec.Owner == r {
			out = append(out, spec.Type)
		}
	}
	return out
}
