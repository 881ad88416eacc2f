package domain

import (
	"strings"
	"testing"
)

func TestCatalog_EveryTypeHasKnownOwner(t *testing.T) {
	seen := make(map[EventType]bool)
	for _, spec := range Catalog() {
		if seen[spec.Type] {
			t.Errorf("event type %s listed twice", spec.Type)
		}
		seen[spec.Type] = true

		if !spec.Owner.Known() {
			t.Errorf("event type %s owned by unknown role %q", spec.Type, spec.Owner)
		}
	}
}

func TestCatalog_CompensatingMatchesNaming(t *testing.T) {
	// The classification is explicit, but it must agree with the naming
	// convention clients rely on.
	for _, spec := range Catalog() {
		byName := strings.HasSuffix(string(spec.Type), "_VOIDED") || strings.HasSuffix(string(spec.Type), "_CORRECTED")
		if spec.Compensating != byName {
			t.Errorf("%s: Compensating = %v, naming implies %v", spec.Type, spec.Compensating, byName)
		}
	}
}

func TestEventType_Compensating(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      bool
	}{
		{EventWeighIn, false},
		{EventWeighVoided, true},
		{EventWeighCorrected, true},
		{EventTreatmentVoided, true},
		{EventTreatmentAdministered, false},
		{EventType("SOMETHING_VOIDED"), false},
		{EventType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			if got := tt.eventType.Compensating(); got != tt.want {
				t.Errorf("Compensating() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventType_Owner(t *testing.T) {
	owner, ok := EventWeighIn.Owner()
	if !ok || owner != RoleScale {
		t.Errorf("WEIGH_IN owner = %q, %v; want SCALE, true", owner, ok)
	}

	if _, ok := EventType("UNKNOWN").Owner(); ok {
		t.Error("expected unknown event type to have no owner")
	}
}

func TestEventTypesFor(t *testing.T) {
	got := EventTypesFor(RoleVet)
	want := []EventType{EventTreatmentAdministered, EventTreatmentVoided}
	if len(got) != len(want) {
		t.Fatalf("EventTypesFor(VET) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EventTypesFor(VET)[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if got := EventTypesFor(Role("RANCHER")); len(got) != 0 {
		t.Errorf("EventTypesFor(unknown) = %v, want empty", got)
	}
}

func TestRoles_ReturnsCopy(t *testing.T) {
	r := Roles()
	r[0] = Role("MUTATED")
	if Roles()[0] != RoleFeedlot {
		t.Error("Roles() exposed its backing array")
	}
}
