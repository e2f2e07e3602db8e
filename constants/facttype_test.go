package constants

import "testing"

func TestEveryFactTypeHasExactlyOneDestination(t *testing.T) {
	all := AllFactTypes()
	if len(all) != 35 {
		t.Fatalf("expected 35 fact types, got %d", len(all))
	}

	seen := map[FactType]bool{}
	for _, ft := range all {
		if seen[ft] {
			t.Errorf("fact type %s listed twice", ft)
		}
		seen[ft] = true

		if _, ok := DestinationOf(ft); !ok {
			t.Errorf("fact type %s has no destination", ft)
		}
	}

	if _, ok := DestinationOf(FactType("BOGUS")); ok {
		t.Error("unknown fact type should have no destination")
	}
}

func TestDestinationGroupSizes(t *testing.T) {
	counts := map[Destination]int{}
	for _, ft := range AllFactTypes() {
		dest, _ := DestinationOf(ft)
		counts[dest]++
	}

	want := map[Destination]int{
		DestBusiness:  12,
		DestTechnical: 12,
		DestTestPlan:  7,
		DestDecision:  4,
	}
	for dest, n := range want {
		if counts[dest] != n {
			t.Errorf("destination %s: got %d types, want %d", dest, counts[dest], n)
		}
	}
}
