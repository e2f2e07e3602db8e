package profiles

import (
	"testing"

	"github.com/google/uuid"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/entity"
)

func TestRoutingTableCoversEveryFactType(t *testing.T) {
	for _, ft := range constants.AllFactTypes() {
		route, ok := RouteOf(ft)
		if !ok {
			t.Errorf("fact type %s has no route", ft)
			continue
		}
		wantDest, _ := constants.DestinationOf(ft)
		if route.Destination != wantDest {
			t.Errorf("fact type %s routes to %s, destination table says %s", ft, route.Destination, wantDest)
		}
		if route.Section == "" {
			t.Errorf("fact type %s has an empty section", ft)
		}
	}
	if len(constants.AllFactTypes()) != len(routes) {
		t.Errorf("routing table has %d rows for %d fact types", len(routes), len(constants.AllFactTypes()))
	}
}

func TestSplitByDestinationReportsUnmapped(t *testing.T) {
	facts := []*entity.AtomicFact{
		{ID: uuid.New(), Type: constants.FactGoal, Content: "g", Status: constants.FactExtracted},
		{ID: uuid.New(), Type: constants.FactType("VIBES"), Content: "x", Status: constants.FactExtracted},
		{ID: uuid.New(), Type: constants.FactType("VIBES"), Content: "y", Status: constants.FactExtracted},
	}
	byDest, diag := SplitByDestination(facts)

	if len(byDest[constants.DestBusiness]) != 1 {
		t.Errorf("expected 1 business fact, got %d", len(byDest[constants.DestBusiness]))
	}
	if len(diag.UnmappedTypes) != 1 || diag.UnmappedTypes[0] != "VIBES" {
		t.Errorf("expected one unmapped type VIBES, got %v", diag.UnmappedTypes)
	}
	if diag.Err() == nil {
		t.Error("non-empty diagnostics must report an error")
	}
}

func TestSplitByDestinationExcludesRejected(t *testing.T) {
	facts := []*entity.AtomicFact{
		{ID: uuid.New(), Type: constants.FactGoal, Content: "keep", Status: constants.FactApproved},
		{ID: uuid.New(), Type: constants.FactGoal, Content: "drop", Status: constants.FactRejected},
	}
	byDest, diag := SplitByDestination(facts)
	if diag.Err() != nil {
		t.Fatalf("unexpected diagnostics: %v", diag.Err())
	}
	business := byDest[constants.DestBusiness]
	if len(business) != 1 || business[0].Content != "keep" {
		t.Errorf("rejected facts must be excluded, got %v", business)
	}
}
