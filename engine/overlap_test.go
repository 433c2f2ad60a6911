package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/absentia/leave-engine/engine"
)

// =============================================================================
// INTERVAL OVERLAP
// =============================================================================

func TestOverlaps_Symmetric(t *testing.T) {
	pairs := []struct {
		a, b engine.Interval
	}{
		{
			fullDays(date(2024, time.March, 4), date(2024, time.March, 8)),
			fullDays(date(2024, time.March, 6), date(2024, time.March, 12)),
		},
		{
			interval(date(2024, time.March, 4), engine.Afternoon, date(2024, time.March, 4), engine.Afternoon),
			interval(date(2024, time.March, 4), engine.Morning, date(2024, time.March, 4), engine.Morning),
		},
		{
			fullDays(date(2024, time.March, 4), date(2024, time.March, 5)),
			fullDays(date(2024, time.March, 10), date(2024, time.March, 11)),
		},
	}
	for _, p := range pairs {
		if p.a.Overlaps(p.b) != p.b.Overlaps(p.a) {
			t.Errorf("overlap not symmetric for %v / %v", p.a, p.b)
		}
	}
}

func TestOverlaps_DisjointDatesNeverOverlap(t *testing.T) {
	// A ends strictly before B starts: no half combination can collide.
	halves := []engine.Half{engine.FullDay, engine.Morning, engine.Afternoon}
	a := fullDays(date(2024, time.March, 4), date(2024, time.March, 6))
	for _, sh := range halves {
		for _, eh := range halves {
			b := engine.Interval{
				Start: date(2024, time.March, 7), StartHalf: sh,
				End: date(2024, time.March, 9), EndHalf: eh,
			}
			if a.Overlaps(b) {
				t.Errorf("disjoint intervals reported overlapping (b halves %v/%v)", sh, eh)
			}
		}
	}
}

func TestOverlaps_AdjacentHalvesSameDay(t *testing.T) {
	day := date(2024, time.March, 6)
	morning := interval(day, engine.Morning, day, engine.Morning)
	afternoon := interval(day, engine.Afternoon, day, engine.Afternoon)

	// GIVEN: The morning and the afternoon of the same date
	// THEN: They are adjacent, not overlapping
	if morning.Overlaps(afternoon) {
		t.Error("morning and afternoon of the same day must not overlap")
	}

	// A full day collides with either half of it.
	full := interval(day, engine.FullDay, day, engine.FullDay)
	if !full.Overlaps(morning) || !full.Overlaps(afternoon) {
		t.Error("full day must overlap both of its halves")
	}
}

func TestOverlaps_MorningEndMeetsAfternoonStart(t *testing.T) {
	// One request ends on the morning of a date, another starts on the
	// afternoon of the same date. Both can be held at once.
	a := interval(date(2024, time.March, 4), engine.FullDay, date(2024, time.March, 6), engine.Morning)
	b := interval(date(2024, time.March, 6), engine.Afternoon, date(2024, time.March, 8), engine.FullDay)
	if a.Overlaps(b) {
		t.Error("back-to-back half-day boundary must not overlap")
	}

	// Moving b's start back to the morning makes them collide.
	b.StartHalf = engine.Morning
	if !a.Overlaps(b) {
		t.Error("expected overlap once the halves touch")
	}
}

// =============================================================================
// OVERLAP DETECTION AGAINST STORED REQUESTS
// =============================================================================

func TestDetectOverlap_IgnoresNonConsumingStatuses(t *testing.T) {
	fx := newFixture(t, engine.ConfigFlags{})
	iv := fullDays(date(2024, time.March, 4), date(2024, time.March, 8))
	fx.leave(t, "l-planned", iv, engine.StatusPlanned)
	fx.leave(t, "l-rejected", iv, engine.StatusRejected)
	fx.leave(t, "l-cancelled", iv, engine.StatusCancelled)

	found, err := engine.DetectOverlap(context.Background(), fx.store, empAlice, iv, "")
	if err != nil {
		t.Fatalf("DetectOverlap: %v", err)
	}
	if found {
		t.Error("planned, rejected and cancelled requests must not block")
	}
}

func TestDetectOverlap_RequestedBlocks(t *testing.T) {
	fx := newFixture(t, engine.ConfigFlags{})
	fx.leave(t, "l-pending", fullDays(date(2024, time.March, 4), date(2024, time.March, 8)), engine.StatusRequested)

	found, err := engine.DetectOverlap(context.Background(), fx.store, empAlice,
		interval(date(2024, time.March, 8), engine.Afternoon, date(2024, time.March, 11), engine.FullDay), "")
	if err != nil {
		t.Fatalf("DetectOverlap: %v", err)
	}
	if !found {
		t.Error("a pending request sharing a half must block")
	}
}

func TestDetectOverlap_OtherEmployeeDoesNotBlock(t *testing.T) {
	fx := newFixture(t, engine.ConfigFlags{})
	iv := fullDays(date(2024, time.March, 4), date(2024, time.March, 8))
	err := fx.store.CreateLeave(context.Background(), &engine.LeaveRequest{
		ID: "l-marc", EmployeeID: empManager, TypeID: typeAnnual,
		Interval: iv, Status: engine.StatusAccepted,
	})
	if err != nil {
		t.Fatalf("seed leave: %v", err)
	}

	found, err := engine.DetectOverlap(context.Background(), fx.store, empAlice, iv, "")
	if err != nil {
		t.Fatalf("DetectOverlap: %v", err)
	}
	if found {
		t.Error("requests of other employees must not block")
	}
}

func TestDetectOverlap_MalformedInterval(t *testing.T) {
	fx := newFixture(t, engine.ConfigFlags{})
	bad := engine.Interval{Start: date(2024, time.March, 8), End: date(2024, time.March, 4)}
	_, err := engine.DetectOverlap(context.Background(), fx.store, empAlice, bad, "")
	if !errors.Is(err, engine.ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
}
