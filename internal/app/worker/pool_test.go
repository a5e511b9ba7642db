package worker

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/services/matching"
)

func mkSlot(hour, minute int, priority entities.SlotPriority) entities.AvailableSlot {
	start := time.Date(2026, 7, 30, hour, minute, 0, 0, time.UTC)
	return entities.AvailableSlot{
		Start:    start,
		End:      start.Add(30 * time.Minute),
		Priority: priority,
	}
}

func TestScoreSlotPreferredWindowBonus(t *testing.T) {
	start := entities.TimeOfDay{Hour: 13, Minute: 0}
	end := entities.TimeOfDay{Hour: 15, Minute: 0}
	req := entities.BookingRequest{PreferredTimeStart: &start, PreferredTimeEnd: &end}

	inside := mkSlot(14, 0, entities.SlotPriorityAvailable)
	outside := mkSlot(16, 0, entities.SlotPriorityAvailable)

	if scoreSlot(inside, req) <= scoreSlot(outside, req) {
		t.Fatalf("expected a slot inside the preferred window to score higher")
	}
}

func TestScoreSlotPreferredWindowIsStrictlyOpen(t *testing.T) {
	start := entities.TimeOfDay{Hour: 13, Minute: 0}
	end := entities.TimeOfDay{Hour: 15, Minute: 0}
	req := entities.BookingRequest{PreferredTimeStart: &start, PreferredTimeEnd: &end}

	onBoundary := mkSlot(13, 0, entities.SlotPriorityAvailable)
	justInside := mkSlot(13, 1, entities.SlotPriorityAvailable)

	if scoreSlot(onBoundary, req) >= scoreSlot(justInside, req) {
		t.Fatal("expected the exact boundary minute to not receive the preferred-window bonus")
	}
}

func TestScoreSlotPriorityOrdering(t *testing.T) {
	req := entities.BookingRequest{}
	emergency := scoreSlot(mkSlot(14, 0, entities.SlotPriorityEmergency), req)
	preferred := scoreSlot(mkSlot(14, 0, entities.SlotPriorityPreferred), req)
	waitlist := scoreSlot(mkSlot(14, 0, entities.SlotPriorityWaitList), req)

	if !(emergency > preferred && preferred > waitlist) {
		t.Fatalf("expected Emergency > Preferred > WaitList, got %v %v %v", emergency, preferred, waitlist)
	}
}

func TestScoreSlotMorningBonusExcludesEmergency(t *testing.T) {
	req := entities.BookingRequest{}
	morningAvailable := scoreSlot(mkSlot(9, 30, entities.SlotPriorityAvailable), req)
	afternoonAvailable := scoreSlot(mkSlot(14, 0, entities.SlotPriorityAvailable), req)
	if morningAvailable <= afternoonAvailable {
		t.Fatal("expected the 09:00-11:00 bonus to apply to a non-Emergency morning slot")
	}

	morningEmergency := scoreSlot(mkSlot(9, 30, entities.SlotPriorityEmergency), req)
	afternoonEmergency := scoreSlot(mkSlot(14, 0, entities.SlotPriorityEmergency), req)
	if morningEmergency != afternoonEmergency {
		t.Fatal("expected the 09:00-11:00 bonus to never apply to an Emergency slot")
	}
}

func TestSelectBestSlotBreaksTiesByEarliestStart(t *testing.T) {
	doctor := &entities.Doctor{ID: uuid.New()}
	later := mkSlot(14, 0, entities.SlotPriorityAvailable)
	earlier := mkSlot(13, 0, entities.SlotPriorityAvailable)
	matches := []matching.Match{{Doctor: doctor, Slots: []entities.AvailableSlot{later, earlier}}}

	best, ok := selectBestSlot(matches, entities.BookingRequest{})
	if !ok {
		t.Fatal("expected a best slot to be found")
	}
	if !best.slot.Start.Equal(earlier.Start) {
		t.Fatalf("expected the earlier of two equally-scored slots, got %v", best.slot.Start)
	}
}

func TestSelectBestSlotNoCandidates(t *testing.T) {
	_, ok := selectBestSlot(nil, entities.BookingRequest{})
	if ok {
		t.Fatal("expected no best slot when there are no matches")
	}
}
