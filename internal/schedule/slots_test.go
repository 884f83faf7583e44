package schedule

import (
	"testing"
	"time"

	"github.com/phamrachel17/plan-pal/internal/model"
)

func slotDisplays(slots []model.CandidateSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Display
	}
	return out
}

func TestSuggestSlotsAnchoredOnFreeDay(t *testing.T) {
	slots, err := SuggestSlots("2026-03-10", 60, nil, "14:00", time.UTC)
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}

	want := []string{"12:00 PM", "12:30 PM", "1:00 PM", "1:30 PM", "2:00 PM", "2:30 PM"}
	got := slotDisplays(slots)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	for i := 1; i < len(slots); i++ {
		if !slots[i].Window.Start.After(slots[i-1].Window.Start) {
			t.Errorf("slots out of chronological order at %d", i)
		}
	}
}

func TestSuggestSlotsSkipConflicting(t *testing.T) {
	existing := []model.CalendarEvent{
		timedEvent("m", "Meeting", "2026-03-10T14:00:00Z", "2026-03-10T15:00:00Z"),
	}

	slots, err := SuggestSlots("2026-03-10", 60, existing, "14:00", time.UTC)
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}

	want := []string{"12:00 PM", "12:30 PM", "1:00 PM", "3:00 PM", "3:30 PM", "4:00 PM"}
	got := slotDisplays(slots)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	meeting := model.EventWindow{
		Start: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	for _, slot := range slots {
		if slot.Window.Start.Before(meeting.End) && slot.Window.End.After(meeting.Start) {
			t.Errorf("slot %s overlaps the meeting", slot.Display)
		}
	}
}

func TestSuggestSlotsCap(t *testing.T) {
	slots, err := SuggestSlots("2026-03-10", 30, nil, "12:00", time.UTC)
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	if len(slots) > MaxSuggestions {
		t.Errorf("got %d slots, cap is %d", len(slots), MaxSuggestions)
	}
}

func TestSuggestSlotsClampToDayWindow(t *testing.T) {
	slots, err := SuggestSlots("2026-03-10", 60, nil, "07:00", time.UTC)
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	for _, slot := range slots {
		h := slot.Window.Start.Hour()
		if h < 6 || h > 22 {
			t.Errorf("slot %s starts outside 06:00-22:00", slot.Display)
		}
	}
	if len(slots) == 0 {
		t.Fatal("no slots on a free morning")
	}
	if slots[0].Display != "6:00 AM" {
		t.Errorf("first slot = %s, want 6:00 AM", slots[0].Display)
	}
}

func TestSuggestSlotsFallbackHourlyScan(t *testing.T) {
	// The anchored window around 14:00 is almost fully booked, so the
	// hourly 08:00-20:00 scan kicks in and must not repeat the one
	// anchored slot it already found.
	existing := []model.CalendarEvent{
		timedEvent("block", "Workshop", "2026-03-10T11:30:00Z", "2026-03-10T16:00:00Z"),
	}

	slots, err := SuggestSlots("2026-03-10", 60, existing, "14:00", time.UTC)
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}

	got := slotDisplays(slots)
	if len(got) < 3 {
		t.Fatalf("fallback produced only %v", got)
	}

	seen := make(map[string]bool)
	for _, d := range got {
		if seen[d] {
			t.Errorf("duplicate slot %s", d)
		}
		seen[d] = true
	}
	if !seen["4:00 PM"] {
		t.Errorf("anchored 4:00 PM slot missing from %v", got)
	}
	if !seen["8:00 AM"] {
		t.Errorf("fallback 8:00 AM slot missing from %v", got)
	}
}

func TestSuggestSlotsFullyBookedDay(t *testing.T) {
	existing := []model.CalendarEvent{
		timedEvent("all", "Offsite", "2026-03-10T00:00:00Z", "2026-03-11T00:00:00Z"),
	}

	slots, err := SuggestSlots("2026-03-10", 60, existing, "14:00", time.UTC)
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("got %v on a fully booked day, want none", slotDisplays(slots))
	}
}

func TestSuggestSlotsNoAnchor(t *testing.T) {
	slots, err := SuggestSlots("2026-03-10", 60, nil, "", time.UTC)
	if err != nil {
		t.Fatalf("SuggestSlots: %v", err)
	}
	got := slotDisplays(slots)
	want := []string{"8:00 AM", "9:00 AM", "10:00 AM", "11:00 AM", "12:00 PM", "1:00 PM"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSuggestSlotsBadDate(t *testing.T) {
	if _, err := SuggestSlots("bad", 60, nil, "14:00", time.UTC); err == nil {
		t.Error("bad date accepted")
	}
	if _, err := SuggestSlots("2026-03-10", 60, nil, "25:00", time.UTC); err == nil {
		t.Error("bad anchor accepted")
	}
}

func TestFormatClock12(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         string
	}{
		{0, 0, "12:00 AM"},
		{0, 5, "12:05 AM"},
		{9, 30, "9:30 AM"},
		{12, 0, "12:00 PM"},
		{14, 30, "2:30 PM"},
		{23, 59, "11:59 PM"},
	}
	for _, tc := range cases {
		if got := FormatClock12(tc.hour, tc.minute); got != tc.want {
			t.Errorf("FormatClock12(%d, %d) = %s, want %s", tc.hour, tc.minute, got, tc.want)
		}
	}
}
