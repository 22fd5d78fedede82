package model

import (
	"testing"
	"time"

	"RollCall/internal/attendance"
)

func TestComputeSummaryStats(t *testing.T) {
	records := []StudentAttendanceRecord{
		{CheckInStatus: attendance.CheckInOnTime, CheckOutStatus: attendance.CheckOutOnTime, FinalStatus: attendance.FinalPresent},
		{CheckInStatus: attendance.CheckInLate, CheckOutStatus: attendance.CheckOutOnTime, FinalStatus: attendance.FinalPartial},
		{CheckInStatus: attendance.CheckInOnTime, CheckOutStatus: attendance.CheckOutLeftEarly, FinalStatus: attendance.FinalPartial},
		{CheckInStatus: attendance.CheckInAbsent, CheckOutStatus: attendance.CheckOutMissed, FinalStatus: attendance.FinalAbsent},
		{
			CheckInStatus: attendance.CheckInAbsent, CheckOutStatus: attendance.CheckOutMissed,
			FinalStatus: attendance.FinalExcused,
			Plea:        &PleaInfo{Status: attendance.PleaApproved, Reasons: []string{"medical"}},
		},
		{
			CheckInStatus: attendance.CheckInAbsent, CheckOutStatus: attendance.CheckOutMissed,
			FinalStatus: attendance.FinalAbsent,
			Plea:        &PleaInfo{Status: attendance.PleaPending},
		},
	}

	stats := ComputeSummaryStats(records)

	if stats.TotalPresent != 4 {
		t.Errorf("TotalPresent = %d, want 4 (present + partial + excused)", stats.TotalPresent)
	}
	if stats.OnTime != 2 {
		t.Errorf("OnTime = %d, want 2", stats.OnTime)
	}
	if stats.Late != 1 {
		t.Errorf("Late = %d, want 1", stats.Late)
	}
	if stats.LeftEarly != 1 {
		t.Errorf("LeftEarly = %d, want 1", stats.LeftEarly)
	}
	if stats.Absent != 2 {
		t.Errorf("Absent = %d, want 2 (excused counts as present, not absent)", stats.Absent)
	}
	if stats.WithPlea != 2 {
		t.Errorf("WithPlea = %d, want 2", stats.WithPlea)
	}
}

func TestComputeSummaryStatsEmpty(t *testing.T) {
	if stats := ComputeSummaryStats(nil); stats != (SummaryStats{}) {
		t.Errorf("empty record set gave %+v, want zero stats", stats)
	}
}

func TestSessionWindowWidensWhenReopened(t *testing.T) {
	until := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)
	s := &AttendanceSession{
		ClassDate:  "2026-03-02",
		ClassStart: "09:00",
		ClassEnd:   "11:00",
		EntryStart: "0H10M",
		EntryEnd:   "1H30M",
	}

	w, err := s.Window(time.UTC)
	if err != nil {
		t.Fatalf("Window returned error: %v", err)
	}
	if !w.EntryEnd.Equal(time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("baseline EntryEnd = %v", w.EntryEnd)
	}

	s.Reopened = true
	s.ReopenedUntil = &until
	w, err = s.Window(time.UTC)
	if err != nil {
		t.Fatalf("Window returned error: %v", err)
	}
	if !w.EntryEnd.Equal(until) {
		t.Errorf("reopened EntryEnd = %v, want %v", w.EntryEnd, until)
	}
}

func TestSessionLocation(t *testing.T) {
	lat, lon := 40.0, 116.0

	s := &AttendanceSession{Latitude: &lat}
	if s.Location() != nil {
		t.Error("session with only latitude must report no location")
	}

	s.Longitude = &lon
	loc := s.Location()
	if loc == nil || loc.Latitude != lat || loc.Longitude != lon {
		t.Errorf("Location() = %+v, want {%v %v}", loc, lat, lon)
	}
}
