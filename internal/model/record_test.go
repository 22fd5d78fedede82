package model

import (
	"testing"
	"time"

	"RollCall/internal/attendance"
)

func TestRecordSnapshot(t *testing.T) {
	checkInAt := time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)

	r := &StudentAttendanceRecord{
		CheckInStatus: attendance.CheckInOnTime,
		CheckIn:       MarkDetail{Time: &checkInAt},
	}

	snap := r.Snapshot()
	if snap.CheckInAt == nil || !snap.CheckInAt.Equal(checkInAt) {
		t.Errorf("CheckInAt = %v, want %v", snap.CheckInAt, checkInAt)
	}
	if snap.CheckOutAt != nil {
		t.Errorf("CheckOutAt = %v, want nil", snap.CheckOutAt)
	}
	if snap.PleaStatus != attendance.PleaNone {
		t.Errorf("PleaStatus = %q, want empty without a plea", snap.PleaStatus)
	}

	r.Plea = &PleaInfo{Status: attendance.PleaApproved}
	if got := r.Snapshot().PleaStatus; got != attendance.PleaApproved {
		t.Errorf("PleaStatus = %q, want approved", got)
	}
}

func TestMarkDetailCoordinate(t *testing.T) {
	lat, lon := 40.0, 116.0

	d := &MarkDetail{Latitude: &lat}
	if d.Coordinate() != nil {
		t.Error("detail with only latitude must report no coordinate")
	}

	d.Longitude = &lon
	c := d.Coordinate()
	if c == nil || c.Latitude != lat || c.Longitude != lon {
		t.Errorf("Coordinate() = %+v, want {%v %v}", c, lat, lon)
	}
}

func TestAppendMeta(t *testing.T) {
	r := &StudentAttendanceRecord{}
	r.AppendMeta(MetaEntry{Type: "reopen_mark", CreatedAt: time.Now()})
	r.AppendMeta(MetaEntry{Type: "status_override", CreatedAt: time.Now()})

	if len(r.Meta) != 2 {
		t.Fatalf("Meta has %d entries, want 2", len(r.Meta))
	}
	if r.Meta[0].Type != "reopen_mark" || r.Meta[1].Type != "status_override" {
		t.Errorf("Meta order lost: %v", r.Meta)
	}
}
