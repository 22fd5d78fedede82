package service

import (
	"testing"
	"time"

	"RollCall/internal/attendance"
	"RollCall/internal/model"
)

func TestSeedAbsentRecords(t *testing.T) {
	session := &model.AttendanceSession{
		BaseModel: model.BaseModel{ID: 42},
		GroupID:   7,
	}
	members := []model.GroupMember{
		{StudentID: 11, Name: "Alice"},
		{StudentID: 12, Name: "Bob"},
		{StudentID: 13, Name: "Carol"},
	}

	seeds, studentIDs := seedAbsentRecords(session, members)

	if len(seeds) != 3 || len(studentIDs) != 3 {
		t.Fatalf("got %d seeds and %d ids, want 3 each", len(seeds), len(studentIDs))
	}
	for i, seed := range seeds {
		if seed.SessionID != 42 {
			t.Errorf("seed %d SessionID = %d, want 42", i, seed.SessionID)
		}
		if seed.StudentID != members[i].StudentID || seed.StudentName != members[i].Name {
			t.Errorf("seed %d = %d/%s, want %d/%s",
				i, seed.StudentID, seed.StudentName, members[i].StudentID, members[i].Name)
		}
		if seed.CheckInStatus != attendance.CheckInAbsent {
			t.Errorf("seed %d CheckInStatus = %s, want absent", i, seed.CheckInStatus)
		}
		if seed.CheckOutStatus != attendance.CheckOutMissed {
			t.Errorf("seed %d CheckOutStatus = %s, want missed", i, seed.CheckOutStatus)
		}
		if seed.FinalStatus != attendance.FinalAbsent {
			t.Errorf("seed %d FinalStatus = %s, want absent", i, seed.FinalStatus)
		}
		if seed.MarkedBy != attendance.MarkedBySystem {
			t.Errorf("seed %d MarkedBy = %s, want system", i, seed.MarkedBy)
		}
		if seed.CheckIn.Time != nil || seed.CheckOut.Time != nil {
			t.Errorf("seed %d carries mark times before any mark", i)
		}
	}

	for i, id := range studentIDs {
		if id != members[i].StudentID {
			t.Errorf("studentIDs[%d] = %d, want %d", i, id, members[i].StudentID)
		}
	}
}

func TestSeedAbsentRecordsEmptyRoster(t *testing.T) {
	seeds, ids := seedAbsentRecords(&model.AttendanceSession{}, nil)
	if len(seeds) != 0 || len(ids) != 0 {
		t.Errorf("empty roster gave %d seeds, %d ids", len(seeds), len(ids))
	}
}

func TestSettleUnmarkedRecord(t *testing.T) {
	markedAt := time.Date(2026, 3, 2, 8, 5, 0, 0, time.UTC)

	cases := []struct {
		name        string
		record      model.StudentAttendanceRecord
		wantChanged bool
		wantFinal   attendance.FinalStatus
	}{
		{
			"untouched seed stays absent without rewrite",
			model.StudentAttendanceRecord{
				CheckInStatus:  attendance.CheckInAbsent,
				CheckOutStatus: attendance.CheckOutMissed,
				FinalStatus:    attendance.FinalAbsent,
			},
			false, attendance.FinalAbsent,
		},
		{
			"checked-in record is never forced absent",
			model.StudentAttendanceRecord{
				CheckIn:        model.MarkDetail{Time: &markedAt},
				CheckInStatus:  attendance.CheckInOnTime,
				CheckOutStatus: attendance.CheckOutMissed,
				FinalStatus:    attendance.FinalPartial,
			},
			false, attendance.FinalPartial,
		},
		{
			"unmarked record with stale non-absent status is locked to absent",
			model.StudentAttendanceRecord{
				CheckInStatus:  attendance.CheckInOnTime,
				CheckOutStatus: attendance.CheckOutMissed,
				FinalStatus:    attendance.FinalPartial,
			},
			true, attendance.FinalAbsent,
		},
		{
			"approved plea keeps the record excused through settlement",
			model.StudentAttendanceRecord{
				CheckInStatus:  attendance.CheckInAbsent,
				CheckOutStatus: attendance.CheckOutMissed,
				FinalStatus:    attendance.FinalExcused,
				Plea:           &model.PleaInfo{Status: attendance.PleaApproved},
			},
			true, attendance.FinalExcused,
		},
		{
			"rejected plea settles to absent",
			model.StudentAttendanceRecord{
				CheckInStatus:  attendance.CheckInAbsent,
				CheckOutStatus: attendance.CheckOutMissed,
				FinalStatus:    attendance.FinalPartial,
				Plea:           &model.PleaInfo{Status: attendance.PleaRejected},
			},
			true, attendance.FinalAbsent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := tc.record
			changed := settleUnmarkedRecord(&record)
			if changed != tc.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tc.wantChanged)
			}
			if record.FinalStatus != tc.wantFinal {
				t.Errorf("FinalStatus = %s, want %s", record.FinalStatus, tc.wantFinal)
			}
			if changed && record.CheckOutStatus != attendance.CheckOutMissed {
				t.Errorf("settled CheckOutStatus = %s, want missed", record.CheckOutStatus)
			}
		})
	}
}

func TestSettleUnmarkedRecordIsIdempotent(t *testing.T) {
	record := model.StudentAttendanceRecord{
		CheckInStatus:  attendance.CheckInOnTime,
		CheckOutStatus: attendance.CheckOutMissed,
		FinalStatus:    attendance.FinalPartial,
	}

	if !settleUnmarkedRecord(&record) {
		t.Fatal("first settle pass should rewrite the record")
	}
	if settleUnmarkedRecord(&record) {
		t.Error("second settle pass rewrote an already settled record")
	}
}

func TestSettlementRecomputesSummaryStats(t *testing.T) {
	checkedIn := time.Date(2026, 3, 2, 8, 5, 0, 0, time.UTC)
	checkedOut := checkedIn.Add(90 * time.Minute)

	records := []model.StudentAttendanceRecord{
		{
			CheckIn:        model.MarkDetail{Time: &checkedIn},
			CheckOut:       model.MarkDetail{Time: &checkedOut},
			CheckInStatus:  attendance.CheckInOnTime,
			CheckOutStatus: attendance.CheckOutOnTime,
			FinalStatus:    attendance.FinalPresent,
		},
		{
			CheckIn:        model.MarkDetail{Time: &checkedIn},
			CheckInStatus:  attendance.CheckInLate,
			CheckOutStatus: attendance.CheckOutMissed,
			FinalStatus:    attendance.FinalPartial,
		},
		{
			CheckInStatus:  attendance.CheckInAbsent,
			CheckOutStatus: attendance.CheckOutMissed,
			FinalStatus:    attendance.FinalAbsent,
		},
		{
			CheckInStatus:  attendance.CheckInAbsent,
			CheckOutStatus: attendance.CheckOutMissed,
			FinalStatus:    attendance.FinalExcused,
			Plea:           &model.PleaInfo{Status: attendance.PleaApproved, Reasons: []string{"medical"}},
		},
	}

	for i := range records {
		settleUnmarkedRecord(&records[i])
	}

	stats := model.ComputeSummaryStats(records)
	if stats.TotalPresent != 3 {
		t.Errorf("TotalPresent = %d, want 3 (present + partial + excused)", stats.TotalPresent)
	}
	if stats.Absent != 1 {
		t.Errorf("Absent = %d, want 1", stats.Absent)
	}
	if stats.OnTime != 1 || stats.Late != 1 {
		t.Errorf("OnTime/Late = %d/%d, want 1/1", stats.OnTime, stats.Late)
	}
	if stats.WithPlea != 1 {
		t.Errorf("WithPlea = %d, want 1", stats.WithPlea)
	}
}
