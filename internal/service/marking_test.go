package service

import (
	"testing"
	"time"

	"RollCall/internal/attendance"
	"RollCall/internal/model"
	pkgerrors "RollCall/pkg/errors"
)

func TestValidateMarkOrder(t *testing.T) {
	markedAt := time.Date(2026, 3, 2, 8, 5, 0, 0, time.UTC)

	cases := []struct {
		name     string
		mode     attendance.MarkMode
		record   model.StudentAttendanceRecord
		wantCode string
	}{
		{
			"first check-in is accepted",
			attendance.ModeCheckIn,
			model.StudentAttendanceRecord{},
			"",
		},
		{
			"second check-in is rejected",
			attendance.ModeCheckIn,
			model.StudentAttendanceRecord{CheckIn: model.MarkDetail{Time: &markedAt}},
			pkgerrors.AlreadyCheckedIn.Code,
		},
		{
			"check-out without check-in is rejected",
			attendance.ModeCheckOut,
			model.StudentAttendanceRecord{},
			pkgerrors.CheckInRequired.Code,
		},
		{
			"check-out after check-in is accepted",
			attendance.ModeCheckOut,
			model.StudentAttendanceRecord{CheckIn: model.MarkDetail{Time: &markedAt}},
			"",
		},
		{
			"second check-out is rejected",
			attendance.ModeCheckOut,
			model.StudentAttendanceRecord{
				CheckIn:  model.MarkDetail{Time: &markedAt},
				CheckOut: model.MarkDetail{Time: &markedAt},
			},
			pkgerrors.AlreadyCheckedOut.Code,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateMarkOrder(tc.mode, &tc.record)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			def, ok := err.(pkgerrors.Definition)
			if !ok {
				t.Fatalf("error = %v, want a Definition with code %s", err, tc.wantCode)
			}
			if def.Code != tc.wantCode {
				t.Errorf("error code = %s, want %s", def.Code, tc.wantCode)
			}
		})
	}
}

func TestValidateMarkOrderSequence(t *testing.T) {
	record := model.StudentAttendanceRecord{}
	markedAt := time.Date(2026, 3, 2, 8, 5, 0, 0, time.UTC)

	// 顺序协议：签退先于签到被拒，签到一次后签退一次，再多一次都被拒
	if err := validateMarkOrder(attendance.ModeCheckOut, &record); err != pkgerrors.CheckInRequired {
		t.Fatalf("check-out before check-in gave %v, want CHECK_IN_REQUIRED", err)
	}
	if err := validateMarkOrder(attendance.ModeCheckIn, &record); err != nil {
		t.Fatalf("first check-in gave %v", err)
	}
	record.CheckIn = model.MarkDetail{Time: &markedAt}

	if err := validateMarkOrder(attendance.ModeCheckIn, &record); err != pkgerrors.AlreadyCheckedIn {
		t.Fatalf("repeat check-in gave %v, want ALREADY_CHECKED_IN", err)
	}
	if err := validateMarkOrder(attendance.ModeCheckOut, &record); err != nil {
		t.Fatalf("check-out after check-in gave %v", err)
	}
	record.CheckOut = model.MarkDetail{Time: &markedAt}

	if err := validateMarkOrder(attendance.ModeCheckOut, &record); err != pkgerrors.AlreadyCheckedOut {
		t.Fatalf("repeat check-out gave %v, want ALREADY_CHECKED_OUT", err)
	}
}
