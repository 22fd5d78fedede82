package attendance

import (
	"testing"
	"time"

	pkgerrors "RollCall/pkg/errors"
)

func reopenFixture() (ReopenState, time.Time, time.Time) {
	classStart := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	classEnd := classStart.Add(2 * time.Hour)
	until := classEnd.Add(-30 * time.Minute)

	return ReopenState{
		AllowedStudents: []int64{101, 102},
		Until:           &until,
		Features:        DefaultReopenFeatures(),
	}, classStart, classEnd
}

func TestPlanReopenMarkGatekeeping(t *testing.T) {
	st, classStart, classEnd := reopenFixture()

	t.Run("student outside the allow list", func(t *testing.T) {
		at := ReopenAttempt{StudentID: 999, Time: classStart.Add(time.Hour)}
		_, err := PlanReopenMark(st, RecordSnapshot{}, at, classStart, classEnd)
		if code := errCode(t, err); code != pkgerrors.ReopenForbidden.Code {
			t.Errorf("error code = %q, want %s", code, pkgerrors.ReopenForbidden.Code)
		}
	})

	t.Run("attempt after the window expired", func(t *testing.T) {
		at := ReopenAttempt{StudentID: 101, Time: st.Until.Add(time.Minute)}
		_, err := PlanReopenMark(st, RecordSnapshot{}, at, classStart, classEnd)
		if code := errCode(t, err); code != pkgerrors.ReopenExpired.Code {
			t.Errorf("error code = %q, want %s", code, pkgerrors.ReopenExpired.Code)
		}
	})

	t.Run("attempt exactly at the deadline still counts", func(t *testing.T) {
		at := ReopenAttempt{StudentID: 101, Time: *st.Until}
		if _, err := PlanReopenMark(st, RecordSnapshot{}, at, classStart, classEnd); err != nil {
			t.Errorf("deadline-inclusive attempt rejected: %v", err)
		}
	})
}

func TestPlanReopenMarkFreshPair(t *testing.T) {
	st, classStart, classEnd := reopenFixture()
	at := ReopenAttempt{StudentID: 101, Time: classStart.Add(80 * time.Minute)}

	plan, err := PlanReopenMark(st, RecordSnapshot{}, at, classStart, classEnd)
	if err != nil {
		t.Fatalf("PlanReopenMark returned error: %v", err)
	}

	if plan.Kind != ReopenFreshPair {
		t.Errorf("Kind = %s, want %s", plan.Kind, ReopenFreshPair)
	}
	if plan.CheckInStatus != CheckInLate || plan.CheckOutStatus != CheckOutLeftEarly {
		t.Errorf("fresh pair statuses = %s/%s, want late/left_early", plan.CheckInStatus, plan.CheckOutStatus)
	}
	// 默认策略把全新双签记为 present
	if plan.FinalStatus != FinalPresent {
		t.Errorf("FinalStatus = %s, want %s", plan.FinalStatus, FinalPresent)
	}
	if plan.ArrivalDeltaMinutes != 80 {
		t.Errorf("ArrivalDeltaMinutes = %d, want 80", plan.ArrivalDeltaMinutes)
	}
	if plan.DepartureDeltaMinutes != 40 {
		t.Errorf("DepartureDeltaMinutes = %d, want 40", plan.DepartureDeltaMinutes)
	}
	if plan.DurationMinutes != 0 {
		t.Errorf("DurationMinutes = %d, want 0 for an atomic fresh pair", plan.DurationMinutes)
	}
}

func TestPlanReopenMarkFreshPairDenied(t *testing.T) {
	st, classStart, classEnd := reopenFixture()
	st.Features.AllowFreshCheckInOut = false

	at := ReopenAttempt{StudentID: 101, Time: classStart.Add(time.Hour)}
	_, err := PlanReopenMark(st, RecordSnapshot{}, at, classStart, classEnd)
	if code := errCode(t, err); code != pkgerrors.ReopenFreshDenied.Code {
		t.Errorf("error code = %q, want %s", code, pkgerrors.ReopenFreshDenied.Code)
	}
}

func TestPlanReopenMarkGeoRequirement(t *testing.T) {
	st, classStart, classEnd := reopenFixture()
	st.Features.RequireGeo = true

	outOfRange := ReopenAttempt{StudentID: 101, Time: classStart.Add(time.Hour), GeoChecked: true, WithinRange: false}
	_, err := PlanReopenMark(st, RecordSnapshot{}, outOfRange, classStart, classEnd)
	if code := errCode(t, err); code != pkgerrors.ReopenGeoRejected.Code {
		t.Errorf("out-of-range error code = %q, want %s", code, pkgerrors.ReopenGeoRejected.Code)
	}

	unchecked := ReopenAttempt{StudentID: 101, Time: classStart.Add(time.Hour)}
	_, err = PlanReopenMark(st, RecordSnapshot{}, unchecked, classStart, classEnd)
	if code := errCode(t, err); code != pkgerrors.ReopenGeoRejected.Code {
		t.Errorf("unchecked-geo error code = %q, want %s", code, pkgerrors.ReopenGeoRejected.Code)
	}

	withinRange := ReopenAttempt{StudentID: 101, Time: classStart.Add(time.Hour), GeoChecked: true, WithinRange: true}
	if _, err := PlanReopenMark(st, RecordSnapshot{}, withinRange, classStart, classEnd); err != nil {
		t.Errorf("in-range attempt rejected: %v", err)
	}
}

func TestPlanReopenMarkLateCheckOut(t *testing.T) {
	st, classStart, classEnd := reopenFixture()
	checkInAt := classStart.Add(5 * time.Minute)
	rec := RecordSnapshot{CheckInAt: &checkInAt, CheckInStatus: CheckInOnTime}

	// 下课前补签退：on_time
	before := ReopenAttempt{StudentID: 102, Time: classStart.Add(85 * time.Minute)}
	plan, err := PlanReopenMark(st, rec, before, classStart, classEnd)
	if err != nil {
		t.Fatalf("PlanReopenMark returned error: %v", err)
	}
	if plan.Kind != ReopenLateCheckOut {
		t.Errorf("Kind = %s, want %s", plan.Kind, ReopenLateCheckOut)
	}
	if plan.CheckOutStatus != CheckOutOnTime {
		t.Errorf("CheckOutStatus = %s, want on_time before class end", plan.CheckOutStatus)
	}
	if plan.CheckInStatus != CheckInOnTime {
		t.Errorf("CheckInStatus must be preserved, got %s", plan.CheckInStatus)
	}
	if plan.DurationMinutes != 80 {
		t.Errorf("DurationMinutes = %d, want 80", plan.DurationMinutes)
	}
	// partial_handling 为空时沿用计算结果
	if plan.FinalStatus != FinalPresent {
		t.Errorf("FinalStatus = %s, want %s", plan.FinalStatus, FinalPresent)
	}
}

func TestPlanReopenMarkLateCheckOutOverride(t *testing.T) {
	st, classStart, classEnd := reopenFixture()
	st.Features.FinalStatusRules.PartialHandling = FinalPartial
	extendedUntil := classEnd.Add(20 * time.Minute)
	st.Until = &extendedUntil

	checkInAt := classStart.Add(5 * time.Minute)
	rec := RecordSnapshot{CheckInAt: &checkInAt, CheckInStatus: CheckInOnTime}

	// 下课之后补签退仍然放行，但状态按策略改写
	after := ReopenAttempt{StudentID: 102, Time: classEnd.Add(10 * time.Minute)}
	plan, err := PlanReopenMark(st, rec, after, classStart, classEnd)
	if err != nil {
		t.Fatalf("PlanReopenMark returned error: %v", err)
	}
	if plan.CheckOutStatus != CheckOutLeftEarly {
		t.Errorf("CheckOutStatus = %s, want left_early after class end", plan.CheckOutStatus)
	}
	if plan.FinalStatus != FinalPartial {
		t.Errorf("FinalStatus = %s, want override %s", plan.FinalStatus, FinalPartial)
	}
	if plan.DepartureDeltaMinutes != -10 {
		t.Errorf("DepartureDeltaMinutes = %d, want -10", plan.DepartureDeltaMinutes)
	}
}

func TestPlanReopenMarkCheckOutDenied(t *testing.T) {
	st, classStart, classEnd := reopenFixture()
	st.Features.AllowCheckOutForCheckedIn = false

	checkInAt := classStart.Add(5 * time.Minute)
	rec := RecordSnapshot{CheckInAt: &checkInAt, CheckInStatus: CheckInOnTime}
	at := ReopenAttempt{StudentID: 101, Time: classStart.Add(time.Hour)}

	_, err := PlanReopenMark(st, rec, at, classStart, classEnd)
	if code := errCode(t, err); code != pkgerrors.ReopenCheckOutDenied.Code {
		t.Errorf("error code = %q, want %s", code, pkgerrors.ReopenCheckOutDenied.Code)
	}
}

func TestPlanReopenMarkAlreadyComplete(t *testing.T) {
	st, classStart, classEnd := reopenFixture()
	checkInAt := classStart.Add(5 * time.Minute)
	checkOutAt := classEnd.Add(-5 * time.Minute)
	rec := RecordSnapshot{CheckInAt: &checkInAt, CheckOutAt: &checkOutAt, CheckInStatus: CheckInOnTime}

	at := ReopenAttempt{StudentID: 101, Time: classStart.Add(time.Hour)}
	_, err := PlanReopenMark(st, rec, at, classStart, classEnd)
	if code := errCode(t, err); code != pkgerrors.ReopenAlreadyComplete.Code {
		t.Errorf("error code = %q, want %s", code, pkgerrors.ReopenAlreadyComplete.Code)
	}
}
