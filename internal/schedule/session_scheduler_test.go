package schedule

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"RollCall/internal/model"
)

func testSession(id int64, autoEnd bool) model.AttendanceSession {
	return model.AttendanceSession{
		BaseModel: model.BaseModel{ID: id},
		ClassDate: "2026-03-02",
		ClassEnd:  "09:40",
		Status:    model.SessionStatusActive,
		AutoEnd:   autoEnd,
	}
}

func TestSelectFinalizable(t *testing.T) {
	s := &SessionScheduler{logger: zap.NewNop()}
	loc := time.UTC
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) // 下课之后

	pastDeadline := now.Add(-10 * time.Minute)
	futureDeadline := now.Add(10 * time.Minute)

	ended := testSession(1, true)

	noAutoEnd := testSession(2, false)

	stillRunning := testSession(3, true)
	stillRunning.ClassEnd = "11:00"

	reopenExpired := testSession(4, true)
	reopenExpired.Reopened = true
	reopenExpired.ReopenedUntil = &pastDeadline

	reopenOpen := testSession(5, true)
	reopenOpen.Reopened = true
	reopenOpen.ReopenedUntil = &futureDeadline

	reopenNoAutoEnd := testSession(6, false)
	reopenNoAutoEnd.Reopened = true
	reopenNoAutoEnd.ReopenedUntil = &pastDeadline

	active := []model.AttendanceSession{ended, noAutoEnd, stillRunning, reopenExpired, reopenOpen}
	reopenedExpired := []model.AttendanceSession{reopenExpired, reopenNoAutoEnd}

	got := s.selectFinalizable(active, reopenedExpired, now, loc)

	ids := make(map[int64]bool, len(got))
	for _, session := range got {
		if ids[session.ID] {
			t.Errorf("session %d selected twice", session.ID)
		}
		ids[session.ID] = true
	}

	for _, want := range []int64{1, 4} {
		if !ids[want] {
			t.Errorf("session %d missing from finalizable set %v", want, ids)
		}
	}
	for id, reason := range map[int64]string{
		2: "autoEnd disabled",
		3: "class still running",
		5: "reopen window still open",
		6: "reopen expired but autoEnd disabled",
	} {
		if ids[id] {
			t.Errorf("session %d selected despite %s", id, reason)
		}
	}
}

func TestSelectFinalizableEmpty(t *testing.T) {
	s := &SessionScheduler{logger: zap.NewNop()}
	if got := s.selectFinalizable(nil, nil, time.Now(), time.UTC); len(got) != 0 {
		t.Errorf("empty input gave %d sessions", len(got))
	}
}
