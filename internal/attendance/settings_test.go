package attendance

import (
	"testing"
	"time"

	pkgerrors "RollCall/pkg/errors"
)

func testWindow() Window {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return Window{
		ClassStart: day.Add(9 * time.Hour),
		ClassEnd:   day.Add(11 * time.Hour),
		EntryStart: day.Add(9*time.Hour + 10*time.Minute),
		EntryEnd:   day.Add(10*time.Hour + 30*time.Minute),
	}
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	def, ok := err.(pkgerrors.Definition)
	if !ok {
		t.Fatalf("expected a Definition error, got %T: %v", err, err)
	}
	return def.Code
}

func TestEnforceSettingsDefaultsCheckIn(t *testing.T) {
	s := DefaultSettings()
	w := testWindow()

	// 默认允许提前签到
	early := Attempt{Mode: ModeCheckIn, Time: w.EntryStart.Add(-5 * time.Minute)}
	if err := EnforceSettings(s, w, early); err != nil {
		t.Errorf("early check-in with defaults rejected: %v", err)
	}

	// 默认拒绝迟到签到
	late := Attempt{Mode: ModeCheckIn, Time: w.EntryEnd.Add(time.Minute)}
	if code := errCode(t, EnforceSettings(s, w, late)); code != pkgerrors.TooLateCheckIn.Code {
		t.Errorf("late check-in error code = %q, want %s", code, pkgerrors.TooLateCheckIn.Code)
	}

	// 窗口边界本身可以签
	boundary := Attempt{Mode: ModeCheckIn, Time: w.EntryEnd}
	if err := EnforceSettings(s, w, boundary); err != nil {
		t.Errorf("check-in exactly at the window edge rejected: %v", err)
	}
}

func TestEnforceSettingsStrictCheckIn(t *testing.T) {
	s := DefaultSettings()
	s.AllowEarlyCheckIn = false
	s.AllowLateJoiners = false
	s.ProofRequirement = ProofSelfie
	w := testWindow()

	cases := []struct {
		name     string
		attempt  Attempt
		wantCode string
	}{
		{
			"late joiner denied before anything else",
			Attempt{Mode: ModeCheckIn, Time: w.EntryStart, JoinedAfterCreation: true, HasProof: true},
			pkgerrors.LateJoinerDenied.Code,
		},
		{
			"selfie proof missing",
			Attempt{Mode: ModeCheckIn, Time: w.EntryStart},
			pkgerrors.ProofRequired.Code,
		},
		{
			"too early when early check-in disabled",
			Attempt{Mode: ModeCheckIn, Time: w.EntryStart.Add(-time.Minute), HasProof: true},
			pkgerrors.TooEarlyCheckIn.Code,
		},
		{
			"inside window passes",
			Attempt{Mode: ModeCheckIn, Time: w.EntryStart.Add(5 * time.Minute), HasProof: true},
			"",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := errCode(t, EnforceSettings(s, w, tc.attempt)); code != tc.wantCode {
				t.Errorf("error code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestEnforceSettingsCheckOut(t *testing.T) {
	w := testWindow()
	checkIn := w.EntryStart.Add(5 * time.Minute)

	t.Run("disabled check-out", func(t *testing.T) {
		s := DefaultSettings()
		s.EnableCheckInOut = false
		a := Attempt{Mode: ModeCheckOut, Time: w.ClassEnd}
		if code := errCode(t, EnforceSettings(s, w, a)); code != pkgerrors.CheckOutDisabled.Code {
			t.Errorf("error code = %q, want %s", code, pkgerrors.CheckOutDisabled.Code)
		}
	})

	t.Run("minimum presence not met", func(t *testing.T) {
		s := DefaultSettings()
		s.MinimumPresenceDuration = 45
		a := Attempt{Mode: ModeCheckOut, Time: checkIn.Add(20 * time.Minute), CheckInTime: &checkIn}
		if code := errCode(t, EnforceSettings(s, w, a)); code != pkgerrors.ShortDuration.Code {
			t.Errorf("error code = %q, want %s", code, pkgerrors.ShortDuration.Code)
		}
	})

	t.Run("minimum presence met", func(t *testing.T) {
		s := DefaultSettings()
		s.MinimumPresenceDuration = 45
		a := Attempt{Mode: ModeCheckOut, Time: checkIn.Add(50 * time.Minute), CheckInTime: &checkIn}
		if err := EnforceSettings(s, w, a); err != nil {
			t.Errorf("check-out after the minimum duration rejected: %v", err)
		}
	})

	t.Run("reopened attempt skips minimum presence", func(t *testing.T) {
		s := DefaultSettings()
		s.MinimumPresenceDuration = 45
		a := Attempt{Mode: ModeCheckOut, Time: checkIn.Add(5 * time.Minute), CheckInTime: &checkIn, Reopened: true}
		if err := EnforceSettings(s, w, a); err != nil {
			t.Errorf("reopened check-out hit the duration gate: %v", err)
		}
	})

	t.Run("late check-out blocked when disallowed", func(t *testing.T) {
		s := DefaultSettings()
		s.AllowLateCheckOut = false
		a := Attempt{Mode: ModeCheckOut, Time: w.EntryEnd.Add(time.Minute), CheckInTime: &checkIn}
		if code := errCode(t, EnforceSettings(s, w, a)); code != pkgerrors.TooLateCheckOut.Code {
			t.Errorf("error code = %q, want %s", code, pkgerrors.TooLateCheckOut.Code)
		}
	})
}

func TestEnforceSettingsInvalidMode(t *testing.T) {
	a := Attempt{Mode: MarkMode("signOff"), Time: time.Now()}
	if code := errCode(t, EnforceSettings(DefaultSettings(), testWindow(), a)); code != pkgerrors.InvalidMarkMode.Code {
		t.Errorf("error code = %q, want %s", code, pkgerrors.InvalidMarkMode.Code)
	}
}
