package errors

import "testing"

func TestGetKnownAndUnknownCodes(t *testing.T) {
	if got := Get("ATTENDANCE_NOT_FOUND"); got != AttendanceNotFound {
		t.Errorf("Get returned %+v, want %+v", got, AttendanceNotFound)
	}

	unknown := Get("NO_SUCH_CODE")
	if unknown.Code != "NO_SUCH_CODE" || unknown.Message != "Unexpected error" {
		t.Errorf("Get for an unknown code returned %+v", unknown)
	}
}

func TestWithMessageKeepsCode(t *testing.T) {
	wrapped := WithMessage(TooLateCheckIn, "Check-in closed at 10:30, attempted at 10:45")

	if wrapped.Code != TooLateCheckIn.Code {
		t.Errorf("code changed: %s", wrapped.Code)
	}
	if wrapped.Error() != "Check-in closed at 10:30, attempted at 10:45" {
		t.Errorf("message = %q", wrapped.Error())
	}
	// 原定义不可被篡改
	if TooLateCheckIn.Message == wrapped.Message {
		t.Error("WithMessage mutated the shared definition")
	}
}

func TestLookupCoversDefinitionCodes(t *testing.T) {
	for code, def := range Lookup {
		if code != def.Code {
			t.Errorf("Lookup key %q maps to definition with code %q", code, def.Code)
		}
	}
}
