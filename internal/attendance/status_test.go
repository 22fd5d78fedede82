package attendance

import "testing"

func TestResolveFinalStatus(t *testing.T) {
	cases := []struct {
		name string
		in   CheckInStatus
		out  CheckOutStatus
		plea PleaStatus
		want FinalStatus
	}{
		{"full presence", CheckInOnTime, CheckOutOnTime, PleaNone, FinalPresent},
		{"never showed up", CheckInAbsent, CheckOutMissed, PleaNone, FinalAbsent},
		{"checked in, no check-out", CheckInOnTime, CheckOutMissed, PleaNone, FinalPartial},
		{"late check-in, no check-out", CheckInLate, CheckOutMissed, PleaNone, FinalPartial},
		{"no check-in, checked out", CheckInAbsent, CheckOutOnTime, PleaNone, FinalPartial},
		{"late but stayed to the end", CheckInLate, CheckOutOnTime, PleaNone, FinalPartial},
		{"on time but left early", CheckInOnTime, CheckOutLeftEarly, PleaNone, FinalPartial},
		{"late and left early", CheckInLate, CheckOutLeftEarly, PleaNone, FinalPartial},
		{"approved plea overrides absence", CheckInAbsent, CheckOutMissed, PleaApproved, FinalExcused},
		{"approved plea overrides presence", CheckInOnTime, CheckOutOnTime, PleaApproved, FinalExcused},
		{"pending plea changes nothing", CheckInAbsent, CheckOutMissed, PleaPending, FinalAbsent},
		{"rejected plea changes nothing", CheckInOnTime, CheckOutMissed, PleaRejected, FinalPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveFinalStatus(tc.in, tc.out, tc.plea); got != tc.want {
				t.Errorf("ResolveFinalStatus(%s, %s, %q) = %s, want %s", tc.in, tc.out, tc.plea, got, tc.want)
			}
		})
	}
}

func TestResolveFinalStatusIsRecomputable(t *testing.T) {
	// 同一组输入重复求值必须稳定，结算时全量重算依赖这一点
	for i := 0; i < 3; i++ {
		if got := ResolveFinalStatus(CheckInLate, CheckOutLeftEarly, PleaRejected); got != FinalPartial {
			t.Fatalf("iteration %d: got %s, want %s", i, got, FinalPartial)
		}
	}
}
