package model

import "testing"

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{
		StatusAccepted, StatusWrongAnswer, StatusTimeLimitExceeded,
		StatusMemoryLimitExceeded, StatusRuntimeError, StatusCompileError,
		StatusSystemError,
	}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusRunning} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusCanTransition(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusSystemError, true},
		{StatusPending, StatusAccepted, false},
		{StatusRunning, StatusAccepted, true},
		{StatusRunning, StatusCompileError, true},
		{StatusRunning, StatusSystemError, true},
		{StatusRunning, StatusPending, false},
		{StatusAccepted, StatusRunning, false},
		{StatusAccepted, StatusWrongAnswer, false},
		{StatusCompileError, StatusAccepted, false},
		{StatusRunning, Status("BOGUS"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestStatusForOutcome(t *testing.T) {
	cases := map[Outcome]Status{
		OutcomeAccepted:            StatusAccepted,
		OutcomeWrongAnswer:         StatusWrongAnswer,
		OutcomeTimeLimitExceeded:   StatusTimeLimitExceeded,
		OutcomeMemoryLimitExceeded: StatusMemoryLimitExceeded,
		OutcomeRuntimeError:        StatusRuntimeError,
		OutcomeCompileError:        StatusCompileError,
	}
	for outcome, want := range cases {
		if got := StatusForOutcome(outcome); got != want {
			t.Errorf("StatusForOutcome(%s) = %s, want %s", outcome, got, want)
		}
	}
	if got := StatusForOutcome(Outcome("UNKNOWN")); got != StatusSystemError {
		t.Errorf("unknown outcome should map to SYSTEM_ERROR, got %s", got)
	}
}

func TestEffectiveLimits(t *testing.T) {
	p := &Problem{TimeLimitMs: 0, MemoryLimitMB: 0}
	limits := EffectiveLimits(p, 2000, 256)
	if limits.TimeLimitMs != 2000 || limits.MemoryLimitMB != 256 {
		t.Errorf("defaults not applied: %+v", limits)
	}

	p = &Problem{TimeLimitMs: 500, MemoryLimitMB: 64}
	limits = EffectiveLimits(p, 2000, 256)
	if limits.TimeLimitMs != 500 || limits.MemoryLimitMB != 64 {
		t.Errorf("overrides not applied: %+v", limits)
	}
}

func TestSampleTestCases(t *testing.T) {
	p := &Problem{TestCases: []TestCase{
		{Input: "a", IsSample: true},
		{Input: "b"},
		{Input: "c", IsSample: true},
	}}
	samples := p.SampleTestCases()
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Input != "a" || samples[1].Input != "c" {
		t.Errorf("sample order not preserved: %+v", samples)
	}
}
