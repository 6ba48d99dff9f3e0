package input

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type transition struct {
	down bool
	key  ScanCode
}

type recordingDriver struct {
	log     []transition
	failOn  ScanCode
	failErr error
}

func (r *recordingDriver) Press(keys ...ScanCode) error {
	for _, k := range keys {
		if r.failErr != nil && k == r.failOn {
			return r.failErr
		}
		r.log = append(r.log, transition{down: true, key: k})
	}
	return nil
}

func (r *recordingDriver) Release(keys ...ScanCode) error {
	for _, k := range keys {
		r.log = append(r.log, transition{down: false, key: k})
	}
	return nil
}

func TestActionSpaceSize(t *testing.T) {
	if got := ActionSpaceSize(); got != 18 {
		t.Fatalf("ActionSpaceSize() = %d, want 18", got)
	}
	if ActionCancel.Valid() {
		t.Error("cancel must not be offered to agents")
	}
	if !Action(17).Valid() || Action(18).Valid() {
		t.Error("valid range should be 0..17")
	}
}

func TestKeysFor(t *testing.T) {
	tests := []struct {
		action Action
		want   []ScanCode
	}{
		{ActionCancel, []ScanCode{ScanEsc}},
		{0, []ScanCode{ScanZ}},
		{1, []ScanCode{ScanZ, ScanLeft}},
		{6, []ScanCode{ScanZ, ScanUp, ScanRight}},
		{8, []ScanCode{ScanZ, ScanDown, ScanLeft}},
		{9, []ScanCode{ScanLShift, ScanZ}},
		{12, []ScanCode{ScanLShift, ScanZ, ScanRight}},
		{17, []ScanCode{ScanLShift, ScanZ, ScanDown, ScanLeft}},
	}

	for _, tt := range tests {
		got, ok := KeysFor(tt.action)
		if !ok {
			t.Errorf("KeysFor(%d) not found", tt.action)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("KeysFor(%d) = %v, want %v", tt.action, got, tt.want)
		}
	}

	if _, ok := KeysFor(42); ok {
		t.Error("KeysFor(42) should not exist")
	}
}

func TestKeysForReturnsCopy(t *testing.T) {
	keys, _ := KeysFor(3)
	keys[0] = ScanEsc

	again, _ := KeysFor(3)
	if again[0] != ScanZ {
		t.Fatal("mutating the returned slice changed the action map")
	}
}

func TestFocusActionsMirrorBaseSet(t *testing.T) {
	for a := Action(0); a <= 8; a++ {
		base, _ := KeysFor(a)
		focus, _ := KeysFor(a + 9)
		want := append([]ScanCode{ScanLShift}, base...)
		if !reflect.DeepEqual(focus, want) {
			t.Errorf("action %d = %v, want %v", a+9, focus, want)
		}
	}
}

func TestPressReleaseOrder(t *testing.T) {
	d := &recordingDriver{}
	if err := Press(d, 14); err != nil {
		t.Fatal(err)
	}
	if err := Release(d, 14); err != nil {
		t.Fatal(err)
	}

	want := []transition{
		{true, ScanLShift}, {true, ScanZ}, {true, ScanLeft}, {true, ScanUp},
		{false, ScanLShift}, {false, ScanZ}, {false, ScanLeft}, {false, ScanUp},
	}
	if !reflect.DeepEqual(d.log, want) {
		t.Errorf("transitions = %v, want %v", d.log, want)
	}
}

func TestUnknownActionIsNoop(t *testing.T) {
	d := &recordingDriver{}
	if err := Press(d, 99); err != nil {
		t.Fatalf("Press(99) = %v", err)
	}
	if err := Release(d, -7); err != nil {
		t.Fatalf("Release(-7) = %v", err)
	}
	if len(d.log) != 0 {
		t.Errorf("expected no key transitions, got %v", d.log)
	}
}

func TestTap(t *testing.T) {
	d := &recordingDriver{}
	var slept []time.Duration
	sleep := func(ctx context.Context, dur time.Duration) error {
		slept = append(slept, dur)
		return nil
	}

	if err := Tap(context.Background(), d, sleep, ScanZ, DefaultTapHold, DefaultTapAfter); err != nil {
		t.Fatal(err)
	}

	wantLog := []transition{{true, ScanZ}, {false, ScanZ}}
	if !reflect.DeepEqual(d.log, wantLog) {
		t.Errorf("transitions = %v, want %v", d.log, wantLog)
	}
	wantSleeps := []time.Duration{4 * time.Second / 60, 2 * time.Second}
	if !reflect.DeepEqual(slept, wantSleeps) {
		t.Errorf("sleeps = %v, want %v", slept, wantSleeps)
	}
}

func TestTapReleasesOnCancel(t *testing.T) {
	d := &recordingDriver{}
	sleep := func(ctx context.Context, dur time.Duration) error {
		return context.Canceled
	}

	err := Tap(context.Background(), d, sleep, ScanRight, DefaultTapHold, DefaultTapAfter)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(d.log) != 2 || d.log[1].down {
		t.Errorf("key left pressed: %v", d.log)
	}
}

func TestTapPressError(t *testing.T) {
	boom := errors.New("boom")
	d := &recordingDriver{failOn: ScanZ, failErr: boom}
	sleep := func(ctx context.Context, dur time.Duration) error { return nil }

	if err := Tap(context.Background(), d, sleep, ScanZ, 0, 0); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep ignored cancellation")
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) = %v", err)
	}
}

func TestParseScanCode(t *testing.T) {
	tests := []struct {
		in      string
		want    ScanCode
		wantErr bool
	}{
		{"Z", ScanZ, false},
		{"right", ScanRight, false},
		{" esc ", ScanEsc, false},
		{"shift", ScanLShift, false},
		{"X", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseScanCode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScanCode(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScanCode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ScanZ.String() != "Z" || ScanCode(0x99).String() != "0x99" {
		t.Error("unexpected ScanCode.String output")
	}
}

func TestFrames(t *testing.T) {
	if Frames(60) != time.Second {
		t.Errorf("Frames(60) = %v", Frames(60))
	}
	if Frames(300) != 5*time.Second {
		t.Errorf("Frames(300) = %v", Frames(300))
	}
}
