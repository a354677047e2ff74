package util_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/nasa-jpl/golab-qhyccd/util"
)

func ExampleMergeErrors() {
	errs := []error{nil, errors.New("gain out of range"), nil, errors.New("offset out of range")}
	fmt.Println(util.MergeErrors(errs))
	// Output:
	// gain out of range
	// offset out of range
}

func ExampleDurationToMicros() {
	fmt.Println(util.DurationToMicros(2 * time.Millisecond))
	// Output: 2000
}

func TestMergeErrorsAllNil(t *testing.T) {
	if err := util.MergeErrors([]error{nil, nil}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := util.MergeErrors(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestMergeErrorsSingleIsPassedThrough(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := util.MergeErrors([]error{nil, sentinel})
	if err != sentinel {
		t.Errorf("expected the lone error back, got %v", err)
	}
}

func TestMergeErrorsIsFindsMembers(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")
	err := util.MergeErrors([]error{errors.Wrap(a, "first"), b})
	if !errors.Is(err, a) {
		t.Error("expected errors.Is to find a wrapped member")
	}
	if !errors.Is(err, b) {
		t.Error("expected errors.Is to find a bare member")
	}
}

func TestDurationToMicros(t *testing.T) {
	out := util.DurationToMicros(1500 * time.Nanosecond)
	if out != 1.5 {
		t.Errorf("expected 1.5 us, got %v", out)
	}
}
