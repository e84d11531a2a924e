package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeInvalid(t *testing.T) {
	if _, ok := ParseTime("not a time"); ok {
		t.Fatalf("expected not ok")
	}
	if _, ok := ParseTime(""); ok {
		t.Fatalf("expected not ok for empty")
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestAlignRange(t *testing.T) {
	from := time.Date(2024, 10, 10, 10, 10, 42, 0, time.UTC)
	to := time.Date(2024, 10, 10, 11, 59, 59, 0, time.UTC)
	af, at := AlignRange(from, to, time.Minute)
	if af.Second() != 0 || at.Second() != 0 {
		t.Fatalf("range not aligned: %v %v", af, at)
	}
	if af.Minute() != 10 || at.Minute() != 59 {
		t.Fatalf("unexpected minutes: %v %v", af, at)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("empty: got %d", got)
	}
	if got := ParseIntDefault("abc", 7); got != 7 {
		t.Fatalf("invalid: got %d", got)
	}
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Fatalf("valid: got %d", got)
	}
}
