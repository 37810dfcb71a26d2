package llm

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildLadder_RequestedFirst(t *testing.T) {
	got := buildLadder("claude-sonnet", []string{"gpt-4o-mini", "gpt-4o"})
	want := []string{"claude-sonnet", "gpt-4o-mini", "gpt-4o"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ladder = %v, want %v", got, want)
	}
}

func TestBuildLadder_RequestedDuplicatesDefault(t *testing.T) {
	got := buildLadder("gpt-4o", []string{"gpt-4o-mini", "gpt-4o"})
	want := []string{"gpt-4o", "gpt-4o-mini"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ladder = %v, want %v", got, want)
	}
}

func TestBuildLadder_EmptyRequested(t *testing.T) {
	got := buildLadder("", []string{"gpt-4o-mini"})
	want := []string{"gpt-4o-mini"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ladder = %v, want %v", got, want)
	}
}

func TestLadderError_AggregatesReasons(t *testing.T) {
	err := &LadderError{Attempts: []Attempt{
		{Backend: "a", Err: errors.New("timeout")},
		{Backend: "b", Err: errors.New("rate limited")},
	}}

	msg := err.Error()
	if !strings.Contains(msg, "a: timeout") || !strings.Contains(msg, "b: rate limited") {
		t.Errorf("message missing attempt reasons: %q", msg)
	}
}
