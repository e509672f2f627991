package vehicle

import (
	"errors"
	"testing"
	"time"
)

func readyVehicle() *Vehicle {
	return &Vehicle{
		ID:          "v-1",
		Year:        "2015",
		Make:        "Ford",
		Photos:      []string{"https://cdn.example.com/a.jpg"},
		Description: "Clean one-owner SUV.",
		Status:      StatusNotPosted,
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusNotPosted, StatusQueued) {
		t.Fatalf("expected not_posted -> queued allowed")
	}
	if !CanTransition(StatusFailed, StatusQueued) {
		t.Fatalf("expected failed -> queued allowed")
	}
	if !CanTransition(StatusQueued, StatusNotPosted) {
		t.Fatalf("expected unqueue allowed")
	}
	if CanTransition(StatusPosted, StatusQueued) {
		t.Fatalf("expected posted terminal")
	}
	if CanTransition(StatusNotPosted, StatusPosting) {
		t.Fatalf("expected posting only reachable from queued")
	}
}

func TestCheckReady(t *testing.T) {
	v := readyVehicle()
	if err := CheckReady(v); err != nil {
		t.Fatalf("CheckReady: %v", err)
	}

	v.Photos = nil
	if err := CheckReady(v); !errors.Is(err, ErrNeedsPhotos) {
		t.Fatalf("expected ErrNeedsPhotos, got %v", err)
	}

	v = readyVehicle()
	v.Description = ""
	if err := CheckReady(v); !errors.Is(err, ErrNeedsDescription) {
		t.Fatalf("expected ErrNeedsDescription, got %v", err)
	}
}

func TestApplyTransitionLifecycle(t *testing.T) {
	v := readyVehicle()
	now := time.Now()

	if err := ApplyTransition(v, StatusQueued, now); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if v.QueuedAt == nil {
		t.Fatalf("expected QueuedAt set")
	}

	if err := ApplyTransition(v, StatusQueued, now); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}

	if err := ApplyTransition(v, StatusPosting, now); err != nil {
		t.Fatalf("posting: %v", err)
	}
	if err := ApplyTransition(v, StatusPosted, now); err != nil {
		t.Fatalf("posted: %v", err)
	}
	if v.PostedAt == nil {
		t.Fatalf("expected PostedAt set")
	}

	if err := ApplyTransition(v, StatusQueued, now); !errors.Is(err, ErrAlreadyPosted) {
		t.Fatalf("expected ErrAlreadyPosted, got %v", err)
	}
}

func TestApplyTransitionUnqueueClearsTimestamp(t *testing.T) {
	v := readyVehicle()
	now := time.Now()
	if err := ApplyTransition(v, StatusQueued, now); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if err := ApplyTransition(v, StatusNotPosted, now); err != nil {
		t.Fatalf("unqueue: %v", err)
	}
	if v.QueuedAt != nil {
		t.Fatalf("expected QueuedAt cleared on unqueue")
	}
	if v.Status != StatusNotPosted {
		t.Fatalf("expected not_posted, got %s", v.Status)
	}
}

func TestApplyTransitionFailedRequeue(t *testing.T) {
	v := readyVehicle()
	now := time.Now()
	v.Status = StatusFailed
	if err := ApplyTransition(v, StatusQueued, now); err != nil {
		t.Fatalf("expected failed vehicle re-queueable: %v", err)
	}

	v.Status = StatusNotPosted
	if err := ApplyTransition(v, StatusPosted, now); err == nil {
		t.Fatalf("expected shortcut transition rejected")
	}
}
