package Firestore

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNextCounterValueMissingDocStartsAtOne(t *testing.T) {
	got, err := nextCounterValue(nil, status.Error(codes.NotFound, "no such document"))
	if err != nil {
		t.Fatalf("missing counter should start the sequence: %v", err)
	}
	if got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestNextCounterValueAbortsOnReadFailure(t *testing.T) {
	// A transient failure must never be mistaken for a missing counter;
	// restarting at 1 would hand out ids that overwrite existing tasks.
	tests := []struct {
		name string
		err  error
	}{
		{"unavailable", status.Error(codes.Unavailable, "deadline exceeded")},
		{"permission denied", status.Error(codes.PermissionDenied, "missing role")},
		{"non-grpc error", errors.New("connection reset")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := nextCounterValue(nil, tt.err); err == nil {
				t.Fatalf("read failure was treated as a fresh counter")
			}
		})
	}
}
