package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AutoLotSync/AutoLotSync/internal/vehicle"
)

func testVehicle() *vehicle.Vehicle {
	return &vehicle.Vehicle{
		ID: "v1", Year: "2015", Make: "Ford", Model: "Edge", Trim: "SEL",
		VIN: "2FMDK3JC1FBB12345", Price: "8495", Mileage: "99377",
		Description: "clean one-owner trade",
		Photos:      []string{"/photos/2fmdk3jc1fbb12345/1.jpg"},
	}
}

func TestPublishSuccess(t *testing.T) {
	var got listingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/listings" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(listingResponse{
			Success:    true,
			ListingURL: "https://example.com/listing/abc",
		})
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL + "/")
	url, err := c.Publish(context.Background(), testVehicle())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if url != "https://example.com/listing/abc" {
		t.Fatalf("unexpected listing URL %q", url)
	}
	if got.VehicleID != "v1" || got.VIN != "2FMDK3JC1FBB12345" || got.Price != "8495" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
}

func TestPublishAgentReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(listingResponse{
			Success: false,
			Error:   "marketplace session expired",
		})
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL)
	if _, err := c.Publish(context.Background(), testVehicle()); err == nil ||
		!strings.Contains(err.Error(), "marketplace session expired") {
		t.Fatalf("expected agent failure surfaced, got %v", err)
	}
}

func TestPublishNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAgentClient(srv.URL)
	if _, err := c.Publish(context.Background(), testVehicle()); err == nil ||
		!strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestPublishUnreachableAgent(t *testing.T) {
	c := NewAgentClient("http://127.0.0.1:1")
	if _, err := c.Publish(context.Background(), testVehicle()); err == nil {
		t.Fatalf("expected error for unreachable agent")
	}
}
