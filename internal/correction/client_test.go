package correction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestForwardConsumesEventStream(t *testing.T) {
	var gotBody Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"delta\":\"partial\"}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", 5, 30*time.Second, 3, time.Millisecond)
	err := client.Forward(context.Background(), Request{
		RequestID: "r1",
		RoomName:  "room-1",
		Batch:     map[string]any{"segments": []string{"hi"}},
	})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if gotBody.RequestID != "r1" || gotBody.RoomName != "room-1" {
		t.Fatalf("unexpected forwarded request: %+v", gotBody)
	}
}

func TestForwardNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", 5, 30*time.Second, 1, time.Millisecond)
	err := client.Forward(context.Background(), Request{RequestID: "r2", RoomName: "room-2"})
	if err == nil {
		t.Fatal("expected CorrectionFailureError")
	}
	if _, ok := err.(*CorrectionFailureError); !ok {
		t.Fatalf("expected *CorrectionFailureError, got %T", err)
	}
}

func TestEnabledReflectsConfiguredURL(t *testing.T) {
	enabled := NewClient("https://correct.example", "key", 5, time.Second, 1, time.Millisecond)
	if !enabled.Enabled() {
		t.Fatal("expected Enabled() true with a URL configured")
	}
	disabled := NewClient("", "", 5, time.Second, 1, time.Millisecond)
	if disabled.Enabled() {
		t.Fatal("expected Enabled() false with no URL configured")
	}
}
