package mapper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rfidmusic/internal/logging"
	"rfidmusic/internal/services"
)

func TestSubmitSendsPayloadAndDecodesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scan" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["rfid"] != "123456" {
			t.Fatalf("unexpected rfid: %q", body["rfid"])
		}
		json.NewEncoder(w).Encode(ScanResult{
			Mapped:            true,
			RFID:              "123456",
			MusicDir:          "/music/album",
			PlaybackTriggered: true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, time.Second, nil, logging.NewNop())
	result, err := client.Submit(context.Background(), "123456")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !result.Mapped || result.MusicDir != "/music/album" || !result.PlaybackTriggered {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSubmitNonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, time.Second, nil, logging.NewNop())
	if _, err := client.Submit(context.Background(), "123456"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestSubmitTransportErrorIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second, time.Second, nil, logging.NewNop())
	_, err := client.Submit(context.Background(), "123456")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable marker, got %v", err)
	}
}

func TestSubmitStampsCorrelationHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Scan-ID"); got != "scan-42" {
			t.Fatalf("unexpected scan id header: %q", got)
		}
		if got := r.Header.Get("X-Scan-Source"); got != "stdin" {
			t.Fatalf("unexpected scan source header: %q", got)
		}
		json.NewEncoder(w).Encode(ScanResult{Mapped: false, RFID: "123456"})
	}))
	defer server.Close()

	ctx := services.WithScanID(context.Background(), "scan-42")
	ctx = services.WithStrategy(ctx, "stdin")
	client := NewClient(server.URL, time.Second, time.Second, nil, logging.NewNop())
	if _, err := client.Submit(ctx, "123456"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
}

func TestSubmitDeadlineExpiryIsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond, time.Second, nil, logging.NewNop())
	_, err := client.Submit(context.Background(), "123456")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout marker, got %v", err)
	}
}

func TestHealthyRequiresExactly200(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, time.Second, nil, logging.NewNop())
	if client.Healthy(context.Background()) {
		t.Fatal("503 should not read as healthy")
	}
	status.Store(http.StatusOK)
	if !client.Healthy(context.Background()) {
		t.Fatal("200 should read as healthy")
	}
}

func TestWaitReadyPollsUntilHealthy(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 10*time.Millisecond, nil, logging.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady returned error: %v", err)
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", calls.Load())
	}
}

func TestWaitReadyStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 10*time.Millisecond, nil, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	if err := client.WaitReady(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
