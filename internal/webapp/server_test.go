package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rfidmusic/internal/logging"
	"rfidmusic/internal/musiclib"
	"rfidmusic/internal/store"
	"rfidmusic/internal/testsupport"
)

type fakePlayback struct {
	calls    []string
	playErr  error
	lastDir  string
	lastRFID string
}

func (f *fakePlayback) Play(_ context.Context, rfid, musicDir string) error {
	f.calls = append(f.calls, rfid)
	f.lastRFID = rfid
	f.lastDir = musicDir
	return f.playErr
}

func newTestServer(t *testing.T, playback PlaybackService) (*Server, *store.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	s, err := New(cfg, st, playback, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %q", body["status"])
	}
}

func TestScanUnmappedQueuesPending(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/scan", scanRequest{RFID: "123456"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody[scanResponse](t, rec)
	if resp.Mapped {
		t.Fatal("expected unmapped response")
	}
	if resp.RFID != "123456" {
		t.Fatalf("unexpected rfid %q", resp.RFID)
	}
	if resp.Message == "" {
		t.Fatal("expected guidance message for unmapped scan")
	}

	pending := decodeBody[map[string]string](t, doJSON(t, s.Handler(), http.MethodGet, "/api/pending", nil))
	if pending["rfid"] != "123456" {
		t.Fatalf("expected pending rfid 123456, got %q", pending["rfid"])
	}
	drained := decodeBody[map[string]string](t, doJSON(t, s.Handler(), http.MethodGet, "/api/pending", nil))
	if drained["rfid"] != "" {
		t.Fatalf("expected pending queue to drain, got %q", drained["rfid"])
	}
}

func TestScanMappedTriggersPlayback(t *testing.T) {
	playback := &fakePlayback{}
	s, st := newTestServer(t, playback)

	mapping := &store.Mapping{RFID: "ABC123", MusicDir: "/music/dark-side", AlbumTitle: "Dark Side", Artist: "Pink Floyd"}
	if err := st.Create(context.Background(), mapping); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(t, s.Handler(), http.MethodPost, "/scan", scanRequest{RFID: "ABC123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody[scanResponse](t, rec)
	if !resp.Mapped || !resp.PlaybackTriggered {
		t.Fatalf("expected mapped+triggered response, got %+v", resp)
	}
	if resp.AlbumTitle != "Dark Side" || resp.Artist != "Pink Floyd" {
		t.Fatalf("unexpected metadata in response: %+v", resp)
	}
	if playback.lastRFID != "ABC123" || playback.lastDir != "/music/dark-side" {
		t.Fatalf("playback received %q %q", playback.lastRFID, playback.lastDir)
	}

	got, err := st.Get(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastPlayed == nil {
		t.Fatal("expected last_played to be recorded")
	}
}

func TestScanPlaybackFailureStillResolves(t *testing.T) {
	playback := &fakePlayback{playErr: errors.New("host unreachable")}
	s, st := newTestServer(t, playback)

	if err := st.Create(context.Background(), &store.Mapping{RFID: "ABC123", MusicDir: "/music/ok"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(t, s.Handler(), http.MethodPost, "/scan", scanRequest{RFID: "ABC123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody[scanResponse](t, rec)
	if !resp.Mapped {
		t.Fatal("expected mapped response despite playback failure")
	}
	if resp.PlaybackTriggered {
		t.Fatal("expected playback_triggered=false on failure")
	}
}

func TestScanRejectsEmptyIdentifier(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/scan", scanRequest{RFID: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateMappingConflicts(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/mappings", mappingPayload{RFID: "111111", MusicDir: "/music/first_album"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[mappingPayload](t, rec)
	if created.AlbumTitle != "First Album" {
		t.Fatalf("expected derived album title, got %q", created.AlbumTitle)
	}

	dup := doJSON(t, s.Handler(), http.MethodPost, "/api/mappings", mappingPayload{RFID: "111111", MusicDir: "/music/other"})
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate rfid, got %d", dup.Code)
	}

	taken := doJSON(t, s.Handler(), http.MethodPost, "/api/mappings", mappingPayload{RFID: "222222", MusicDir: "/music/first_album"})
	if taken.Code != http.StatusConflict {
		t.Fatalf("expected 409 for assigned directory, got %d", taken.Code)
	}

	missing := doJSON(t, s.Handler(), http.MethodPost, "/api/mappings", mappingPayload{RFID: "333333"})
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing music_dir, got %d", missing.Code)
	}
}

func TestListAndDeleteMappings(t *testing.T) {
	s, st := newTestServer(t, nil)

	if err := st.Create(context.Background(), &store.Mapping{RFID: "111111", MusicDir: "/music/a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Create(context.Background(), &store.Mapping{RFID: "222222", MusicDir: "/music/b"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	listed := decodeBody[[]mappingPayload](t, doJSON(t, s.Handler(), http.MethodGet, "/api/mappings", nil))
	if len(listed) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(listed))
	}

	rec := doJSON(t, s.Handler(), http.MethodDelete, "/api/mappings/111111", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	gone := doJSON(t, s.Handler(), http.MethodDelete, "/api/mappings/111111", nil)
	if gone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for repeated delete, got %d", gone.Code)
	}

	remaining := decodeBody[[]mappingPayload](t, doJSON(t, s.Handler(), http.MethodGet, "/api/mappings", nil))
	if len(remaining) != 1 || remaining[0].RFID != "222222" {
		t.Fatalf("unexpected remaining mappings: %+v", remaining)
	}
}

func TestUpdateMapping(t *testing.T) {
	s, st := newTestServer(t, nil)

	if err := st.Create(context.Background(), &store.Mapping{RFID: "111111", MusicDir: "/music/old_album", AlbumTitle: "Old"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := st.Create(context.Background(), &store.Mapping{RFID: "222222", MusicDir: "/music/other_album"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(t, s.Handler(), http.MethodPut, "/api/mappings/111111", mappingPayload{MusicDir: "/music/new_album"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[mappingPayload](t, rec)
	if updated.MusicDir != "/music/new_album" {
		t.Fatalf("expected updated music_dir, got %q", updated.MusicDir)
	}
	if updated.AlbumTitle != "New Album" {
		t.Fatalf("expected derived album title, got %q", updated.AlbumTitle)
	}

	got, err := st.Get(context.Background(), "111111")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.MusicDir != "/music/new_album" || got.AlbumTitle != "New Album" {
		t.Fatalf("unexpected stored mapping: %+v", got)
	}

	resave := doJSON(t, s.Handler(), http.MethodPut, "/api/mappings/111111", mappingPayload{MusicDir: "/music/new_album", Artist: "Someone"})
	if resave.Code != http.StatusOK {
		t.Fatalf("expected 200 resaving same directory, got %d", resave.Code)
	}

	taken := doJSON(t, s.Handler(), http.MethodPut, "/api/mappings/111111", mappingPayload{MusicDir: "/music/other_album"})
	if taken.Code != http.StatusConflict {
		t.Fatalf("expected 409 for assigned directory, got %d", taken.Code)
	}

	unknown := doJSON(t, s.Handler(), http.MethodPut, "/api/mappings/999999", mappingPayload{MusicDir: "/music/free"})
	if unknown.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown rfid, got %d", unknown.Code)
	}

	missing := doJSON(t, s.Handler(), http.MethodPut, "/api/mappings/111111", mappingPayload{})
	if missing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing music_dir, got %d", missing.Code)
	}
}

func TestDirectoriesExcludesAssigned(t *testing.T) {
	s, st := newTestServer(t, nil)

	assignedDir := testsupport.WriteAlbum(t, s.cfg.Library.MusicDir, "assigned_album", "01.mp3")
	testsupport.WriteAlbum(t, s.cfg.Library.MusicDir, "free_album", "01.mp3", "02.mp3")

	if err := st.Create(context.Background(), &store.Mapping{RFID: "111111", MusicDir: assignedDir}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/directories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	dirs := decodeBody[[]musiclib.Directory](t, rec)
	if len(dirs) != 1 {
		t.Fatalf("expected 1 available directory, got %d", len(dirs))
	}
	if dirs[0].Name != "free_album" {
		t.Fatalf("expected free_album, got %q", dirs[0].Name)
	}
	if dirs[0].TrackCount != 2 {
		t.Fatalf("expected 2 tracks, got %d", dirs[0].TrackCount)
	}
}
