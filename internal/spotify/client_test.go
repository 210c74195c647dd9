package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/trackflow-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := New(log, Config{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      srv.URL,
		TokenURL:     srv.URL + "/api/token",
		MaxRetries:   1,
	})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func tokenAndPlaylist(t *testing.T, playlistStatus int, playlistBody string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token method = %s", r.Method)
		}
		if r.Header.Get("Authorization") == "" {
			t.Errorf("token request missing basic auth")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/playlists/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("playlist auth = %q", got)
		}
		w.WriteHeader(playlistStatus)
		_, _ = w.Write([]byte(playlistBody))
	})
	return mux
}

func TestGetPlaylist(t *testing.T) {
	body := `{"id":"p1","name":"Morning Mix","owner":{"id":"u1","display_name":"Alex"},"followers":{"total":12},"tracks":{"total":90},"public":true}`
	c := newTestClient(t, tokenAndPlaylist(t, http.StatusOK, body))

	p, err := c.GetPlaylist(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Name != "Morning Mix" || p.OwnerID != "u1" || p.FollowerCount != 12 || p.TrackCount != 90 {
		t.Fatalf("playlist = %+v", p)
	}
}

func TestGetPlaylistNilContext(t *testing.T) {
	body := `{"id":"p1","name":"Late Night","owner":{"id":"u1","display_name":"Sam"},"tracks":{"total":4}}`
	c := newTestClient(t, tokenAndPlaylist(t, http.StatusOK, body))

	var ctx context.Context
	p, err := c.GetPlaylist(ctx, "p1")
	if err != nil {
		t.Fatalf("get with nil context: %v", err)
	}
	if p.Name != "Late Night" {
		t.Fatalf("playlist = %+v", p)
	}
}

func TestGetPlaylistNotFound(t *testing.T) {
	c := newTestClient(t, tokenAndPlaylist(t, http.StatusNotFound, `{"error":{"status":404}}`))
	_, err := c.GetPlaylist(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestGetPlaylistReusesToken(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/playlists/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p"}`))
	})
	c := newTestClient(t, mux)

	for i := 0; i < 3; i++ {
		if _, err := c.GetPlaylist(context.Background(), "p"); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if tokenCalls != 1 {
		t.Fatalf("token calls = %d, want 1", tokenCalls)
	}
}
