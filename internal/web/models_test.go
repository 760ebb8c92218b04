package web

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "voicebridge/agent/internal/config"
)

func TestTTSModelsReshapesCatalog(t *testing.T) {
    upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.Header.Get("Authorization") != "Token k" {
            http.Error(w, "unauthorized", http.StatusUnauthorized)
            return
        }
        w.Header().Set("Content-Type", "application/json")
        w.Write([]byte(`{"tts":[
            {"name":"Apollo","canonical_name":"aura-2-apollo-en","architecture":"aura-2",
             "languages":["en"],"metadata":{"accent":"American","tags":["warm","male"]}},
            {"name":"Old","canonical_name":"aura-old-en","architecture":"aura",
             "languages":["en"],"metadata":{}},
            {"name":"Thalia","canonical_name":"aura-2-thalia-en","architecture":"aura-2",
             "languages":[],"metadata":{"accent":"","tags":[]}}
        ]}`))
    }))
    defer upstream.Close()

    var cfg config.Config
    cfg.Deepgram.APIKey = "k"
    cfg.Deepgram.ModelsURL = upstream.URL
    srv := NewServer(cfg, NewHub(), &stubControl{})

    rec := httptest.NewRecorder()
    srv.HandleTTSModels(rec, httptest.NewRequest(http.MethodGet, "/tts-models", nil))
    if rec.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rec.Code)
    }
    var body struct {
        Models []Model `json:"models"`
    }
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatal(err)
    }
    if len(body.Models) != 2 {
        t.Fatalf("expected 2 aura-2 models, got %d: %+v", len(body.Models), body.Models)
    }
    m := body.Models[0]
    if m.Name != "aura-2-apollo-en" || m.DisplayName != "Apollo" || m.Language != "en" ||
        m.Accent != "American" || m.Tags != "warm, male" {
        t.Fatalf("unexpected reshape: %+v", m)
    }
    if body.Models[1].Language != "en" {
        t.Fatalf("expected default language en, got %q", body.Models[1].Language)
    }
}

func TestTTSModelsMissingKey(t *testing.T) {
    srv := NewServer(config.Config{}, NewHub(), &stubControl{})
    rec := httptest.NewRecorder()
    srv.HandleTTSModels(rec, httptest.NewRequest(http.MethodGet, "/tts-models", nil))
    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("expected 500, got %d", rec.Code)
    }
    var body map[string]any
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatal(err)
    }
    if body["error"] != "DEEPGRAM_API_KEY not set" {
        t.Fatalf("unexpected error body: %v", body)
    }
}

func TestTTSModelsUpstreamFailure(t *testing.T) {
    upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, "boom", http.StatusBadGateway)
    }))
    defer upstream.Close()

    var cfg config.Config
    cfg.Deepgram.APIKey = "k"
    cfg.Deepgram.ModelsURL = upstream.URL
    srv := NewServer(cfg, NewHub(), &stubControl{})

    rec := httptest.NewRecorder()
    srv.HandleTTSModels(rec, httptest.NewRequest(http.MethodGet, "/tts-models", nil))
    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("expected 500, got %d", rec.Code)
    }
    var body map[string]any
    if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
        t.Fatal(err)
    }
    if body["error"] != "API status 502" {
        t.Fatalf("unexpected error body: %v", body)
    }
}
