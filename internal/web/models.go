package web

import (
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
)

// Model is one synthesis voice in the reshaped catalog response.
type Model struct {
    Name        string `json:"name"`
    DisplayName string `json:"display_name"`
    Language    string `json:"language"`
    Accent      string `json:"accent"`
    Tags        string `json:"tags"`
}

type upstreamCatalog struct {
    TTS []struct {
        Name          string   `json:"name"`
        CanonicalName string   `json:"canonical_name"`
        Architecture  string   `json:"architecture"`
        Languages     []string `json:"languages"`
        Metadata      struct {
            Accent string   `json:"accent"`
            Tags   []string `json:"tags"`
        } `json:"metadata"`
    } `json:"tts"`
}

// HandleTTSModels proxies the remote voice catalog, keeping only aura-2
// synthesis models and reshaping them for the voice picker.
func (s *Server) HandleTTSModels(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "application/json")
    if s.cfg.Deepgram.APIKey == "" {
        metricModelRequests.WithLabelValues("no_key").Inc()
        writeJSONError(w, http.StatusInternalServerError, "DEEPGRAM_API_KEY not set")
        return
    }
    req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.cfg.Deepgram.ModelsURL, nil)
    if err != nil {
        metricModelRequests.WithLabelValues("error").Inc()
        writeJSONError(w, http.StatusInternalServerError, err.Error())
        return
    }
    req.Header.Set("Authorization", "Token "+s.cfg.Deepgram.APIKey)
    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        metricModelRequests.WithLabelValues("error").Inc()
        writeJSONError(w, http.StatusInternalServerError, err.Error())
        return
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        metricModelRequests.WithLabelValues("upstream_error").Inc()
        writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("API status %d", resp.StatusCode))
        return
    }
    var catalog upstreamCatalog
    if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
        metricModelRequests.WithLabelValues("error").Inc()
        writeJSONError(w, http.StatusInternalServerError, err.Error())
        return
    }

    models := make([]Model, 0, len(catalog.TTS))
    for _, m := range catalog.TTS {
        if m.Architecture != "aura-2" {
            continue
        }
        lang := "en"
        if len(m.Languages) > 0 {
            lang = m.Languages[0]
        }
        name := m.CanonicalName
        if name == "" {
            name = m.Name
        }
        models = append(models, Model{
            Name:        name,
            DisplayName: m.Name,
            Language:    lang,
            Accent:      m.Metadata.Accent,
            Tags:        strings.Join(m.Metadata.Tags, ", "),
        })
    }
    metricModelRequests.WithLabelValues("ok").Inc()
    _ = json.NewEncoder(w).Encode(map[string]any{"models": models})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
