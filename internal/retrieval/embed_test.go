package retrieval

import (
    "context"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

// stubEmbedder maps texts onto one of two axes so dense ranking is exact.
// errOn makes the nth and later EmbedBatch calls fail; 0 never fails.
type stubEmbedder struct {
    model string
    errOn int
    calls int
}

func (s *stubEmbedder) Model() string { return s.model }

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
    s.calls++
    if s.errOn != 0 && s.calls >= s.errOn {
        return nil, errors.New("embed unavailable")
    }
    out := make([][]float64, len(texts))
    for i, t := range texts {
        if strings.Contains(strings.ToLower(t), "gopher") {
            out[i] = []float64{1, 0}
        } else {
            out[i] = []float64{0, 1}
        }
    }
    return out, nil
}

const testDoc = "the quick brown fox jumps over the lazy dog. " +
    "gophers burrow underground and eat roots. " +
    "sailing ships cross the open ocean under wind power."

func writeDoc(t *testing.T, content string) string {
    t.Helper()
    path := filepath.Join(t.TempDir(), "doc.txt")
    if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
        t.Fatal(err)
    }
    return path
}

func TestRetrieveDenseRanking(t *testing.T) {
    em := &stubEmbedder{model: "stub-model"}
    s := NewStore(context.Background(), Options{
        DocsPath:     writeDoc(t, testDoc),
        ChunkSize:    45,
        ChunkOverlap: 0,
        Embedder:     em,
        CacheDir:     t.TempDir(),
    })
    hits := s.Retrieve(context.Background(), "where do gophers live", 2)
    if len(hits) != 2 {
        t.Fatalf("expected 2 hits, got %d", len(hits))
    }
    if !containsFold(hits[0].Chunk.Text, "gopher") {
        t.Fatalf("expected gopher chunk first, got %q", hits[0].Chunk.Text)
    }
    if hits[0].Score < 0.99 || hits[1].Score > 0.01 {
        t.Fatalf("expected axis-aligned dense scores, got %f and %f", hits[0].Score, hits[1].Score)
    }
    // one chunk batch at load plus one query embed
    if em.calls != 2 {
        t.Fatalf("expected 2 embed calls, got %d", em.calls)
    }
}

func TestStoreFallsBackToSparseWhenBuildEmbedFails(t *testing.T) {
    em := &stubEmbedder{model: "stub-model", errOn: 1}
    s := NewStore(context.Background(), Options{
        DocsPath:     writeDoc(t, testDoc),
        ChunkSize:    45,
        ChunkOverlap: 0,
        Embedder:     em,
        CacheDir:     t.TempDir(),
    })
    hits := s.Retrieve(context.Background(), "where do gophers live", 2)
    if len(hits) == 0 || hits[0].Score <= 0 {
        t.Fatalf("expected sparse hits after build failure, got %v", hits)
    }
    if !containsFold(hits[0].Chunk.Text, "gopher") {
        t.Fatalf("expected gopher chunk first, got %q", hits[0].Chunk.Text)
    }
    // the failed embedder must not be consulted again
    if em.calls != 1 {
        t.Fatalf("expected 1 embed call, got %d", em.calls)
    }
}

func TestRetrieveFallsBackToSparseWhenQueryEmbedFails(t *testing.T) {
    em := &stubEmbedder{model: "stub-model", errOn: 2}
    s := NewStore(context.Background(), Options{
        DocsPath:     writeDoc(t, testDoc),
        ChunkSize:    45,
        ChunkOverlap: 0,
        Embedder:     em,
        CacheDir:     t.TempDir(),
    })
    hits := s.Retrieve(context.Background(), "where do gophers live", 2)
    if len(hits) == 0 || hits[0].Score <= 0 {
        t.Fatalf("expected sparse hits after query embed failure, got %v", hits)
    }
    if !containsFold(hits[0].Chunk.Text, "gopher") {
        t.Fatalf("expected gopher chunk first, got %q", hits[0].Chunk.Text)
    }
    if em.calls != 2 {
        t.Fatalf("expected 2 embed calls, got %d", em.calls)
    }
}

func TestCachedEmbeddingsRoundTrip(t *testing.T) {
    doc := writeDoc(t, testDoc)
    cacheDir := t.TempDir()
    parts := []string{"gophers burrow", "ships sail"}
    ctx := context.Background()

    first := &stubEmbedder{model: "stub-model"}
    vecs, err := cachedEmbeddings(ctx, first, doc, cacheDir, parts)
    if err != nil {
        t.Fatal(err)
    }
    if first.calls != 1 || len(vecs) != 2 {
        t.Fatalf("expected one embed call for 2 parts, got calls=%d len=%d", first.calls, len(vecs))
    }

    // same document and model: served from the cache, no embed call
    second := &stubEmbedder{model: "stub-model"}
    cached, err := cachedEmbeddings(ctx, second, doc, cacheDir, parts)
    if err != nil {
        t.Fatal(err)
    }
    if second.calls != 0 {
        t.Fatalf("expected cache hit with 0 embed calls, got %d", second.calls)
    }
    if len(cached) != 2 || cached[0][0] != vecs[0][0] {
        t.Fatalf("cached vectors do not match originals: %v vs %v", cached, vecs)
    }
}

func TestCachedEmbeddingsRejectsMismatch(t *testing.T) {
    doc := writeDoc(t, testDoc)
    cacheDir := t.TempDir()
    parts := []string{"gophers burrow", "ships sail"}
    ctx := context.Background()

    warm := &stubEmbedder{model: "stub-model"}
    if _, err := cachedEmbeddings(ctx, warm, doc, cacheDir, parts); err != nil {
        t.Fatal(err)
    }

    // different model invalidates the cache entry
    other := &stubEmbedder{model: "other-model"}
    if _, err := cachedEmbeddings(ctx, other, doc, cacheDir, parts); err != nil {
        t.Fatal(err)
    }
    if other.calls != 1 {
        t.Fatalf("expected re-embed on model mismatch, got %d calls", other.calls)
    }

    // different chunk count invalidates it too
    recount := &stubEmbedder{model: "other-model"}
    if _, err := cachedEmbeddings(ctx, recount, doc, cacheDir, parts[:1]); err != nil {
        t.Fatal(err)
    }
    if recount.calls != 1 {
        t.Fatalf("expected re-embed on chunk count mismatch, got %d calls", recount.calls)
    }
}
