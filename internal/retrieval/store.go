// Package retrieval implements the ranked-passage lookup backing the
// retrieve_context tool: a single document is chunked at load time and
// scored against queries by cosine similarity, using OpenAI embeddings
// when a key is configured and a bag-of-words index otherwise.
package retrieval

import (
    "context"
    "log"
    "math"
    "os"
    "regexp"
    "sort"
    "strings"
)

type Chunk struct {
    ID     int
    Text   string
    sparse map[string]float64
    dense  []float64
}

// Hit pairs a chunk with its similarity score; higher is more relevant.
type Hit struct {
    Chunk Chunk
    Score float64
}

type Options struct {
    DocsPath     string
    ChunkSize    int
    ChunkOverlap int
    // Embedder is optional; when nil the store stays on the sparse index.
    Embedder Embedder
    CacheDir string
}

type Store struct {
    chunks []Chunk
    embed  Embedder
}

// NewStore reads the document, chunks it, and builds the index. A missing or
// empty document yields a store that returns no hits; that is not an error.
func NewStore(ctx context.Context, opts Options) *Store {
    s := &Store{embed: opts.Embedder}
    text := readFile(opts.DocsPath)
    parts := chunkText(text, opts.ChunkSize, opts.ChunkOverlap)
    if len(parts) == 0 {
        log.Printf("[retrieval] no document content at %s; store is empty", opts.DocsPath)
        return s
    }
    if s.embed != nil {
        vecs, err := cachedEmbeddings(ctx, s.embed, opts.DocsPath, opts.CacheDir, parts)
        if err != nil {
            log.Printf("[retrieval] embedding build failed, falling back to sparse: %v", err)
        } else {
            // the sparse index is built alongside dense so a query-embed
            // failure falls back without mutating the store
            for i, p := range parts {
                s.chunks = append(s.chunks, Chunk{ID: i, Text: p, dense: vecs[i], sparse: normalizeSparse(bow(tokens(p)))})
            }
            log.Printf("[retrieval] indexed %d chunks (dense)", len(s.chunks))
            return s
        }
        s.embed = nil
    }
    for i, p := range parts {
        s.chunks = append(s.chunks, Chunk{ID: i, Text: p, sparse: normalizeSparse(bow(tokens(p)))})
    }
    log.Printf("[retrieval] indexed %d chunks (sparse)", len(s.chunks))
    return s
}

// Retrieve returns the top-k chunks by similarity, best first. All chunks are
// scored; callers filter non-positive scores if they want relevant-only hits.
func (s *Store) Retrieve(ctx context.Context, query string, k int) []Hit {
    if len(s.chunks) == 0 || k <= 0 {
        return nil
    }
    hits := make([]Hit, 0, len(s.chunks))
    if s.embed != nil {
        qvecs, err := s.embed.EmbedBatch(ctx, []string{query})
        if err != nil {
            log.Printf("[retrieval] query embed failed, sparse fallback: %v", err)
        } else {
            q := qvecs[0]
            for _, c := range s.chunks {
                hits = append(hits, Hit{Chunk: c, Score: cosDense(q, c.dense)})
            }
            return topK(hits, k)
        }
    }
    q := normalizeSparse(bow(tokens(query)))
    for _, c := range s.chunks {
        hits = append(hits, Hit{Chunk: c, Score: cosSparse(q, c.sparse)})
    }
    return topK(hits, k)
}

func topK(hits []Hit, k int) []Hit {
    sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
    if len(hits) > k {
        hits = hits[:k]
    }
    return hits
}

func readFile(path string) string {
    b, err := os.ReadFile(path)
    if err != nil {
        return ""
    }
    return string(b)
}

// chunkText slices text into fixed-size windows advancing by size-overlap.
func chunkText(text string, size, overlap int) []string {
    if text == "" || size <= 0 {
        return nil
    }
    step := size - overlap
    if step < 1 {
        step = 1
    }
    var out []string
    r := []rune(text)
    for i := 0; i < len(r); i += step {
        end := i + size
        if end > len(r) {
            end = len(r)
        }
        out = append(out, string(r[i:end]))
        if end == len(r) {
            break
        }
    }
    return out
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

func tokens(s string) []string {
    raw := wordRe.FindAllString(s, -1)
    out := make([]string, len(raw))
    for i, t := range raw {
        out[i] = strings.ToLower(t)
    }
    return out
}

func bow(toks []string) map[string]float64 {
    bag := make(map[string]float64, len(toks))
    for _, t := range toks {
        bag[t]++
    }
    return bag
}

func normalizeSparse(vec map[string]float64) map[string]float64 {
    var sum float64
    for _, v := range vec {
        sum += v * v
    }
    norm := math.Sqrt(sum)
    if norm == 0 {
        norm = 1
    }
    out := make(map[string]float64, len(vec))
    for k, v := range vec {
        out[k] = v / norm
    }
    return out
}

func cosSparse(a, b map[string]float64) float64 {
    if len(a) == 0 || len(b) == 0 {
        return 0
    }
    if len(a) > len(b) {
        a, b = b, a
    }
    var s float64
    for k, v := range a {
        s += v * b[k]
    }
    return s
}

func cosDense(a, b []float64) float64 {
    if len(a) == 0 || len(b) == 0 {
        return 0
    }
    var s, na, nb float64
    for i := range a {
        if i >= len(b) {
            break
        }
        s += a[i] * b[i]
        na += a[i] * a[i]
        nb += b[i] * b[i]
    }
    if na == 0 {
        na = 1
    }
    if nb == 0 {
        nb = 1
    }
    return s / (math.Sqrt(na) * math.Sqrt(nb))
}
