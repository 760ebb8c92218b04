package retrieval

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"

    "github.com/openai/openai-go"
    "github.com/openai/openai-go/option"
)

const (
    embedModel    = "text-embedding-3-small"
    embedMaxBatch = 64
)

// Embedder turns texts into vectors comparable by cosine similarity.
type Embedder interface {
    EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
    Model() string
}

// OpenAIEmbedder implements Embedder on the OpenAI embeddings API.
type OpenAIEmbedder struct {
    client *openai.Client
}

func NewOpenAIEmbedder(apiKey string) *OpenAIEmbedder {
    client := openai.NewClient(option.WithAPIKey(apiKey))
    return &OpenAIEmbedder{client: &client}
}

func (o *OpenAIEmbedder) Model() string { return embedModel }

func (o *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
    if len(texts) == 0 {
        return nil, fmt.Errorf("empty input")
    }
    result := make([][]float64, len(texts))
    for i := 0; i < len(texts); i += embedMaxBatch {
        end := i + embedMaxBatch
        if end > len(texts) {
            end = len(texts)
        }
        resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
            Model: embedModel,
            Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts[i:end]},
        })
        if err != nil {
            return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
        }
        for _, item := range resp.Data {
            idx := i + int(item.Index)
            if idx < 0 || idx >= len(texts) {
                return nil, fmt.Errorf("unexpected embedding index %d", item.Index)
            }
            result[idx] = item.Embedding
        }
    }
    for i, v := range result {
        if v == nil {
            return nil, fmt.Errorf("missing embedding for index %d", i)
        }
    }
    return result, nil
}

type embedCache struct {
    Model  string      `json:"model"`
    Chunks [][]float64 `json:"chunks"`
}

// cachedEmbeddings loads chunk vectors from the cache dir when the document
// signature matches, otherwise embeds and writes the cache back.
func cachedEmbeddings(ctx context.Context, e Embedder, docPath, cacheDir string, parts []string) ([][]float64, error) {
    sig := docSignature(docPath)
    cacheFile := filepath.Join(cacheDir, sig+".embeddings.json")
    if b, err := os.ReadFile(cacheFile); err == nil {
        var c embedCache
        if json.Unmarshal(b, &c) == nil && c.Model == e.Model() && len(c.Chunks) == len(parts) {
            return c.Chunks, nil
        }
    }
    vecs, err := e.EmbedBatch(ctx, parts)
    if err != nil {
        return nil, err
    }
    if err := os.MkdirAll(cacheDir, 0o755); err == nil {
        if b, err := json.Marshal(embedCache{Model: e.Model(), Chunks: vecs}); err == nil {
            _ = os.WriteFile(cacheFile, b, 0o644)
        }
    }
    return vecs, nil
}

func docSignature(path string) string {
    payload := path + "|0|0"
    if st, err := os.Stat(path); err == nil {
        payload = fmt.Sprintf("%s|%d|%d", path, st.Size(), st.ModTime().Unix())
    }
    sum := sha256.Sum256([]byte(payload))
    return hex.EncodeToString(sum[:])
}
