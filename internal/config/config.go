package config

import (
    "fmt"
    "log"
    "strings"

    "github.com/spf13/viper"
)

type Config struct {
    Server struct {
        Port     string
        LogLevel string
    }
    Deepgram struct {
        APIKey    string
        AgentURL  string
        ModelsURL string
    }
    Agent struct {
        VoiceModel      string
        Greeting        string
        Prompt          string
        UserSampleRate  int
        AgentSampleRate int
    }
    RAG struct {
        OpenAIAPIKey string
        DocsPath     string
        CacheDir     string
        ChunkSize    int
        ChunkOverlap int
    }
}

func Load() Config {
    v := viper.New()
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    v.AutomaticEnv()

    // Defaults
    v.SetDefault("server.port", 8080)
    v.SetDefault("server.log_level", "info")

    v.SetDefault("deepgram.agent_url", "wss://agent.deepgram.com/v1/agent/converse")
    v.SetDefault("deepgram.models_url", "https://api.deepgram.com/v1/models")

    v.SetDefault("agent.voice_model", "aura-2-apollo-en")
    v.SetDefault("agent.greeting", "Hi! Ask me anything about the documents I have on hand.")
    v.SetDefault("agent.prompt", defaultPrompt)
    v.SetDefault("agent.user_sample_rate", 48000)
    v.SetDefault("agent.agent_sample_rate", 16000)

    v.SetDefault("rag.docs_path", "docs/profile.txt")
    v.SetDefault("rag.cache_dir", "rag_cache")
    v.SetDefault("rag.chunk_size", 800)
    v.SetDefault("rag.chunk_overlap", 120)

    // Map envs
    v.BindEnv("server.port", "PORT")
    v.BindEnv("server.log_level", "LOG_LEVEL")

    v.BindEnv("deepgram.api_key", "DEEPGRAM_API_KEY")
    v.BindEnv("deepgram.agent_url", "DEEPGRAM_AGENT_URL")
    v.BindEnv("deepgram.models_url", "DEEPGRAM_MODELS_URL")

    v.BindEnv("agent.voice_model", "AGENT_VOICE_MODEL")
    v.BindEnv("agent.greeting", "AGENT_GREETING")
    v.BindEnv("agent.prompt", "AGENT_PROMPT")
    v.BindEnv("agent.user_sample_rate", "USER_AUDIO_SAMPLE_RATE")
    v.BindEnv("agent.agent_sample_rate", "AGENT_AUDIO_SAMPLE_RATE")

    v.BindEnv("rag.openai_api_key", "OPENAI_API_KEY")
    v.BindEnv("rag.docs_path", "RAG_DOCS_PATH")
    v.BindEnv("rag.cache_dir", "RAG_CACHE_DIR")
    v.BindEnv("rag.chunk_size", "RAG_CHUNK_SIZE")
    v.BindEnv("rag.chunk_overlap", "RAG_CHUNK_OVERLAP")

    var c Config
    c.Server.Port = toString(v.Get("server.port"))
    c.Server.LogLevel = v.GetString("server.log_level")

    c.Deepgram.APIKey = v.GetString("deepgram.api_key")
    c.Deepgram.AgentURL = v.GetString("deepgram.agent_url")
    c.Deepgram.ModelsURL = v.GetString("deepgram.models_url")

    c.Agent.VoiceModel = v.GetString("agent.voice_model")
    c.Agent.Greeting = v.GetString("agent.greeting")
    c.Agent.Prompt = v.GetString("agent.prompt")
    c.Agent.UserSampleRate = v.GetInt("agent.user_sample_rate")
    c.Agent.AgentSampleRate = v.GetInt("agent.agent_sample_rate")

    c.RAG.OpenAIAPIKey = v.GetString("rag.openai_api_key")
    c.RAG.DocsPath = v.GetString("rag.docs_path")
    c.RAG.CacheDir = v.GetString("rag.cache_dir")
    c.RAG.ChunkSize = v.GetInt("rag.chunk_size")
    c.RAG.ChunkOverlap = v.GetInt("rag.chunk_overlap")

    log.Printf("config loaded: port=%s voice=%s docs=%s", c.Server.Port, c.Agent.VoiceModel, c.RAG.DocsPath)
    return c
}

const defaultPrompt = "You are a helpful voice assistant answering questions about a document collection. " +
    "Always call retrieve_context before answering a user question, and keep spoken answers short."

func toString(v any) string { return fmt.Sprint(v) }
