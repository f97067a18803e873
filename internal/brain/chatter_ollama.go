package brain

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
)

// replyMarkers are the role-delimiter and continuation markers the engine
// sometimes emits past the intended reply; the first occurrence of any one
// truncates the generated text.
var replyMarkers = []string{
	"<|endoftext|>",
	"<|im_end|>",
	"\nHuman:",
	"\nUSER:",
	"\nUser:",
	"\n### Human:",
	"\n### Instruction:",
}

// Config configures an OllamaChatter.
type Config struct {
	Host           string
	Model          string
	SystemPrompt   string
	MaxPromptChars int // character-budget stand-in for a token budget; see truncatePrompt
	MaxNewTokens   int
	StopOnNewline  bool
	Sampler        SamplerChain
}

// DefaultConfig uses a max_new_tokens of 96, tuned for terse voice
// replies rather than a general chat default of 128.
func DefaultConfig() Config {
	return Config{
		Host:           "http://localhost:11434",
		Model:          "gemma3:1b",
		SystemPrompt:   "You are Edna, a concise voice assistant. Answer in 1-2 sentences.",
		MaxPromptChars: 384 * 4, // 384 tokens at a rough 4 chars per token
		MaxNewTokens:   96,
		StopOnNewline:  true,
		Sampler:        DefaultSamplerChain(),
	}
}

// OllamaChatter talks to a local Ollama server. The context is conceptually
// re-created every turn — there is no conversational history threaded
// between calls, so each command is answered independent of prior turns.
type OllamaChatter struct {
	client *api.Client
	cfg    Config
	engine *EngineHandle

	// mu serializes access: the LLM engine is treated as not thread-safe,
	// guarded by a single exclusive mutex, even though the HTTP transport
	// underneath would already serialize per connection.
	mu sync.Mutex
}

// NewOllamaChatter builds a chatter bound to cfg, sharing engine for
// process-wide init/teardown accounting.
func NewOllamaChatter(cfg Config, engine *EngineHandle) (*OllamaChatter, error) {
	parsed, err := url.Parse(strings.TrimSuffix(cfg.Host, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host: %w", err)
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &OllamaChatter{
		client: api.NewClient(parsed, httpClient),
		cfg:    cfg,
		engine: engine,
	}, nil
}

// HealthCheck verifies the Ollama server is reachable.
func (c *OllamaChatter) HealthCheck(ctx context.Context) error {
	if err := c.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("cannot reach ollama: %w", err)
	}
	return nil
}

// Chat implements Chatter. Each call acquires the shared engine handle,
// builds a single-turn prompt, and releases the handle before returning —
// the context and sampler are conceptually recreated fresh every turn.
func (c *OllamaChatter) Chat(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.engine.Acquire(); err != nil {
		return "", fmt.Errorf("engine acquire: %w", err)
	}
	defer c.engine.Release()

	prompt := truncatePrompt(command, c.cfg.MaxPromptChars)

	messages := []api.Message{
		{Role: "system", Content: c.cfg.SystemPrompt},
		{Role: "user", Content: prompt},
	}

	options := map[string]any{
		"temperature": c.cfg.Sampler.Temperature,
		"top_k":       c.cfg.Sampler.TopK,
		"top_p":       c.cfg.Sampler.TopP,
		"seed":        c.cfg.Sampler.Seed,
		"num_predict": c.cfg.MaxNewTokens,
	}
	if c.cfg.StopOnNewline {
		options["stop"] = []string{"\n"}
	}

	stream := false
	var response api.ChatResponse
	err := c.client.Chat(ctx, &api.ChatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	return cleanReply(response.Message.Content), nil
}

// truncatePrompt keeps the tail of an over-long command, the way a native
// context window keeps the tail of an over-long prompt and re-prepends a
// beginning-of-sequence marker. There is no token boundary available over
// the HTTP API, so this truncates on a character budget instead.
func truncatePrompt(command string, maxChars int) string {
	if maxChars <= 0 || len(command) <= maxChars {
		return command
	}
	return command[len(command)-maxChars:]
}

// cleanReply trims the reply and truncates at the first occurrence of any
// role-delimiter marker.
func cleanReply(reply string) string {
	reply = strings.TrimSpace(reply)
	cut := len(reply)
	for _, marker := range replyMarkers {
		if idx := strings.Index(reply, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return strings.TrimSpace(reply[:cut])
}
