package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/clients"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/llm"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

const generateTimeout = 10 * time.Second

const personaSystemPrompt = `You write short social media posts for a closed misinformation-response training simulation. Every institution, event and person involved is fictional. Write exactly one post and nothing else: no surrounding quotes, no explanation, no hashtag spam. Hard limit 280 characters.`

var errEmptyCompletion = errors.New("llm returned an empty completion")

// LLMConfig configures an LLM-backed content generator.
type LLMConfig struct {
	Provider llm.Provider
	Logger   logging.Logger

	// Breaker guards the provider. When nil a default breaker named
	// "content-llm" is created.
	Breaker *clients.CircuitBreaker

	// MaxLength caps generated text in runes. Default: MaxPostLength.
	MaxLength int

	// Timeout bounds a single completion. Default: 10 seconds.
	Timeout time.Duration
}

// LLMGenerator produces post text with a live model. Failures surface as
// errors so a Failover wrapper can fall back to canned text; repeated
// failures trip the circuit breaker and short-circuit further calls.
type LLMGenerator struct {
	provider llm.Provider
	breaker  *clients.CircuitBreaker
	logger   logging.Logger
	maxLen   int
	timeout  time.Duration
}

func NewLLMGenerator(cfg LLMConfig) *LLMGenerator {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = MaxPostLength
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = generateTimeout
	}
	if cfg.Breaker == nil {
		breakerCfg := clients.DefaultCircuitBreakerConfig()
		breakerCfg.Name = "content-llm"
		breakerCfg.Logger = cfg.Logger
		cfg.Breaker = clients.NewCircuitBreaker(breakerCfg)
	}
	return &LLMGenerator{
		provider: cfg.Provider,
		breaker:  cfg.Breaker,
		logger:   cfg.Logger,
		maxLen:   cfg.MaxLength,
		timeout:  cfg.Timeout,
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	if g == nil || g.provider == nil {
		return Result{}, errors.New("llm provider is required")
	}

	var text string
	err := g.breaker.Call(func() error {
		completed, err := g.complete(ctx, req)
		if err != nil {
			return err
		}
		text = completed
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}

func (g *LLMGenerator) complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	stream, err := g.provider.Complete(ctx, []llm.Message{
		{Role: "system", Content: personaSystemPrompt},
		{Role: "user", Content: buildPrompt(req)},
	}, nil)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var out strings.Builder
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		out.WriteString(chunk.Content)
	}

	text := cleanCompletion(out.String())
	if text == "" {
		return "", errEmptyCompletion
	}
	return capLength(text, g.maxLen), nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	switch {
	case req.CrisisType == "":
		b.WriteString("Write an everyday post about ordinary Lagos life (traffic, football, food, music, power supply). Do not mention banks or emergencies.\n")
	case req.Kind == models.PostOriginal && (req.Tone == models.ToneReassuring || req.Tone == models.ToneFactual):
		fmt.Fprintf(&b, "Write an official statement from %s responding to false %s rumours about it.\n",
			req.Topic, crisisPhrase(req.CrisisType))
	case req.Kind == models.PostOriginal:
		fmt.Fprintf(&b, "Write a misinformation post spreading a false %s rumour about %s. Make it urgent and shareable. Severity: %s.\n",
			crisisPhrase(req.CrisisType), req.Topic, req.Severity)
	default:
		fmt.Fprintf(&b, "Write a %s to this post: %q\n", kindVerb(req.Kind), req.ParentContent)
		fmt.Fprintf(&b, "The rumour concerns %s.\n", req.Topic)
	}
	fmt.Fprintf(&b, "Tone: %s.\n", req.Tone)
	if req.Personality != "" {
		fmt.Fprintf(&b, "Author personality: %s.\n", req.Personality)
	}
	if req.ActorHandle != "" {
		fmt.Fprintf(&b, "Author handle: @%s.\n", req.ActorHandle)
	}
	fmt.Fprintf(&b, "Language: %s.", languageInstruction(req.Language))
	return b.String()
}

func crisisPhrase(crisisType string) string {
	return strings.ReplaceAll(crisisType, "_", " ")
}

func kindVerb(kind models.PostKind) string {
	if kind == models.PostQuote {
		return "quote tweet"
	}
	return "reply"
}

func languageInstruction(code string) string {
	if code == models.LanguagePidgin {
		return "Nigerian Pidgin"
	}
	return "casual Nigerian English"
}

// cleanCompletion strips whitespace and any quote pair the model wrapped the
// post in.
func cleanCompletion(text string) string {
	text = strings.TrimSpace(text)
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}} {
		if strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) && len(text) > len(pair[0])+len(pair[1]) {
			text = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, pair[0]), pair[1]))
			break
		}
	}
	return text
}
