// Package rewrite turns written chapter text into conversational narration
// using a chat-completion service. Chapters that exceed the chunk size are
// split by the chunk package and rewritten strictly in order, each chunk
// carrying the previous chunk's rewritten output as conversational context
// so narrative continuity survives chunk boundaries.
package rewrite

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tetsuyaohira/tech-talk-cast/internal/apierr"
	"github.com/tetsuyaohira/tech-talk-cast/internal/chunk"
	"github.com/tetsuyaohira/tech-talk-cast/internal/template"
)

// Rewriter transforms chapter text into narration text using a style.
type Rewriter interface {
	// Rewrite returns the full narration text for one chapter.
	// A failure on any chunk aborts the chapter: no partial output.
	Rewrite(ctx context.Context, chapterText string, style template.Name) (string, error)
}

// chatCompleter is an internal interface for chat completion.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance check.
var _ Rewriter = (*ChatRewriter)(nil)

// Default configuration values.
const (
	defaultModel           = "gpt-4o-mini"
	defaultTemperature     = float32(0.7)
	defaultMaxOutputTokens = 4096

	// Retry configuration: chat completions are long-latency calls.
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// continuationPrompt is appended to the style prompt for every chunk after
// the first. The previous chunk's rewritten output rides along as an
// assistant message, so the model continues its own narration.
const continuationPrompt = `

This chapter is long and is being rewritten in parts. The assistant message
above is your narration of the previous part. Continue naturally from it:
- pick up mid-flow, with no new introduction
- back-references like "as I mentioned" are fine
- do not restate content already narrated`

// overlapNote labels the raw-text overlap carried across a chunk boundary.
// It is context only; the model must not narrate it twice.
const overlapNote = "(end of previous part, for context only — do not narrate again)"

// ChatRewriter rewrites chapters through an OpenAI-compatible chat API.
// It retries transient errors with exponential backoff.
type ChatRewriter struct {
	client          chatCompleter
	model           string
	temperature     float32
	maxOutputTokens int
	maxChunkSize    int
	maxRetries      int
	baseDelay       time.Duration
	maxDelay        time.Duration
	onProgress      func(current, total int)
}

// Option configures a ChatRewriter.
type Option func(*ChatRewriter)

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(r *ChatRewriter) {
		if model != "" {
			r.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(r *ChatRewriter) {
		r.temperature = t
	}
}

// WithMaxOutputTokens sets the completion token budget per chunk.
func WithMaxOutputTokens(n int) Option {
	return func(r *ChatRewriter) {
		if n > 0 {
			r.maxOutputTokens = n
		}
	}
}

// WithMaxChunkSize sets the chapter size above which chunking kicks in.
func WithMaxChunkSize(n int) Option {
	return func(r *ChatRewriter) {
		if n > 0 {
			r.maxChunkSize = n
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts per chunk.
func WithMaxRetries(n int) Option {
	return func(r *ChatRewriter) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(r *ChatRewriter) {
		if base > 0 {
			r.baseDelay = base
		}
		if max > 0 {
			r.maxDelay = max
		}
	}
}

// WithProgress sets a per-chunk progress callback.
func WithProgress(fn func(current, total int)) Option {
	return func(r *ChatRewriter) {
		r.onProgress = fn
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) Option {
	return func(r *ChatRewriter) {
		r.client = cc
	}
}

// NewChatRewriter creates a ChatRewriter with the given client.
// Use options to customize model, chunking, and retry behavior.
func NewChatRewriter(client *openai.Client, opts ...Option) *ChatRewriter {
	r := &ChatRewriter{
		client:          client,
		model:           defaultModel,
		temperature:     defaultTemperature,
		maxOutputTokens: defaultMaxOutputTokens,
		maxChunkSize:    chunk.DefaultMaxSize,
		maxRetries:      defaultMaxRetries,
		baseDelay:       defaultBaseDelay,
		maxDelay:        defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite transforms one chapter into narration text.
//
// Short chapters go through in a single call with no prior context. Long
// chapters are split and folded strictly in order: chunk 0 is rewritten with
// empty context, chunk i>0 with chunk i-1's rewritten output as context.
// The result is the ordered concatenation of chunk outputs joined by a
// paragraph break. Any chunk failure aborts the whole chapter.
func (r *ChatRewriter) Rewrite(ctx context.Context, chapterText string, style template.Name) (string, error) {
	if strings.TrimSpace(chapterText) == "" {
		return "", fmt.Errorf("empty chapter text: %w", ErrRewriteFailed)
	}

	if len(chapterText) <= r.maxChunkSize {
		out, err := r.transformChunk(ctx, style.Prompt(), "", chapterText)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRewriteFailed, err)
		}
		return out, nil
	}

	chunks := chunk.Split(chapterText, r.maxChunkSize)
	outputs := make([]string, 0, len(chunks))
	prevOutput := ""

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrRewriteFailed, err)
		}
		if r.onProgress != nil {
			r.onProgress(i+1, len(chunks))
		}

		prompt := style.Prompt()
		if prevOutput != "" {
			prompt += continuationPrompt
		}

		out, err := r.transformChunk(ctx, prompt, prevOutput, chunkInput(c))
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w: %w", i+1, len(chunks), ErrRewriteFailed, err)
		}
		outputs = append(outputs, out)
		prevOutput = out
	}

	return strings.Join(outputs, "\n\n"), nil
}

// chunkInput builds the user message for one chunk, prefixing the raw-text
// overlap window when present so boundary context is never lost.
func chunkInput(c chunk.Chunk) string {
	if c.OverlapPrefix == "" {
		return c.Text
	}
	return fmt.Sprintf("%s\n...%s\n\n%s", overlapNote, c.OverlapPrefix, c.Text)
}

// transformChunk executes one chat completion with retry. priorOutput, when
// non-empty, is supplied as an assistant message so the model treats it as
// its own previous narration.
func (r *ChatRewriter) transformChunk(ctx context.Context, systemPrompt, priorOutput, input string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if priorOutput != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: priorOutput,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: input,
	})

	req := openai.ChatCompletionRequest{
		Model:               r.model,
		MaxCompletionTokens: r.maxOutputTokens,
		Messages:            messages,
		Temperature:         r.temperature,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: r.maxRetries,
		BaseDelay:  r.baseDelay,
		MaxDelay:   r.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := r.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classifyError(err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	}, isRetryable)
}
