package coach

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DandaAkhilReddy/ReddyFitV2/config"
	"github.com/DandaAkhilReddy/ReddyFitV2/internal/metrics"
	"github.com/DandaAkhilReddy/ReddyFitV2/llm"
	"github.com/DandaAkhilReddy/ReddyFitV2/llm/gemini"
	"github.com/DandaAkhilReddy/ReddyFitV2/llm/retry"
)

// ProgressFunc reports retry progress to callers of long-running
// operations: (attemptsFailedSoFar, maxAttempts).
type ProgressFunc func(failed, max int)

// failureMode selects what happens to a fatal classification: critical-path
// operations propagate it, best-effort ones substitute a sentinel.
type failureMode int

const (
	propagateFailure failureMode = iota
	suppressFailure
)

// Coach is the inference-operation facade. It is an explicitly constructed
// value, not ambient global state, so tests substitute a fake Generator.
// Each call owns its retry state; concurrent calls share nothing mutable.
type Coach struct {
	gen     llm.Generator
	models  ModelConfig
	policy  *retry.Policy
	metrics *metrics.Collector
	cache   *LookupCache
	logger  *zap.Logger
}

// Option configures a Coach.
type Option func(*Coach)

// WithModels overrides the model pair.
func WithModels(models ModelConfig) Option {
	return func(c *Coach) { c.models = models }
}

// WithRetryPolicy overrides the base retry policy. OnRetry set here is
// ignored; progress callbacks are supplied per call.
func WithRetryPolicy(policy *retry.Policy) Option {
	return func(c *Coach) { c.policy = policy }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Coach) { c.metrics = collector }
}

// WithLookupCache attaches a video-lookup cache.
func WithLookupCache(cache *LookupCache) Option {
	return func(c *Coach) { c.cache = cache }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coach) { c.logger = logger }
}

// New creates a Coach over the given transport.
func New(gen llm.Generator, opts ...Option) *Coach {
	c := &Coach{
		gen:    gen,
		models: DefaultModels(),
		policy: retry.DefaultPolicy(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig wires a Coach from loaded configuration: Gemini transport,
// retry policy and, when enabled, the Redis lookup-cache tier.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Coach {
	if logger == nil {
		logger = zap.NewNop()
	}

	gen := gemini.New(gemini.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	}, logger.Named("gemini"))

	opts := []Option{
		WithLogger(logger.Named("coach")),
		WithModels(ModelConfig{Full: cfg.LLM.FullModel, Flash: cfg.LLM.FlashModel}),
		WithRetryPolicy(&retry.Policy{
			MaxAttempts:  cfg.LLM.MaxAttempts,
			InitialDelay: cfg.LLM.InitialBackoff,
			Multiplier:   2.0,
		}),
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts = append(opts, WithLookupCache(
			NewLookupCache(rdb, 256, 24*time.Hour, logger.Named("cache"))))
	}

	return New(gen, opts...)
}

// generate runs the retry-wrapped transport call for one operation. A
// suppressed failure returns (nil, nil); callers substitute their sentinel.
func (c *Coach) generate(ctx context.Context, op string, mode failureMode, req *llm.GenerateRequest, onProgress ProgressFunc) (*llm.GenerateResponse, error) {
	policy := *c.policy
	policy.OnRetry = func(failed, max int) {
		c.metrics.IncRetry(op)
		if onProgress != nil {
			onProgress(failed, max)
		}
	}
	retryer := retry.New(&policy, c.logger)

	start := time.Now()
	resp, err := retry.DoTyped(retryer, ctx, func() (*llm.GenerateResponse, error) {
		return c.gen.Generate(ctx, req)
	})
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.ObserveRequest(op, string(llm.KindOf(err)), elapsed)
		if mode == suppressFailure {
			c.logger.Debug("best-effort operation failed",
				zap.String("operation", op),
				zap.Error(err),
			)
			return nil, nil
		}
		return nil, err
	}

	c.metrics.ObserveRequest(op, "ok", elapsed)
	return resp, nil
}

// GenerateWorkoutPlan produces a structured multi-day plan for the given
// goals. onProgress, if non-nil, is invoked before each backoff wait.
func (c *Coach) GenerateWorkoutPlan(ctx context.Context, goals string, onProgress ProgressFunc) (*WorkoutPlan, error) {
	prompt := fmt.Sprintf(
		"Create a weekly workout plan for these goals: %s. "+
			"Order the days as they should be performed.", goals)

	resp, err := c.generate(ctx, "workout_plan", propagateFailure, &llm.GenerateRequest{
		Model:          c.models.Full,
		Contents:       []llm.Content{llm.UserContent(llm.TextPart(prompt))},
		ResponseSchema: workoutPlanSchema(),
	}, onProgress)
	if err != nil {
		return nil, err
	}
	return extractWorkoutPlan(resp)
}

// AnalyzeWorkoutVideo analyzes a recorded workout video and returns the
// model's free-text assessment.
func (c *Coach) AnalyzeWorkoutVideo(ctx context.Context, video llm.Blob, prompt string) (string, error) {
	if prompt == "" {
		prompt = "Analyze this workout video. Point out form issues and suggest corrections."
	}
	resp, err := c.generate(ctx, "video_analysis", propagateFailure, &llm.GenerateRequest{
		Model: c.models.Full,
		Contents: []llm.Content{llm.UserContent(
			llm.BlobPart(video.MIMEType, video.Data),
			llm.TextPart(prompt),
		)},
	}, nil)
	if err != nil {
		return "", err
	}
	return llm.ResponseText(resp)
}

// AnalyzePoseForm assesses exercise form from a sequence of still frames,
// in capture order.
func (c *Coach) AnalyzePoseForm(ctx context.Context, frames []llm.Blob, exercise string) (string, error) {
	parts := make([]llm.Part, 0, len(frames)+1)
	for _, frame := range frames {
		parts = append(parts, llm.BlobPart(frame.MIMEType, frame.Data))
	}
	parts = append(parts, llm.TextPart(fmt.Sprintf(
		"These frames show someone performing %s. Assess their form and list corrections.", exercise)))

	resp, err := c.generate(ctx, "pose_analysis", propagateFailure, &llm.GenerateRequest{
		Model:    c.models.Full,
		Contents: []llm.Content{llm.UserContent(parts...)},
	}, nil)
	if err != nil {
		return "", err
	}
	return llm.ResponseText(resp)
}

// RecognizeFood identifies the foods in a meal photo.
func (c *Coach) RecognizeFood(ctx context.Context, image llm.Blob) ([]FoodItem, error) {
	resp, err := c.generate(ctx, "food_recognition", propagateFailure, &llm.GenerateRequest{
		Model: c.models.Full,
		Contents: []llm.Content{llm.UserContent(
			llm.BlobPart(image.MIMEType, image.Data),
			llm.TextPart("List every food item visible in this photo with estimated quantity and calories."),
		)},
		ResponseSchema: foodListSchema(),
	}, nil)
	if err != nil {
		return nil, err
	}
	return extractFoodItems(resp)
}

// AnalyzeNutrition computes the nutrition breakdown of a described meal.
func (c *Coach) AnalyzeNutrition(ctx context.Context, description string) (*NutritionInfo, error) {
	resp, err := c.generate(ctx, "nutrition_analysis", propagateFailure, &llm.GenerateRequest{
		Model: c.models.Full,
		Contents: []llm.Content{llm.UserContent(llm.TextPart(fmt.Sprintf(
			"Give the nutrition breakdown for this meal: %s", description)))},
		ResponseSchema: nutritionSchema(),
	}, nil)
	if err != nil {
		return nil, err
	}
	return extractNutrition(resp)
}

// TranscribeAudio transcribes a voice note to text.
func (c *Coach) TranscribeAudio(ctx context.Context, audio llm.Blob) (string, error) {
	resp, err := c.generate(ctx, "transcription", propagateFailure, &llm.GenerateRequest{
		Model: c.models.Full,
		Contents: []llm.Content{llm.UserContent(
			llm.BlobPart(audio.MIMEType, audio.Data),
			llm.TextPart("Transcribe this audio verbatim."),
		)},
	}, nil)
	if err != nil {
		return "", err
	}
	return llm.ResponseText(resp)
}

// AskGrounded answers a fitness question with web-search grounding and
// returns the answer text plus its source citations.
func (c *Coach) AskGrounded(ctx context.Context, question string) (*GroundedAnswer, error) {
	resp, err := c.generate(ctx, "grounded_answer", propagateFailure, &llm.GenerateRequest{
		Model:        c.models.Full,
		Contents:     []llm.Content{llm.UserContent(llm.TextPart(question))},
		EnableSearch: true,
	}, nil)
	if err != nil {
		return nil, err
	}
	return extractGroundedAnswer(resp)
}

// EditImage applies an instruction to an image (e.g. progress-photo
// annotation) and returns the edited image bytes. A reply containing only
// text parts fails with llm.ErrNoImage.
func (c *Coach) EditImage(ctx context.Context, image llm.Blob, instruction string) (*llm.Blob, error) {
	resp, err := c.generate(ctx, "image_edit", propagateFailure, &llm.GenerateRequest{
		Model: c.models.Full,
		Contents: []llm.Content{llm.UserContent(
			llm.BlobPart(image.MIMEType, image.Data),
			llm.TextPart(instruction),
		)},
	}, nil)
	if err != nil {
		return nil, err
	}
	return llm.ResponseInlineData(resp)
}

var videoURLPattern = regexp.MustCompile(`https?://(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/)[\w-]+`)

// FindExerciseVideo resolves a reference video URL for an exercise name.
// Best-effort: any failure, and a reply without a recognizable video link,
// both return the empty string, never an error.
func (c *Coach) FindExerciseVideo(ctx context.Context, exercise string) string {
	if url, ok := c.cache.Get(ctx, exercise); ok {
		c.metrics.CacheHit()
		return url
	}
	c.metrics.CacheMiss()

	resp, err := c.generate(ctx, "video_lookup", suppressFailure, &llm.GenerateRequest{
		Model: c.models.Flash,
		Contents: []llm.Content{llm.UserContent(llm.TextPart(fmt.Sprintf(
			"Reply with a YouTube watch URL for a tutorial of the exercise %q.", exercise)))},
	}, nil)
	if err != nil || resp == nil {
		return ""
	}

	text, err := llm.ResponseText(resp)
	if err != nil {
		return ""
	}
	url := videoURLPattern.FindString(text)
	if url != "" {
		c.cache.Set(ctx, exercise, url)
	}
	return url
}

// QuickReply produces a short low-latency reply on the flash model.
// Best-effort: failures yield the empty string.
func (c *Coach) QuickReply(ctx context.Context, prompt string) string {
	resp, err := c.generate(ctx, "quick_reply", suppressFailure, &llm.GenerateRequest{
		Model:           c.models.Flash,
		Contents:        []llm.Content{llm.UserContent(llm.TextPart(prompt))},
		MaxOutputTokens: 256,
	}, nil)
	if err != nil || resp == nil {
		return ""
	}
	text, err := llm.ResponseText(resp)
	if err != nil {
		return ""
	}
	return text
}
