package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"gymmate-backend/internal/models"
)

const pulseSystemPrompt = `You are Pulse, the proprietary intelligence of the GymMate ecosystem.

CORE DIRECTIVES:
1. QUANTITATIVE PRECISION: When discussing calories or macros, provide clear estimates with assumptions.
2. PERSONALIZED COACHING: Be supportive and practical. Focus on habits, safety, and sustainable progress.
3. IDENTITY: You are Pulse. Never mention Google, Gemini, or being an AI model.`

// DefaultVisionPrompt is used when the caller sends no prompt or a blank one.
const DefaultVisionPrompt = "Analyze this image for fitness or nutrition insights. Be concise and specific."

type GeminiConfig struct {
	APIKey           string
	ChatModel        string
	VisionModel      string
	Timeout          time.Duration
	ConcurrentReqs   int
	HistoryMode      HistoryMode
	StructuredOutput bool
}

type GeminiService struct {
	client      *genai.Client
	chatModel   *genai.GenerativeModel
	visionModel *genai.GenerativeModel
	scanModel   *genai.GenerativeModel
	historyMode HistoryMode
	timeout     time.Duration
	rateChan    chan struct{} // Token bucket
	tracer      trace.Tracer
}

// NewGeminiService builds the shared client. A missing key is not an error here:
// every call then fails with ErrMissingCredential.
func NewGeminiService(ctx context.Context, cfg GeminiConfig) (*GeminiService, error) {
	if cfg.ConcurrentReqs < 1 {
		cfg.ConcurrentReqs = 1
	}
	if cfg.HistoryMode == "" {
		cfg.HistoryMode = HistoryFull
	}

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, cfg.ConcurrentReqs)
	for i := 0; i < cfg.ConcurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	s := &GeminiService{
		historyMode: cfg.HistoryMode,
		timeout:     cfg.Timeout,
		rateChan:    rateChan,
		tracer:      otel.Tracer("gymmate-backend/services"),
	}

	if cfg.APIKey == "" {
		slog.Warn("Gemini API key not configured; AI routes will answer CONFIG_ERROR")
		return s, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	s.client = client

	s.chatModel = client.GenerativeModel(cfg.ChatModel)
	s.chatModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(pulseSystemPrompt)},
	}

	s.visionModel = client.GenerativeModel(cfg.VisionModel)

	s.scanModel = client.GenerativeModel(cfg.VisionModel)
	s.scanModel.SetTemperature(0.2)
	if cfg.StructuredOutput {
		s.scanModel.ResponseMIMEType = "application/json"
		s.scanModel.ResponseSchema = nutritionSchema
	}

	return s, nil
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// Configured reports whether a credential was supplied.
func (s *GeminiService) Configured() bool {
	return s.client != nil
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// begin checks the credential, takes a rate slot and applies the call timeout.
// The returned func must be called once the backend call is over.
func (s *GeminiService) begin(ctx context.Context, span string) (context.Context, func(error), error) {
	if !s.Configured() {
		return ctx, nil, ErrMissingCredential
	}

	ctx, sp := s.tracer.Start(ctx, span)
	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}

	if err := s.acquireRate(ctx); err != nil {
		cancel()
		endSpan(sp, err)
		return ctx, nil, &BackendError{Op: "acquire", Err: err}
	}

	return ctx, func(err error) {
		s.releaseRate()
		cancel()
		endSpan(sp, err)
	}, nil
}

func endSpan(sp trace.Span, err error) {
	if err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, err.Error())
	}
	sp.End()
}

func (s *GeminiService) startChat(history []*genai.Content) *genai.ChatSession {
	cs := s.chatModel.StartChat()
	cs.History = history
	return cs
}

// Chat sends the last turn of messages and returns the full reply.
func (s *GeminiService) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	ctx, done, err := s.begin(ctx, "gemini.chat")
	if err != nil {
		return "", err
	}

	history, input := BuildChatHistory(messages, s.historyMode)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("pulse.history_turns", len(history)))

	resp, err := s.startChat(history).SendMessage(ctx, genai.Text(input))
	if err != nil {
		err = &BackendError{Op: "chat", Err: err}
		done(err)
		return "", err
	}
	done(nil)

	logFinishReasons(ctx, "chat", resp)
	return extractText(resp), nil
}

// ChatStream relays reply fragments to onChunk in backend order. Empty fragments
// are skipped. An error returned by onChunk stops the stream and is returned as is.
func (s *GeminiService) ChatStream(ctx context.Context, messages []models.ChatMessage, onChunk func(string) error) error {
	ctx, done, err := s.begin(ctx, "gemini.chat_stream")
	if err != nil {
		return err
	}

	history, input := BuildChatHistory(messages, s.historyMode)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("pulse.history_turns", len(history)))

	iter := s.startChat(history).SendMessageStream(ctx, genai.Text(input))
	chunks := 0
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			err = &BackendError{Op: "chat_stream", Err: err}
			done(err)
			return err
		}

		text := extractText(resp)
		if text == "" {
			continue
		}
		chunks++
		if err := onChunk(text); err != nil {
			done(err)
			return err
		}
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("pulse.chunks", chunks))
	done(nil)
	return nil
}

// AnalyzeImage runs one vision request. A blank prompt is replaced by DefaultVisionPrompt.
func (s *GeminiService) AnalyzeImage(ctx context.Context, img models.ImagePayload, prompt string) (string, error) {
	parts, err := imageParts(prompt, img)
	if err != nil {
		return "", err
	}

	ctx, done, err := s.begin(ctx, "gemini.analyze_image")
	if err != nil {
		return "", err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("image.mime_type", img.MIMEType))

	resp, err := s.visionModel.GenerateContent(ctx, parts...)
	if err != nil {
		err = &BackendError{Op: "analyze_image", Err: err}
		done(err)
		return "", err
	}
	done(nil)

	logFinishReasons(ctx, "analyze_image", resp)
	return extractText(resp), nil
}

// ScanFood asks for a NutritionRecord with the fixed food prompt.
func (s *GeminiService) ScanFood(ctx context.Context, img models.ImagePayload) (*models.NutritionRecord, error) {
	parts, err := imageParts(foodScanPrompt, img)
	if err != nil {
		return nil, err
	}

	ctx, done, err := s.begin(ctx, "gemini.scan_food")
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("image.mime_type", img.MIMEType))

	resp, err := s.scanModel.GenerateContent(ctx, parts...)
	if err != nil {
		err = &BackendError{Op: "scan_food", Err: err}
		done(err)
		return nil, err
	}

	rec, err := ParseNutrition(extractText(resp))
	done(err)
	return rec, err
}

// imageParts builds the [text, blob] part list for a vision call.
func imageParts(prompt string, img models.ImagePayload) ([]genai.Part, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultVisionPrompt
	}

	data, err := img.Bytes()
	if err != nil {
		return nil, &ValidationError{
			Message: "Invalid image data",
			Fields:  map[string]string{"base64Image": "must be valid base64"},
		}
	}
	if len(data) == 0 {
		return nil, &ValidationError{
			Message: "Missing base64Image",
			Fields:  map[string]string{"base64Image": "required"},
		}
	}

	return []genai.Part{
		genai.Text(prompt),
		genai.Blob{MIMEType: img.MIMEType, Data: data},
	}, nil
}

func logFinishReasons(ctx context.Context, op string, resp *genai.GenerateContentResponse) {
	if resp == nil {
		return
	}
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			slog.WarnContext(ctx, "gemini stopped early",
				"op", op, "candidate", i, "finish_reason", cand.FinishReason.String())
		}
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}
