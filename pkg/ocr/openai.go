package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	visionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bunkwise",
		Subsystem: "ocr",
		Name:      "vision_request_duration_seconds",
		Help:      "Duration of vision model extraction requests",
	}, []string{"model"})

	visionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bunkwise",
		Subsystem: "ocr",
		Name:      "vision_request_failures_total",
		Help:      "Number of failed vision model extraction requests",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the vision extractor.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Logger    zerolog.Logger
}

// OpenAIExtractor reads attendance tables with an OpenAI vision model.
type OpenAIExtractor struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIExtractor builds a new extractor using the provided configuration.
func NewOpenAIExtractor(cfg OpenAIConfig) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/bunkwise-api/pkg/ocr/openai"),
		logger: logger.With().Str("component", "ocr_openai").Logger(),
	}, nil
}

// Name identifies the provider in metrics.
func (e *OpenAIExtractor) Name() string {
	return "openai"
}

// Extract sends the screenshot to the vision model and parses the JSON it returns.
func (e *OpenAIExtractor) Extract(parent context.Context, image Image) (Extraction, error) {
	ctx, span := e.tracer.Start(parent, "openai.extract", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Int("image.bytes", len(image.Data)),
	))
	defer span.End()

	contentType := image.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image.Data))

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractorSystemPrompt(),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Extract every subject row from this attendance portal screenshot."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailHigh}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := e.client.CreateChatCompletion(ctx, request)
	visionDuration.WithLabelValues(e.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return Extraction{}, e.fail(span, fmt.Errorf("openai extract: %w", err))
	}

	if len(resp.Choices) == 0 {
		return Extraction{}, e.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	extraction, err := parseExtractionResponse(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return Extraction{}, e.fail(span, err)
	}

	e.logger.Debug().Int("subjects", len(extraction.Subjects)).Int("total_tokens", resp.Usage.TotalTokens).Msg("screenshot extracted")
	span.SetAttributes(attribute.Int("ocr.subjects", len(extraction.Subjects)))
	return extraction, nil
}

func (e *OpenAIExtractor) fail(span trace.Span, err error) error {
	visionFailures.WithLabelValues(e.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func extractorSystemPrompt() string {
	return "You read student attendance portal screenshots. Respond with a JSON object containing extracted_text (the raw " +
		"text you can read) and subjects, an array of objects with name, total_classes, attended_classes and percentage. " +
		"Use integers for class counts and omit rows you cannot read."
}

func parseExtractionResponse(content string) (Extraction, error) {
	var data Extraction
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return Extraction{}, fmt.Errorf("parse extraction json: %w", err)
	}

	subjects := make([]Subject, 0, len(data.Subjects))
	for _, subject := range data.Subjects {
		if strings.TrimSpace(subject.Name) == "" || subject.TotalClasses <= 0 || subject.AttendedClasses < 0 {
			continue
		}
		subjects = append(subjects, finalise(subject, subject.Percentage > 0))
	}

	if len(subjects) == 0 && data.Text != "" {
		subjects = ParseText(data.Text)
	}

	data.Subjects = subjects
	return data, nil
}
