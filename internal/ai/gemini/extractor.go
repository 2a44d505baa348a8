package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-analyzer/internal/ai"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/utils"
)

const (
	defaultMaxLogLength = 200
	defaultImageMIME    = "image/jpeg"
)

type contentGenerator interface {
	Generate(ctx context.Context, parts ...*genai.Part) (string, error)
}

type resultSaver interface {
	Save(requestID string, v any) (string, error)
}

// Extractor implements ai.Extractor on top of a Gemini generator.
type Extractor struct {
	generator contentGenerator
	store     resultSaver
	logger    *zap.Logger
	maxLogLen int
	readFile  func(string) ([]byte, error)
}

var _ ai.Extractor = (*Extractor)(nil)

// NewExtractor builds an extractor. A nil store disables persistence.
func NewExtractor(generator contentGenerator, store resultSaver, log *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		store:     store,
		logger:    log,
		maxLogLen: maxLogLength,
		readFile:  os.ReadFile,
	}
}

func (e *Extractor) Extract(ctx context.Context, kind ai.PayloadKind, payload any, instruction string) ai.Result {
	requestID := ai.RequestIDFromContext(ctx)
	log := logger.WithFields(e.logger, logger.CallFields(requestID, string(kind))...)

	if !kind.Valid() {
		log.Warn("unsupported payload kind, model is not called")
		return ai.Failure("unsupported payload kind %q", kind)
	}

	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return ai.Failure("instruction must not be empty")
	}

	dataPart, err := e.payloadPart(kind, payload)
	if err != nil {
		log.Warn("preparing payload failed", zap.Error(err))
		return ai.Result{Error: err.Error()}
	}

	log.Debug("gemini generate content request",
		zap.Int("instruction_length", utf8.RuneCountInString(instruction)),
		zap.String("instruction_preview", utils.PreviewForLog(instruction, e.maxLogLen)),
	)

	raw, err := e.generator.Generate(ctx, &genai.Part{Text: instruction}, dataPart)
	if err != nil {
		log.Warn("gemini call failed", zap.Error(err))
		return ai.Result{Error: err.Error()}
	}

	log.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.PreviewForLog(raw, e.maxLogLen)),
	)

	value, err := parseJSON(raw)
	if err != nil {
		log.Warn("gemini response is not json", zap.String("response_preview", utils.PreviewForLog(raw, e.maxLogLen)))
		return ai.Failure(DecodeErrorMessage)
	}

	if e.store != nil {
		path, err := e.store.Save(requestID, value)
		if err != nil {
			log.Warn("saving result failed", zap.Error(err))
			return ai.Failure("save result: %v", err)
		}
		log.Debug("result saved", zap.String("path", path))
	}

	return ai.Result{Value: value}
}

func (e *Extractor) payloadPart(kind ai.PayloadKind, payload any) (*genai.Part, error) {
	switch kind {
	case ai.PayloadImage:
		path, ok := payload.(string)
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("image payload must be a non-empty file path, got %T", payload)
		}

		data, err := e.readFile(path)
		if err != nil {
			return nil, err
		}

		return &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: imageMIME(path)}}, nil
	default:
		text, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, err
		}
		return &genai.Part{Text: string(text)}, nil
	}
}

func imageMIME(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return defaultImageMIME
}
