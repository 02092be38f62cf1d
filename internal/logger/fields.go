package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldUsername  = "username"
	FieldTask      = "ai_task"
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldRequestID = "request_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the pairs into zap fields, skipping entries with an empty key or value.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// InferenceFields describes one model call.
func InferenceFields(task, provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldTask, Value: task},
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithInference attaches the inference fields to logger.
func WithInference(logger *zap.Logger, task, provider, model string) *zap.Logger {
	return WithFields(logger, InferenceFields(task, provider, model)...)
}

// WithUsername scopes logger to one candidate.
func WithUsername(logger *zap.Logger, username string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldUsername, Value: username})...)
}
