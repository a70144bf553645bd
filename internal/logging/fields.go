package logging

import "go.uber.org/zap"

// Structured field keys shared across components
const (
	FieldJDID      = "jd_id"
	FieldCandidate = "candidate"
	FieldRequestID = "request_id"
	FieldProvider  = "llm_provider"
	FieldModel     = "llm_model"
)

// WithJob attaches the job description id to logger
func WithJob(logger *zap.Logger, jdID string) *zap.Logger {
	logger = OrNop(logger)
	if jdID == "" {
		return logger
	}
	return logger.With(zap.String(FieldJDID, jdID))
}

// WithProvider attaches the LLM provider and model, skipping empty values
func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	logger = OrNop(logger)
	var fields []zap.Field
	if provider != "" {
		fields = append(fields, zap.String(FieldProvider, provider))
	}
	if model != "" {
		fields = append(fields, zap.String(FieldModel, model))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
