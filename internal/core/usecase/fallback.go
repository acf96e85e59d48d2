package usecase

import (
	"fmt"
	"log/slog"
)

// withFallback runs fn and substitutes fallback when fn returns an error or
// panics. Every absorbed failure is logged under the given operation name.
// The second result reports whether fn succeeded.
func withFallback[T any](logger *slog.Logger, operation string, fallback T, fn func() (T, error)) (result T, ok bool) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("classification_fallback",
				"operation", operation,
				"panic", fmt.Sprint(r),
			)
			result, ok = fallback, false
		}
	}()

	value, err := fn()
	if err != nil {
		logger.Error("classification_fallback",
			"operation", operation,
			"error", err,
		)
		return fallback, false
	}
	return value, true
}
