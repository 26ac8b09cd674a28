package logging

import (
	"context"
	"time"
)

// TrackStage runs fn as a named pipeline stage. The stage name is added to
// the context passed to fn, and completion or failure is logged with its
// duration. Errors from fn are returned unchanged.
func TrackStage(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx = WithStage(ctx, stage)
	logger := FromContext(ctx).WithContext(ctx)

	logger.Debug("Stage started")

	err := fn(ctx)

	duration := time.Since(start)
	k1, v1 := Duration("duration", duration)
	k2, v2 := Int("duration_ms", int(duration.Milliseconds()))
	fields := []interface{}{k1, v1, k2, v2}

	if err != nil {
		kErr, vErr := Err(err)
		fields = append(fields, kErr, vErr)
		logger.Error("Stage failed", fields...)
		return err
	}

	logger.Info("Stage completed", fields...)
	return nil
}
