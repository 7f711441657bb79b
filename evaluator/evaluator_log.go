package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
)

// logc logs a message with the position of the calling evaluator code.
func (e *Evaluator) logc(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !e.logger.Enabled(ctx, level) {
		return
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		args = append([]any{slog.String("exec_pos", fmt.Sprintf("%s:%d", file, line))}, args...)
	}
	e.logger.Log(ctx, level, msg, args...)
}
