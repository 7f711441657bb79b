// Package resolver finds the non-public member a caller intends to intercept
// from its name and argument list, and checks that it can be intercepted.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/podhmo/go-protected/evaluator"
	"github.com/podhmo/go-protected/metadata"
)

// Resolver provides argument type inference and member resolution over a
// metadata provider. It holds no mutable state and is safe for concurrent use
// when the provider is.
type Resolver struct {
	provider  metadata.Provider
	evaluator *evaluator.Evaluator
	logger    *slog.Logger
}

// New creates a new Resolver. A nil evaluator or logger is replaced by a
// default one.
func New(provider metadata.Provider, ev *evaluator.Evaluator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if ev == nil {
		ev = evaluator.New(logger)
	}
	return &Resolver{provider: provider, evaluator: ev, logger: logger}
}

// Provider returns the metadata provider used for lookups.
func (r *Resolver) Provider() metadata.Provider { return r.provider }

// Evaluator returns the partial evaluator used for argument inference.
func (r *Resolver) Evaluator() *evaluator.Evaluator { return r.evaluator }

// LookupType finds a type by full name.
func (r *Resolver) LookupType(fullName string) (*metadata.TypeInfo, error) {
	t, ok := r.provider.Lookup(fullName)
	if !ok {
		return nil, NewError(ErrTypeMissing, fullName, "")
	}
	return t, nil
}

func (r *Resolver) logc(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !r.logger.Enabled(ctx, level) {
		return
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		args = append([]any{slog.String("exec_pos", fmt.Sprintf("%s:%d", file, line))}, args...)
	}
	r.logger.Log(ctx, level, msg, args...)
}
