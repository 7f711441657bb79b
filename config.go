package protected

import (
	"fmt"
	"log/slog"

	"github.com/podhmo/go-protected/evaluator"
)

// Config holds shared components used by every Mock created with it.
// Sharing a Config keeps the evaluator and the logger consistent when one
// tool sets up several mocks over the same metadata.
type Config struct {
	// Evaluator folds constant arguments. If nil, a new one is created
	// with Logger.
	Evaluator *evaluator.Evaluator

	// Logger is the shared logger for all components.
	Logger *slog.Logger
}

// Option is a function that configures a Mock.
type Option func(*Config) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithEvaluator sets the partial evaluator used to fold arguments.
func WithEvaluator(ev *evaluator.Evaluator) Option {
	return func(c *Config) error {
		c.Evaluator = ev
		return nil
	}
}

// WithConfig copies the components set in cfg.
func WithConfig(cfg *Config) Option {
	return func(c *Config) error {
		if cfg == nil {
			return fmt.Errorf("WithConfig: config is nil")
		}
		if cfg.Evaluator != nil {
			c.Evaluator = cfg.Evaluator
		}
		if cfg.Logger != nil {
			c.Logger = cfg.Logger
		}
		return nil
	}
}
