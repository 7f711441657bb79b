package main

import (
	"context"
	"fmt"

	protected "github.com/podhmo/go-protected"
	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/match"
	"github.com/podhmo/go-protected/metadata"
	"github.com/podhmo/go-protected/template"
	"github.com/spf13/cobra"
)

func newResolveCmd(opts *options) *cobra.Command {
	var (
		kind   string
		render bool
	)
	cmd := &cobra.Command{
		Use:   "resolve TYPE MEMBER [ARG...]",
		Short: "Resolve a member and print its invocation template",
		Long: "Resolve a member and print its invocation template.\n" +
			"\n" +
			"Each ARG is a Go expression: a literal, nil, arithmetic over constants, a conversion\n" +
			"such as int64(3), a member of the instance x such as x.Count, or a matcher such as\n" +
			"It.IsAny[int]() or It.Is(func(v int) bool { return v > 0 }).",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := opts.logger()
			table, err := loadTable(ctx, opts, logger)
			if err != nil {
				return err
			}
			m, err := protected.New(table, args[0], protected.WithLogger(logger))
			if err != nil {
				return err
			}
			tmpl, err := resolve(ctx, m, table, kind, args[1], args[2:])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\t%s\t%s\n", tmpl.Kind(), tmpl, tmpl.Result())
			if render {
				code, err := template.Render(tmpl)
				if err != nil {
					return fmt.Errorf("render: %w", err)
				}
				fmt.Fprintln(out, code)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "call", "setup shape: call, value, get or set")
	cmd.Flags().BoolVar(&render, "render", false, "also print the template as Go source")
	return cmd
}

func resolve(ctx context.Context, m *protected.Mock, table *metadata.Table, kind, name string, srcs []string) (*template.Template, error) {
	if (kind == "get" || kind == "set") && len(srcs) > 0 {
		return nil, fmt.Errorf("--kind=%s takes no arguments", kind)
	}
	args, err := parseArgs(table, m.Type(), srcs)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "call":
		return m.VoidCall(ctx, name, args...)
	case "value":
		typed, err := protected.ValueCall[any](ctx, m, name, args...)
		if err != nil {
			return nil, err
		}
		return typed.Template, nil
	case "get":
		typed, err := protected.PropertyGet[any](ctx, m, name)
		if err != nil {
			return nil, err
		}
		return typed.Template, nil
	case "set":
		typed, err := protected.PropertySet[any](ctx, m, name)
		if err != nil {
			return nil, err
		}
		return typed.Template, nil
	default:
		return nil, fmt.Errorf("unknown kind %q, want call, value, get or set", kind)
	}
}

// parseArgs parses each source as an argument expression over the instance x.
func parseArgs(table *metadata.Table, t *metadata.TypeInfo, srcs []string) ([]any, error) {
	members := func(instance *expr.Instance, name string) (metadata.Member, error) {
		return findMember(table, t, name)
	}
	args := make([]any, len(srcs))
	for i, src := range srcs {
		e, err := expr.Parse(src,
			expr.WithInstance("x", t.Ref()),
			expr.WithCallResolver(match.Resolve),
			expr.WithMemberResolver(members),
		)
		if err != nil {
			return nil, fmt.Errorf("argument %d %q: %w", i+1, src, err)
		}
		args[i] = e
	}
	return args, nil
}

// findMember looks up a property, field or event named name on t and its
// base types.
func findMember(table *metadata.Table, t *metadata.TypeInfo, name string) (metadata.Member, error) {
	for _, cur := range table.Hierarchy(t) {
		if p := cur.DeclaredProperty(name); p != nil {
			return p, nil
		}
		for _, f := range cur.Fields {
			if f.Name == name {
				return f, nil
			}
		}
		for _, e := range cur.Events {
			if e.Name == name {
				return e, nil
			}
		}
	}
	return nil, fmt.Errorf("type %s has no field, property or event named %q", t.FullName(), name)
}
