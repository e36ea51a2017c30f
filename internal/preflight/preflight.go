// Package preflight runs dependency checks before a batch touches any file.
package preflight

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Check is one independent dependency test.
type Check struct {
	Name     string
	Required bool // A failed required check blocks the run.

	// Run returns a short detail for display ("/usr/bin/ffmpeg (6.1.1)")
	// or an error describing what is missing.
	Run func(ctx context.Context) (detail string, err error)
}

// Result is the outcome of one Check.
type Result struct {
	Name     string
	Required bool
	Passed   bool
	Detail   string
	Err      error
}

// RunAll executes checks concurrently and returns results in check order.
// A failing check never cancels the others: every result is reported.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func run(ctx context.Context, c Check) (res Result) {
	res = Result{Name: c.Name, Required: c.Required}
	defer func() {
		if r := recover(); r != nil {
			res.Passed = false
			res.Err = fmt.Errorf("check %s panicked: %v", c.Name, r)
		}
	}()

	if c.Run == nil {
		res.Err = fmt.Errorf("check %s has no Run func", c.Name)
		return res
	}
	res.Detail, res.Err = c.Run(ctx)
	res.Passed = res.Err == nil
	return res
}

// Required returns the error of the first failed required check, or nil.
func Required(results []Result) error {
	for _, r := range results {
		if r.Required && !r.Passed {
			return r.Err
		}
	}
	return nil
}
