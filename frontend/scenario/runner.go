package scenario

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/infer"
	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/cottand/jinfer/internal/log"
)

var logger = log.Section("scenario")

// Result is the outcome of one invocation of a scenario
type Result struct {
	Name       string
	Invocation *ast.Invocation
	Binding    *types.ParameterizedMethod
	Err        error
	// Mismatch describes how the outcome differs from the expectation, empty when it matches
	Mismatch string
}

func (r Result) OK() bool { return r.Mismatch == "" }

type Report struct {
	Results []Result
}

// Failed counts the invocations whose outcome differs from their expectation
func (r *Report) Failed() int {
	failed := 0
	for _, res := range r.Results {
		if !res.OK() {
			failed++
		}
	}
	return failed
}

// Errors collects the inference errors of every result
func (r *Report) Errors() *ilerr.Errors {
	var errs *ilerr.Errors
	for _, res := range r.Results {
		var inferenceErr ilerr.InferenceError
		if errors.As(res.Err, &inferenceErr) {
			errs = errs.With(inferenceErr)
		}
	}
	return errs
}

func (r *Report) Write(w io.Writer) error {
	for _, res := range r.Results {
		status := "ok  "
		if !res.OK() {
			status = "FAIL"
		}
		outcome := ""
		switch {
		case res.Binding != nil:
			outcome = res.Binding.String()
		case res.Err != nil:
			outcome = res.Err.Error()
		}
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", status, res.Name, outcome); err != nil {
			return err
		}
		if !res.OK() {
			if _, err := fmt.Fprintf(w, "     %s\n", res.Mismatch); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d/%d invocations as expected\n", len(r.Results)-r.Failed(), len(r.Results))
	return err
}

// Run declares the scenario in a fresh environment and infers every
// invocation. Invalid invocations are reported as failed results; an error is
// only returned for invalid declarations or an internal compiler error.
func Run(s *Scenario, opts infer.Options) (*Report, error) {
	parser, err := NewTypeParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	report := &Report{}
	err = ilerr.Recover(func() error {
		b := newBuilder(lookup.NewEnvironment(types.NewTypeSystem()), parser)
		if err := b.declare(s); err != nil {
			return fmt.Errorf("invalid declarations: %w", err)
		}
		for i, inv := range s.Invocations {
			name := inv.Name
			if name == "" {
				name = fmt.Sprintf("invocation %d", i)
			}
			report.Results = append(report.Results, b.run(name, inv, opts))
		}
		logger.Info("ran scenario", "invocations", len(report.Results), "failed", report.Failed(), "errors", report.Errors())
		return nil
	})
	return report, err
}

func (b *builder) run(name string, inv Invocation, opts infer.Options) Result {
	res := Result{Name: name}
	expr, err := b.invocation(inv.Method, inv.TypeArgs, inv.Args)
	if err != nil {
		res.Err = ilerr.New(ilerr.NewScenario{Positioner: ast.Range{}, Name: name, Message: err.Error()})
		res.Mismatch = "invalid invocation"
		return res
	}
	res.Invocation = expr
	var target *types.Type
	if inv.Target != "" {
		if target, err = b.parser.Parse(inv.Target, b.global); err != nil {
			res.Err = ilerr.New(ilerr.NewScenario{Positioner: expr, Name: name, Message: err.Error()})
			res.Mismatch = "invalid target"
			return res
		}
	}

	res.Binding, res.Err = infer.InferInvocation(b.env, expr, target, opts)
	res.Mismatch = mismatch(inv.Expect, res.Binding, res.Err)
	logger.Info("ran invocation", "name", name, "invocation", ast.ExprString(expr), "binding", res.Binding, "err", res.Err, "ok", res.OK())
	return res
}

func mismatch(expect Expect, binding *types.ParameterizedMethod, err error) string {
	if expect.Fails {
		if err == nil {
			return fmt.Sprintf("expected inference to fail, inferred %s", binding)
		}
		return ""
	}
	if err != nil {
		return "unexpected failure"
	}
	if expect.TypeArgs != nil {
		got := make([]string, len(binding.TypeArguments))
		for i, t := range binding.TypeArguments {
			got[i] = t.String()
		}
		if !slices.Equal(got, expect.TypeArgs) {
			return fmt.Sprintf("expected type arguments %v, inferred %v", expect.TypeArgs, got)
		}
	}
	if expect.Returns != "" && binding.Return.String() != expect.Returns {
		return fmt.Sprintf("expected return type %s, inferred %s", expect.Returns, binding.Return)
	}
	return ""
}
