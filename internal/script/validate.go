package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jacoelho/chibi/internal/nodeset"
	"github.com/jacoelho/chibi/internal/predicate"
	"github.com/jacoelho/chibi/internal/transport"
)

// Op names a chain call.
type Op string

const (
	OpHide      Op = "hide"
	OpShow      Op = "show"
	OpToggle    Op = "toggle"
	OpRemove    Op = "remove"
	OpCSS       Op = "css"
	OpClass     Op = "class"
	OpHTML      Op = "html"
	OpAttr      Op = "attr"
	OpVal       Op = "val"
	OpSerialize Op = "serialize"
	OpAjax      Op = "ajax"
	OpFind      Op = "find"
)

var supportedOps = map[Op]struct{}{
	OpHide: {}, OpShow: {}, OpToggle: {}, OpRemove: {}, OpCSS: {}, OpClass: {},
	OpHTML: {}, OpAttr: {}, OpVal: {}, OpSerialize: {}, OpAjax: {}, OpFind: {},
}

// accessorOps read without a value and write with one.
var accessorOps = map[Op]bool{
	OpCSS: true, OpClass: true, OpHTML: true, OpAttr: true, OpVal: true,
}

// Phase is when a step runs.
type Phase string

const (
	PhaseImmediate Phase = ""
	PhaseReady     Phase = "ready"
	PhaseLoaded    Phase = "loaded"
)

// Validate checks every step and the chain structure: a step without query
// or data continues the chain of the nearest preceding step that has one and
// must run in the same phase.
func Validate(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: script has no steps", ErrScript)
	}

	head := -1
	for index, step := range steps {
		if err := ValidateStep(step); err != nil {
			return fmt.Errorf("%w: step %d: %w", ErrScript, index+1, err)
		}

		if step.startsChain() {
			head = index
			continue
		}
		if head < 0 {
			return fmt.Errorf("%w: step %d: first step needs query or data", ErrScript, index+1)
		}
		if steps[head].On != step.On {
			return fmt.Errorf("%w: step %d: runs %s but continues a chain started %s",
				ErrScript, index+1, phaseName(Phase(step.On)), phaseName(Phase(steps[head].On)))
		}
	}
	return nil
}

func (s Step) startsChain() bool {
	return s.Query != "" || s.Data != nil
}

func phaseName(p Phase) string {
	if p == PhaseImmediate {
		return "immediately"
	}
	return "on " + string(p)
}

func ValidateStep(step Step) error {
	op := Op(strings.TrimSpace(step.Op))
	if op == "" {
		return errors.New("op cannot be empty")
	}
	if _, ok := supportedOps[op]; !ok {
		return fmt.Errorf("unsupported op %q", step.Op)
	}

	if step.Query != "" && step.Data != nil {
		return errors.New("step cannot define both query and data")
	}

	switch Phase(step.On) {
	case PhaseImmediate, PhaseReady, PhaseLoaded:
	default:
		return fmt.Errorf("unsupported on %q: use ready or loaded", step.On)
	}

	switch nodeset.Filter(step.Find) {
	case "", nodeset.First, nodeset.Last, nodeset.Odd, nodeset.Even:
	default:
		return fmt.Errorf("unsupported find %q: use first, last, odd or even", step.Find)
	}

	if step.Value != nil && step.From != "" {
		return errors.New("step cannot define both value and from")
	}
	if step.Writes() && !accessorOps[op] {
		return fmt.Errorf("op %q does not take a value", op)
	}
	if (op == OpCSS || op == OpAttr) && strings.TrimSpace(step.Name) == "" {
		return fmt.Errorf("op %q requires a name", op)
	}

	if step.Action != "" {
		if op != OpClass || !step.Writes() {
			return errors.New("action applies to class writes only")
		}
		switch nodeset.ClassAction(step.Action) {
		case nodeset.ClassReplace, nodeset.ClassAdd, nodeset.ClassRemove:
		default:
			return fmt.Errorf("unsupported class action %q", step.Action)
		}
	}

	if step.Location != "" {
		if op != OpHTML || !step.Writes() {
			return errors.New("location applies to html writes only")
		}
		switch nodeset.Location(step.Location) {
		case nodeset.Before, nodeset.After:
		default:
			return fmt.Errorf("unsupported location %q: use before or after", step.Location)
		}
	}

	if err := validateRequest(op, step.Request); err != nil {
		return err
	}

	return validateExpect(op, step)
}

func validateRequest(op Op, req *Request) error {
	if op != OpAjax {
		if req != nil {
			return fmt.Errorf("op %q does not take a request", op)
		}
		return nil
	}

	if req == nil || strings.TrimSpace(req.URL) == "" {
		return errors.New("ajax requires request.url")
	}
	if !transport.IsSupportedMethod(req.Method) {
		return fmt.Errorf("unsupported HTTP method %q: use one of %s", req.Method, strings.Join(transport.SupportedMethods(), ", "))
	}

	seen := make(map[string]struct{}, len(req.Extract))
	for _, extract := range req.Extract {
		if strings.TrimSpace(extract.Name) == "" {
			return errors.New("extract requires a name")
		}
		if _, dup := seen[extract.Name]; dup {
			return fmt.Errorf("duplicate extract name %q", extract.Name)
		}
		seen[extract.Name] = struct{}{}

		if (extract.Path == "") == (extract.Regex == "") {
			return fmt.Errorf("extract %q requires exactly one of path or regex", extract.Name)
		}
		if extract.Group < 0 {
			return fmt.Errorf("extract %q group must be >= 0, got: %d", extract.Name, extract.Group)
		}
	}
	return nil
}

func validateExpect(op Op, step Step) error {
	if step.Expect == nil {
		return nil
	}

	expr, err := step.Expect.expr()
	if err != nil {
		return err
	}
	if err := predicate.ValidateExpr(expr); err != nil {
		return fmt.Errorf("expect is invalid: %w", err)
	}

	if step.Expect.Capture != "" {
		return nil
	}
	switch {
	case accessorOps[op] && step.Writes():
		return fmt.Errorf("expect on op %q needs a read or a capture", op)
	case op == OpHide, op == OpShow, op == OpToggle, op == OpRemove:
		return fmt.Errorf("expect on op %q needs a capture", op)
	}
	return nil
}

func (e *Expect) expr() (predicate.Expr, error) {
	op, err := predicate.ParseOperator(e.Op)
	if err != nil {
		return predicate.Expr{}, fmt.Errorf("expect is invalid: %w", err)
	}
	return predicate.Expr{Op: op, Value: e.Value, HasValue: e.HasValue}, nil
}
