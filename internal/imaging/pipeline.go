package imaging

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

var (
	// ErrUnknownOperation is returned for a pipeline step whose name is not
	// in the operation table.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrBadArguments is returned for a step with the wrong number of
	// arguments or an argument outside the accepted range.
	ErrBadArguments = errors.New("bad arguments")
)

// Step is one parsed pipeline operation.
type Step struct {
	Name string
	Args []float64
}

func (s Step) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		args[i] = strconv.FormatFloat(a, 'g', -1, 64)
	}
	return s.Name + "(" + strings.Join(args, ",") + ")"
}

// Pipeline is a validated chain of image operations.
//
// A pipeline is written as operations separated by "|", each optionally
// followed by parenthesized, comma separated numeric arguments:
//
//	scale(3.1)|sharpen|bw|border(30)
//
// Every name and argument list is checked by ParsePipeline, so Apply cannot
// fail on a malformed step.
type Pipeline struct {
	steps []Step
}

// ParsePipeline parses and validates a pipeline specification. An empty
// specification yields an empty pipeline that returns images unchanged.
//
// Returns:
//   - *Pipeline: The validated pipeline.
//   - error: Wraps ErrUnknownOperation or ErrBadArguments, naming the
//     offending step.
func ParsePipeline(spec string) (*Pipeline, error) {
	p := &Pipeline{steps: make([]Step, 0)}
	if strings.TrimSpace(spec) == "" {
		return p, nil
	}

	for _, raw := range strings.Split(spec, "|") {
		step, err := parseStep(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		p.steps = append(p.steps, step)
	}
	return p, nil
}

func parseStep(raw string) (Step, error) {
	name, argList, hasArgs := strings.Cut(raw, "(")
	name = strings.TrimSpace(name)

	op, ok := operations[name]
	if !ok {
		return Step{}, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}

	var args []float64
	if hasArgs {
		inner, closed := strings.CutSuffix(strings.TrimSpace(argList), ")")
		if !closed {
			return Step{}, fmt.Errorf("%w: %s: missing closing parenthesis", ErrBadArguments, name)
		}
		if strings.TrimSpace(inner) != "" {
			for _, a := range strings.Split(inner, ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
				if err != nil {
					return Step{}, fmt.Errorf("%w: %s: %q is not a number", ErrBadArguments, name, strings.TrimSpace(a))
				}
				args = append(args, v)
			}
		}
	}

	if len(args) != op.arity {
		return Step{}, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrBadArguments, name, op.arity, len(args))
	}
	if op.check != nil {
		if err := op.check(args); err != nil {
			return Step{}, fmt.Errorf("%w: %s: %v", ErrBadArguments, name, err)
		}
	}
	return Step{Name: name, Args: args}, nil
}

// String renders the pipeline in its canonical form.
func (p *Pipeline) String() string {
	parts := make([]string, len(p.steps))
	for i, s := range p.steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, "|")
}

// Steps returns a copy of the parsed steps.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Apply runs every step in order.
func (p *Pipeline) Apply(img image.Image) image.Image {
	for _, s := range p.steps {
		img = operations[s.Name].apply(img, s.Args)
	}
	return img
}

// ApplyBytes decodes an encoded image, runs the pipeline and returns the
// result as PNG. An empty pipeline still re-encodes the input as PNG.
func (p *Pipeline) ApplyBytes(data []byte) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodePNG(p.Apply(img))
}

// Scale returns the product of all scale factors in the pipeline.
func (p *Pipeline) Scale() float64 {
	factor := 1.0
	for _, s := range p.steps {
		if s.Name == "scale" {
			factor *= s.Args[0]
		}
	}
	return factor
}

// Border returns the total margin added around the image, in output pixels.
// A border added before a scale step grows with it.
func (p *Pipeline) Border() int {
	border := 0.0
	for _, s := range p.steps {
		switch s.Name {
		case "scale":
			border *= s.Args[0]
		case "border":
			border += s.Args[0]
		}
	}
	return int(border)
}

// PreservesGeometry reports whether output pixel coordinates equal input
// pixel coordinates, i.e. no step resizes, pads, rotates or crops.
func (p *Pipeline) PreservesGeometry() bool {
	for _, s := range p.steps {
		if operations[s.Name].geometric {
			return false
		}
	}
	return true
}

// Process reads an encoded image through a pipeline specification in one
// call.
func Process(data []byte, spec string) ([]byte, error) {
	p, err := ParsePipeline(spec)
	if err != nil {
		return nil, err
	}
	return p.ApplyBytes(data)
}
