// Package command turns free-form text utterances and key presses into Configuration State mutations.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/settings"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoMatch is returned when no rule recognizes the utterance.
	ErrNoMatch = errors.New("command not recognized")

	// ErrNoNumber is returned when a rule needs a value and the utterance has none.
	ErrNoNumber = errors.New("command has no value")

	// ErrUnsupported is returned when a rule targets a collaborator that was not wired.
	ErrUnsupported = errors.New("command target not available")
)

// PipelineControl pauses and resumes rendering.
type PipelineControl interface {
	Pause()
	Resume()
	Paused() bool
}

// ResolutionControl steps the camera through its resolution profile.
type ResolutionControl interface {
	// StepResolution moves the profile index by delta and reopens the camera.
	//
	// Parameters:
	//   - delta: +1 for the next larger profile entry, -1 for the next smaller
	//
	// Returns:
	//   - error: an error if the step was refused
	StepResolution(delta int) error
}

// Result describes the mutation an utterance produced.
type Result struct {
	// Rule is the name of the matching rule.
	Rule string
	// Keys lists the tunables the rule wrote, if any.
	Keys []settings.Key
	// Value is the extracted number in command units, when the rule takes one.
	Value float64
	// Changed is false when the mutation left every value as it was.
	Changed bool
}

// Interpreter applies recognized utterances.
type Interpreter interface {
	// Apply runs the first rule matching utterance. At most one mutation is made.
	//
	// Parameters:
	//   - utterance: the recognized text
	//
	// Returns:
	//   - Result: what was matched and whether anything changed
	//   - error: ErrNoMatch, ErrNoNumber, ErrUnsupported, or a settings error
	Apply(utterance string) (Result, error)

	// HandleKey applies the direct-tuning binding for keyCode, if there is one.
	//
	// Parameters:
	//   - keyCode: the virtual key code from the window
	//
	// Returns:
	//   - bool: true if keyCode is bound
	HandleKey(keyCode uint32) bool
}

// interpreter is the implementation of the Interpreter interface.
type interpreter struct {
	state      settings.State
	pipeline   PipelineControl
	resolution ResolutionControl
	rules      []rule
	bindings   map[uint32]binding
}

var _ Interpreter = &interpreter{}

// NewInterpreter creates an Interpreter writing to state.
//
// Parameters:
//   - state: the Configuration State to mutate
//   - options: variadic list of InterpreterBuilderOption functions to configure the Interpreter
//
// Returns:
//   - Interpreter: the configured interpreter
func NewInterpreter(state settings.State, options ...InterpreterBuilderOption) Interpreter {
	i := &interpreter{
		state:    state,
		rules:    defaultRules(),
		bindings: defaultBindings(),
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

func (i *interpreter) Apply(utterance string) (Result, error) {
	text := normalize(utterance)
	for _, r := range i.rules {
		loc := r.pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		m := match{
			text:   text,
			groups: submatches(text, loc),
		}
		// The matched phrase is cut out so digits inside it ("k1") are not taken as the value.
		m.value, m.hasValue = lastNumber(text[:loc[0]] + " " + text[loc[1]:])
		if r.needsValue && !m.hasValue {
			return Result{Rule: r.name}, fmt.Errorf("%w: %q", ErrNoNumber, r.name)
		}

		res, err := r.apply(i, m)
		res.Rule = r.name
		if m.hasValue {
			res.Value = m.value
		}
		common.Logger().WithFields(logrus.Fields{
			"utterance": utterance,
			"rule":      r.name,
			"changed":   res.Changed,
		}).Debug("command applied")
		return res, err
	}
	return Result{}, fmt.Errorf("%w: %q", ErrNoMatch, utterance)
}

// set writes a single key and reports it in a Result.
func (i *interpreter) set(key settings.Key, v float64) (Result, error) {
	changed, err := i.state.Set(key, v)
	return Result{Keys: []settings.Key{key}, Changed: changed}, err
}

// match carries the normalized utterance, its capture groups and the extracted value into a rule.
type match struct {
	text     string
	groups   []string
	value    float64
	hasValue bool
}

var (
	nonWord   = regexp.MustCompile(`[^a-z0-9.\-\s]+`)
	spaces    = regexp.MustCompile(`\s+`)
	numberRe  = regexp.MustCompile(`(?:\b(minus|negative)\s+|-)?\d+(?:\.\d+)?`)
	numberVal = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// normalize lowercases the utterance and reduces punctuation and whitespace to single spaces.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// lastNumber returns the last number in s. A leading "-", "minus" or "negative" makes it negative.
func lastNumber(s string) (float64, bool) {
	all := numberRe.FindAllString(s, -1)
	if len(all) == 0 {
		return 0, false
	}
	last := all[len(all)-1]
	v, err := strconv.ParseFloat(numberVal.FindString(last), 64)
	if err != nil {
		return 0, false
	}
	if strings.HasPrefix(last, "-") || strings.HasPrefix(last, "minus") || strings.HasPrefix(last, "negative") {
		v = -v
	}
	return v, true
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for g := range out {
		if loc[2*g] >= 0 {
			out[g] = s[loc[2*g]:loc[2*g+1]]
		}
	}
	return out
}
