package command

import (
	"math"
	"regexp"

	"github.com/Carmen-Shannon/veil/engine/settings"
)

// rule is one row of the command table. Rules are tried in order and the first whose pattern
// matches handles the utterance.
type rule struct {
	name       string
	pattern    *regexp.Regexp
	needsValue bool
	apply      func(i *interpreter, m match) (Result, error)
}

// defaultRules returns the command table in precedence order. Control words come first so that
// "reset contrast" resets rather than setting contrast, and vertical scale precedes eye offsets so
// "vertical stretch up" is not read as an eye direction.
func defaultRules() []rule {
	return []rule{
		{
			name:    "reset",
			pattern: regexp.MustCompile(`\b(reset|restore defaults)\b`),
			apply: func(i *interpreter, _ match) (Result, error) {
				changed, err := i.state.Reset()
				return Result{Changed: changed}, err
			},
		},
		{
			name:    "pause",
			pattern: regexp.MustCompile(`\b(pause|freeze)\b`),
			apply: func(i *interpreter, _ match) (Result, error) {
				if i.pipeline == nil {
					return Result{}, ErrUnsupported
				}
				i.pipeline.Pause()
				return Result{Changed: true}, nil
			},
		},
		{
			name:    "resume",
			pattern: regexp.MustCompile(`\b(resume|unpause|unfreeze)\b`),
			apply: func(i *interpreter, _ match) (Result, error) {
				if i.pipeline == nil {
					return Result{}, ErrUnsupported
				}
				i.pipeline.Resume()
				return Result{Changed: true}, nil
			},
		},
		{
			name:       "interpolation delay",
			pattern:    regexp.MustCompile(`\b(interpolation|smoothing) delay\b`),
			needsValue: true,
			apply: func(i *interpreter, m match) (Result, error) {
				return i.set(settings.KeyInterpolationMinDelayMs, m.value)
			},
		},
		{
			name:    "interpolation",
			pattern: regexp.MustCompile(`\b(interpolation|smoothing) (on|off|enable|enabled|disable|disabled)\b|\b(enable|disable) (interpolation|smoothing)\b`),
			apply: func(i *interpreter, m match) (Result, error) {
				on := 0.0
				if m.groups[2] == "on" || m.groups[2] == "enable" || m.groups[2] == "enabled" || m.groups[3] == "enable" {
					on = 1
				}
				return i.set(settings.KeyInterpolationEnabled, on)
			},
		},
		{
			name:    "resolution",
			pattern: regexp.MustCompile(`\bresolution (up|higher|increase|next|down|lower|decrease|previous)\b|\b(increase|raise|decrease|lower) resolution\b`),
			apply: func(i *interpreter, m match) (Result, error) {
				if i.resolution == nil {
					return Result{}, ErrUnsupported
				}
				delta := -1
				switch m.groups[1] + m.groups[2] {
				case "up", "higher", "increase", "next", "raise":
					delta = 1
				}
				if err := i.resolution.StepResolution(delta); err != nil {
					return Result{Keys: []settings.Key{settings.KeyResolutionIndex}}, err
				}
				return Result{Keys: []settings.Key{settings.KeyResolutionIndex}, Changed: true}, nil
			},
		},
		displayRule("vertical scale", `\b(vertical (scale|stretch|size)|stretch)\b`, settings.KeyVerticalScale),
		displayRule("convergence", `\bconvergence\b`, settings.KeyConvergence),
		displayRule("sharpness", `\b(sharpness|sharpen)\b`, settings.KeySharpness),
		displayRule("contrast", `\bcontrast\b`, settings.KeyContrast),
		displayRule("brightness", `\b(brightness|bright)\b`, settings.KeyBrightness),
		displayRule("saturation", `\b(saturation|color)\b`, settings.KeySaturation),
		{
			name:       "distortion",
			pattern:    regexp.MustCompile(`\b(?:distortion |lens )?k ?([123])\b`),
			needsValue: true,
			apply: func(i *interpreter, m match) (Result, error) {
				key := [...]settings.Key{settings.KeyLensK1, settings.KeyLensK2, settings.KeyLensK3}[m.groups[1][0]-'1']
				return i.set(key, settings.FromDisplay(key, m.value))
			},
		},
		{
			name:       "lens center",
			pattern:    regexp.MustCompile(`\b(?:lens )?center (left|right)(?: eye)? (x|y)\b`),
			needsValue: true,
			apply: func(i *interpreter, m match) (Result, error) {
				key := lensCenterKeys[m.groups[1]+m.groups[2]]
				return i.set(key, settings.FromDisplay(key, m.value))
			},
		},
		{
			name:    "eye offset",
			pattern: regexp.MustCompile(`\b(left|right|both) eyes? (left|right|up|down|center)\b`),
			apply:   applyEyeOffset,
		},
	}
}

var lensCenterKeys = map[string]settings.Key{
	"leftx":  settings.KeyLensCenterLeftX,
	"lefty":  settings.KeyLensCenterLeftY,
	"rightx": settings.KeyLensCenterRightX,
	"righty": settings.KeyLensCenterRightY,
}

// displayRule builds a rule that sets key from a 0-100 display value.
func displayRule(name, pattern string, key settings.Key) rule {
	return rule{
		name:       name,
		pattern:    regexp.MustCompile(pattern),
		needsValue: true,
		apply: func(i *interpreter, m match) (Result, error) {
			return i.set(key, settings.FromDisplay(key, m.value))
		},
	}
}

// applyEyeOffset sets an absolute pixel offset, so repeating the command does not drift.
// "left" and "down" give negative offsets; "center" zeroes both axes of the eye. Every axis the
// utterance names is written in one SetMany.
func applyEyeOffset(i *interpreter, m match) (Result, error) {
	eyes := map[string][][2]settings.Key{
		"left":  {{settings.KeyLeftEyeOffsetX, settings.KeyLeftEyeOffsetY}},
		"right": {{settings.KeyRightEyeOffsetX, settings.KeyRightEyeOffsetY}},
		"both": {
			{settings.KeyLeftEyeOffsetX, settings.KeyLeftEyeOffsetY},
			{settings.KeyRightEyeOffsetX, settings.KeyRightEyeOffsetY},
		},
	}[m.groups[1]]
	dir := m.groups[2]

	if dir != "center" && !m.hasValue {
		return Result{}, ErrNoNumber
	}
	px := math.Abs(m.value)

	writes := map[settings.Key]float64{}
	res := Result{}
	for _, eye := range eyes {
		switch dir {
		case "left":
			writes[eye[0]] = -px
		case "right":
			writes[eye[0]] = px
		case "up":
			writes[eye[1]] = px
		case "down":
			writes[eye[1]] = -px
		case "center":
			writes[eye[0]] = 0
			writes[eye[1]] = 0
		}
		for _, axis := range eye {
			if _, ok := writes[axis]; ok {
				res.Keys = append(res.Keys, axis)
			}
		}
	}

	changed, err := i.state.SetMany(writes)
	res.Changed = changed
	return res, err
}
