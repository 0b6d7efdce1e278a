package command

import (
	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/settings"
	"github.com/sirupsen/logrus"
)

// Step sizes for one key press, in stored units.
const (
	fineStep   = 0.01
	coarseStep = 0.05
	pixelStep  = 1
)

// binding is a relative adjustment bound to a key. Non-settings actions set run instead of key.
type binding struct {
	key   settings.Key
	delta float64
	run   func(i *interpreter)
}

// defaultBindings returns the direct-tuning key map. Arrow keys handle convergence and vertical
// scale; WASD and IJKL nudge the left and right eye in composite space (see settings.EyeOffset).
func defaultBindings() map[uint32]binding {
	return map[uint32]binding{
		common.KeyRight: {key: settings.KeyConvergence, delta: fineStep},
		common.KeyLeft:  {key: settings.KeyConvergence, delta: -fineStep},
		common.KeyUp:    {key: settings.KeyVerticalScale, delta: coarseStep},
		common.KeyDown:  {key: settings.KeyVerticalScale, delta: -coarseStep},

		common.KeyRightBracket: {key: settings.KeySharpness, delta: coarseStep},
		common.KeyLeftBracket:  {key: settings.KeySharpness, delta: -coarseStep},
		common.KeyEqual:        {key: settings.KeyContrast, delta: coarseStep},
		common.KeyMinus:        {key: settings.KeyContrast, delta: -coarseStep},
		common.KeyApostrophe:   {key: settings.KeyBrightness, delta: coarseStep},
		common.KeySemicolon:    {key: settings.KeyBrightness, delta: -coarseStep},
		common.KeyPeriod:       {key: settings.KeySaturation, delta: coarseStep},
		common.KeyComma:        {key: settings.KeySaturation, delta: -coarseStep},

		common.KeyW: {key: settings.KeyLeftEyeOffsetY, delta: pixelStep},
		common.KeyS: {key: settings.KeyLeftEyeOffsetY, delta: -pixelStep},
		common.KeyA: {key: settings.KeyLeftEyeOffsetX, delta: -pixelStep},
		common.KeyD: {key: settings.KeyLeftEyeOffsetX, delta: pixelStep},
		common.KeyI: {key: settings.KeyRightEyeOffsetY, delta: pixelStep},
		common.KeyK: {key: settings.KeyRightEyeOffsetY, delta: -pixelStep},
		common.KeyJ: {key: settings.KeyRightEyeOffsetX, delta: -pixelStep},
		common.KeyL: {key: settings.KeyRightEyeOffsetX, delta: pixelStep},

		common.KeyM: {run: func(i *interpreter) {
			on := 1.0
			if i.state.Snapshot().Interpolation.Enabled {
				on = 0
			}
			if _, err := i.state.Set(settings.KeyInterpolationEnabled, on); err != nil {
				logBindingError(settings.KeyInterpolationEnabled, err)
			}
		}},
		common.KeyP: {run: func(i *interpreter) {
			if i.pipeline == nil {
				return
			}
			if i.pipeline.Paused() {
				i.pipeline.Resume()
				return
			}
			i.pipeline.Pause()
		}},
		common.KeyPageUp: {run: func(i *interpreter) {
			if i.resolution != nil {
				logStepError(i.resolution.StepResolution(1))
			}
		}},
		common.KeyPageDown: {run: func(i *interpreter) {
			if i.resolution != nil {
				logStepError(i.resolution.StepResolution(-1))
			}
		}},
	}
}

func (i *interpreter) HandleKey(keyCode uint32) bool {
	b, ok := i.bindings[keyCode]
	if !ok {
		return false
	}
	if b.run != nil {
		b.run(i)
		return true
	}
	if _, err := i.state.Adjust(b.key, b.delta); err != nil {
		logBindingError(b.key, err)
	}
	return true
}

func logBindingError(key settings.Key, err error) {
	common.Logger().WithFields(logrus.Fields{
		"key":   string(key),
		"error": err,
	}).Warn("key binding failed")
}

func logStepError(err error) {
	if err != nil {
		common.Logger().WithError(err).Info("resolution step refused")
	}
}
