package camera

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/veil/common"
)

// Strategy is one way of opening a device. Strategies are tried in order until one succeeds.
type Strategy struct {
	Name    string
	Attempt func() error
}

// RunStrategies tries each strategy in order and stops at the first success. Each failure is
// logged once.
//
// Parameters:
//   - source: the source name used in logs
//   - strategies: the ordered strategies
//
// Returns:
//   - string: the name of the strategy that succeeded
//   - error: ErrNoStrategy joined with every failure if none succeeded
func RunStrategies(source string, strategies []Strategy) (string, error) {
	errs := []error{ErrNoStrategy}
	for _, s := range strategies {
		err := s.Attempt()
		if err == nil {
			common.Logger().WithField("source", source).WithField("strategy", s.Name).Info("camera opened")
			return s.Name, nil
		}
		common.Logger().WithField("source", source).WithField("strategy", s.Name).WithError(err).Warn("camera open strategy failed")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return "", errors.Join(errs...)
}
