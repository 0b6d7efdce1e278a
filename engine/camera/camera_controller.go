package camera

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/veil/common"
	"github.com/Carmen-Shannon/veil/engine/settings"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Controller owns the frame source and its resolution profile. Resolution changes run as
// out-of-band jobs on a single worker: stop capture, wait for the device to settle, reopen with a
// bounded retry. While a job runs the render thread keeps receiving ErrNotReady and re-renders its
// last frame.
type Controller interface {
	// Start opens the source at the current profile resolution, retrying per the controller policy.
	// On failure the controller stays usable and TryUpdate keeps returning ErrNotReady.
	//
	// Returns:
	//   - error: the final open error, if any
	Start() error

	// StepResolution moves to the next larger (+1) or smaller (-1) profile resolution and schedules
	// the reopen. Returns immediately.
	//
	// Parameters:
	//   - delta: +1 for larger, -1 for smaller
	//
	// Returns:
	//   - error: ErrBusy if a change is already in flight, ErrAtBoundary at either end of the profile,
	//     ErrStopped after Stop
	StepResolution(delta int) error

	// TryUpdate forwards to the source.
	//
	// Returns:
	//   - *Frame: the new frame, or nil
	//   - error: ErrNotReady when nothing new is available
	TryUpdate() (*Frame, error)

	// Resolution returns the profile resolution currently selected.
	//
	// Returns:
	//   - Resolution: the selected resolution
	Resolution() Resolution

	// Busy reports whether a resolution change is in flight.
	//
	// Returns:
	//   - bool: true while a reopen job runs
	Busy() bool

	// Stop cancels any pending reopen and stops the source and the worker pool. Safe to call more
	// than once.
	Stop()
}

// controller is the implementation of the Controller interface.
type controller struct {
	source  Source
	profile *ResolutionProfile
	state   settings.State

	pool   worker.DynamicWorkerPool
	taskID atomic.Int64
	busy   atomic.Bool

	// lifecycle serializes Start and Stop on the source between the worker and Stop.
	lifecycle sync.Mutex
	stopped   bool
	ctx       context.Context
	cancel    context.CancelFunc

	retry          RetryPolicy
	settleDelay    time.Duration
	onReconfigured func(Resolution, error)

	resolutions []Resolution
	startIndex  int
}

var _ Controller = &controller{}

// NewController creates a Controller for source. Nothing is opened until Start.
//
// Parameters:
//   - source: the frame source to drive
//   - options: variadic list of ControllerBuilderOption functions to configure the Controller
//
// Returns:
//   - Controller: the controller
func NewController(source Source, options ...ControllerBuilderOption) Controller {
	c := &controller{
		source:      source,
		retry:       DefaultRetryPolicy(),
		settleDelay: 300 * time.Millisecond,
		resolutions: DefaultResolutions,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.state != nil {
		c.startIndex = int(c.state.Get(settings.KeyResolutionIndex))
	}
	c.profile = NewResolutionProfile(c.resolutions, c.startIndex)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.pool = worker.NewDynamicWorkerPool(1, 4, time.Second)
	return c
}

func (c *controller) log() *logrus.Entry {
	return common.Logger().WithField("source", c.source.Name())
}

func (c *controller) Start() error {
	res := c.profile.Current()
	_, err := Retry(c.ctx, "camera open", c.retry, func(ctx context.Context) error {
		return c.startSource(res)
	})
	if err != nil {
		c.log().WithError(err).WithField("resolution", res.String()).Error("camera unavailable, continuing without camera")
		return err
	}
	return nil
}

func (c *controller) startSource(res Resolution) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stopped {
		return context.Canceled
	}
	return c.source.Start(res)
}

func (c *controller) StepResolution(delta int) error {
	if c.ctx.Err() != nil {
		return ErrStopped
	}
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	// The profile is ordered largest first, so a larger resolution is a lower index.
	index, err := c.profile.Step(-delta)
	if err != nil {
		c.busy.Store(false)
		return err
	}
	res := c.profile.Current()

	if c.state != nil {
		if _, err := c.state.Set(settings.KeyResolutionIndex, float64(index)); err != nil {
			c.log().WithError(err).Warn("resolution index not persisted")
		}
	}

	jobID := uuid.NewString()
	c.log().WithFields(logrus.Fields{
		"job":        jobID,
		"resolution": res.String(),
		"index":      index,
	}).Info("resolution change scheduled")

	c.pool.SubmitTask(worker.Task{
		ID: int(c.taskID.Add(1)),
		Do: func() (any, error) {
			err := c.reconfigure(jobID, res)
			return nil, err
		},
	})
	return nil
}

// reconfigure runs on the worker: stop, settle, reopen with retry.
func (c *controller) reconfigure(jobID string, res Resolution) error {
	log := c.log().WithField("job", jobID)

	c.lifecycle.Lock()
	c.source.Stop()
	c.lifecycle.Unlock()

	var err error
	t := time.NewTimer(c.settleDelay)
	select {
	case <-c.ctx.Done():
		t.Stop()
		err = c.ctx.Err()
	case <-t.C:
		var attempts int
		attempts, err = Retry(c.ctx, "camera reopen", c.retry, func(ctx context.Context) error {
			return c.startSource(res)
		})
		log = log.WithField("attempts", attempts)
	}

	if err != nil {
		log.WithError(err).Error("camera reopen failed, continuing without camera")
	} else {
		log.WithField("resolution", res.String()).Info("camera reopened")
	}
	c.busy.Store(false)
	if c.onReconfigured != nil {
		c.onReconfigured(res, err)
	}
	return err
}

func (c *controller) TryUpdate() (*Frame, error) {
	return c.source.TryUpdate()
}

func (c *controller) Resolution() Resolution {
	return c.profile.Current()
}

func (c *controller) Busy() bool {
	return c.busy.Load()
}

func (c *controller) Stop() {
	c.cancel()
	c.lifecycle.Lock()
	if c.stopped {
		c.lifecycle.Unlock()
		return
	}
	c.stopped = true
	c.source.Stop()
	c.lifecycle.Unlock()

	// A job still in flight sees the cancelled context and its worker exits after it.
	c.pool.Stop()
}
