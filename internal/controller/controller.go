package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/meshbridge/internal/console"
	"github.com/roach88/meshbridge/internal/mesh"
	"github.com/roach88/meshbridge/internal/relay"
)

// ContextFactory opens an engine context for a project. Implementations
// must wire the provided console into the context so engine progress
// publishes through it.
type ContextFactory func(cfg Config, con console.Console) (mesh.Context, error)

// ErrInstanceOpen is returned when an instance is requested while another
// instance is still open.
var ErrInstanceOpen = errors.New("only one open instance at a time")

// Controller owns the event console and hands out engine instances.
//
// The controller itself holds no engine connection; connections live for
// the duration of one Instance. Handlers registered on the controller see
// the events of every instance it opens.
type Controller struct {
	config  Config
	factory ContextFactory
	logger  *slog.Logger
	runIDs  RunIDGenerator

	// events is the handler registry; publish is what the engine drives.
	// With a debug console the two differ: publish tees to the secondary
	// console, events is the embedded registry.
	events  *console.EventConsole
	publish console.Console

	mu   sync.Mutex
	open bool
}

// Option adjusts a Controller at setup.
type Option func(*Controller)

// WithLogger sets the controller's logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithDebugConsole tees every engine event to a secondary console,
// typically the engine's own terminal console.
func WithDebugConsole(debug console.Console) Option {
	return func(c *Controller) {
		dc := console.NewDebugConsole(debug)
		c.events = dc.EventConsole
		c.publish = dc
	}
}

// WithRunIDGenerator replaces the run id source. Tests use a fixed
// sequence for stable output.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(c *Controller) {
		c.runIDs = gen
	}
}

// Setup creates a controller for the project at path with the default
// gateway.
func Setup(path string, factory ContextFactory, opts ...Option) (*Controller, error) {
	return SetupWithConfig(Config{Path: path}, factory, opts...)
}

// SetupWithConfig creates a controller from a full configuration.
func SetupWithConfig(cfg Config, factory ContextFactory, opts ...Option) (*Controller, error) {
	if cfg.Path == "" {
		return nil, errors.New("controller: config path is required")
	}
	if factory == nil {
		return nil, errors.New("controller: context factory is required")
	}
	if cfg.Gateway == "" {
		cfg.Gateway = "local"
	}

	c := &Controller{
		config:  cfg,
		factory: factory,
		logger:  slog.Default(),
		runIDs:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.publish == nil {
		ec := console.NewEventConsole()
		c.events = ec
		c.publish = ec
	}
	return c, nil
}

// Config returns the controller's configuration.
func (c *Controller) Config() Config {
	return c.config
}

// AddEventHandler registers a handler for every event the engine
// publishes. Returns the handler id for removal.
func (c *Controller) AddEventHandler(h console.Handler) string {
	return c.events.AddHandler(h)
}

// RemoveEventHandler unregisters a handler by id.
func (c *Controller) RemoveEventHandler(id string) {
	c.events.RemoveHandler(id)
}

// Instance opens the engine for one environment. The component tag names
// the caller in logs. Only one instance may be open at a time; a second
// request fails with ErrInstanceOpen until the first is closed.
func (c *Controller) Instance(environment, component string) (*Instance, error) {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return nil, ErrInstanceOpen
	}
	c.open = true
	c.mu.Unlock()

	runID := c.runIDs.Generate()
	logger := c.logger.With(
		"environment", environment,
		"component", component,
		"run_id", runID,
	)

	ctx, err := c.factory(c.config, c.publish)
	if err != nil {
		c.release()
		return nil, fmt.Errorf("open engine context: %w", err)
	}
	logger.Debug("instance opened")

	return &Instance{
		controller:  c,
		environment: environment,
		runID:       runID,
		context:     ctx,
		logger:      logger,
	}, nil
}

// WithInstance opens an instance, passes it to fn, and always closes it.
func (c *Controller) WithInstance(environment, component string, fn func(*Instance) error) (err error) {
	inst, err := c.Instance(environment, component)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := inst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(inst)
}

// release reopens the instance gate.
func (c *Controller) release() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

// Plan opens a scoped instance and returns its plan stream. The instance
// closes when the stream terminates.
func (c *Controller) Plan(environment string, opts mesh.PlanOptions, callOpts ...PlanCallOption) relay.Stream {
	return c.scopedStream(environment, "plan", func(inst *Instance) relay.Stream {
		return inst.Plan(opts, callOpts...)
	})
}

// Run opens a scoped instance and returns its run stream. The instance
// closes when the stream terminates.
func (c *Controller) Run(environment string, opts mesh.RunOptions) relay.Stream {
	return c.scopedStream(environment, "run", func(inst *Instance) relay.Stream {
		return inst.Run(opts)
	})
}

// PlanAndRun opens a scoped instance and returns the combined stream. The
// instance closes when the stream terminates.
func (c *Controller) PlanAndRun(environment string, opts PlanAndRunOptions, callOpts ...PlanCallOption) relay.Stream {
	return c.scopedStream(environment, "plan_and_run", func(inst *Instance) relay.Stream {
		return inst.PlanAndRun(opts, callOpts...)
	})
}

// scopedStream opens an instance and chains its close to the returned
// stream's termination, so the controller convenience calls release the
// gate without the caller holding an Instance.
func (c *Controller) scopedStream(environment, component string, open func(*Instance) relay.Stream) relay.Stream {
	inst, err := c.Instance(environment, component)
	if err != nil {
		return relay.Fail(err)
	}
	return &instanceStream{Stream: open(inst), inst: inst}
}

// instanceStream closes its instance once the underlying stream ends.
type instanceStream struct {
	relay.Stream
	inst *Instance
	once sync.Once
}

func (s *instanceStream) Next() bool {
	if s.Stream.Next() {
		return true
	}
	s.once.Do(func() {
		if err := s.inst.Close(); err != nil {
			s.inst.logger.Warn("instance close failed", "error", err)
		}
	})
	return false
}

func (s *instanceStream) Drain() error {
	for s.Next() {
	}
	return s.Err()
}
