package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxygen/engine/frame"
	"github.com/Carmen-Shannon/oxygen/engine/phase"
)

// ModuleCallback is one unit of per-frame work a module binds to a phase.
// Ordered phases invoke callbacks sequentially on the frame goroutine;
// fanout phases invoke them concurrently on the engine's worker pool, so
// fanout callbacks must not assume exclusive access to shared state.
type ModuleCallback func(ctx context.Context, fc frame.Context) error

// PhaseBinding couples one callback to the phase that invokes it.
type PhaseBinding struct {
	// Phase is the frame phase the callback runs in.
	Phase phase.Id

	// Callback is the work to run.
	Callback ModuleCallback
}

// Module is a unit of engine functionality that participates in the frame
// loop. Modules declare their phase bindings once at registration; the
// engine invokes the callbacks every frame in phase order.
type Module interface {
	// Name returns the module's unique registration name.
	//
	// Returns:
	//   - string: the module name
	Name() string

	// PhaseBindings returns the module's phase callbacks. Called once at
	// registration; binding order within a phase follows registration
	// order.
	//
	// Returns:
	//   - []PhaseBinding: the module's callbacks keyed by phase
	PhaseBindings() []PhaseBinding
}

// phaseEntry is one registered callback tagged with its owning module for
// diagnostics.
type phaseEntry struct {
	module   string
	callback ModuleCallback
}

// moduleRegistry holds the registered modules and their callbacks indexed
// by phase. Registration is rejected once the engine is running.
type moduleRegistry struct {
	mu *sync.Mutex

	names    map[string]bool
	bindings map[phase.Id][]phaseEntry
}

func newModuleRegistry() *moduleRegistry {
	return &moduleRegistry{
		mu:       &sync.Mutex{},
		names:    make(map[string]bool),
		bindings: make(map[phase.Id][]phaseEntry),
	}
}

// register adds a module's bindings to the registry.
func (r *moduleRegistry) register(m Module) error {
	if m == nil {
		return errors.New("engine: cannot register a nil module")
	}
	name := m.Name()
	if name == "" {
		return errors.New("engine: module name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[name] {
		return fmt.Errorf("engine: module %q is already registered", name)
	}
	for _, binding := range m.PhaseBindings() {
		if !binding.Phase.Valid() {
			return fmt.Errorf("engine: module %q binds invalid phase %d", name, binding.Phase)
		}
		if binding.Callback == nil {
			return fmt.Errorf("engine: module %q binds a nil callback to %s", name, binding.Phase)
		}
		r.bindings[binding.Phase] = append(r.bindings[binding.Phase], phaseEntry{
			module:   name,
			callback: binding.Callback,
		})
	}
	r.names[name] = true
	return nil
}

// entries returns the callbacks bound to a phase in registration order.
func (r *moduleRegistry) entries(p phase.Id) []phaseEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bindings[p]
}

// dispatch runs all callbacks bound to the frame's current phase. Ordered
// phases run sequentially on the calling goroutine, honor cancellation
// between callbacks, and stop at the first failed callback. Fanout phases
// run every callback concurrently on the worker pool, join before
// returning, and aggregate all failures. Panics are confined to the
// failing callback in both modes.
func (r *moduleRegistry) dispatch(ctx context.Context, fc frame.Context, pool worker.DynamicWorkerPool) error {
	p := fc.CurrentPhase()
	entries := r.entries(p)
	if len(entries) == 0 {
		return nil
	}

	if p.Category() == phase.CategoryOrderedBarrier || pool == nil {
		for _, entry := range entries {
			if ctx.Err() != nil {
				return nil
			}
			if err := runEntry(ctx, fc, p, entry); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg     sync.WaitGroup
		errsMu sync.Mutex
		errs   []error
	)
	for i, entry := range entries {
		wg.Add(1)
		entryCap := entry
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := runEntry(ctx, fc, p, entryCap); err != nil {
					errsMu.Lock()
					errs = append(errs, err)
					errsMu.Unlock()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// runEntry invokes one callback, converting a panic into an error so a
// single module cannot take down the frame loop.
func runEntry(ctx context.Context, fc frame.Context, p phase.Id, entry phaseEntry) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("engine: module %q panicked in %s: %v", entry.module, p, recovered)
			log.Printf("[Engine] %v", err)
		}
	}()
	if err := entry.callback(ctx, fc); err != nil {
		return fmt.Errorf("engine: module %q failed in %s: %w", entry.module, p, err)
	}
	return nil
}
