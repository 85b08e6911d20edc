package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxygen/engine/scene"
	"github.com/Carmen-Shannon/oxygen/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the
// engine instance.
type EngineBuilderOption func(*asyncEngine)

// WithPipelineDepth sets how many frames may be in flight at once. Each
// depth step adds one frame context slot. Values below 1 are clamped to 1.
//
// Parameters:
//   - depth: number of in-flight frames (default 2)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPipelineDepth(depth int) EngineBuilderOption {
	return func(e *asyncEngine) {
		e.pipelineDepth = depth
	}
}

// WithWindow sets a pre-configured window for the engine. The engine polls
// the window's events at the Input phase and stops when it closes. Without
// a window the engine runs headless.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *asyncEngine) {
		e.window = w
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables profiling output to the log
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *asyncEngine) {
		e.profilingEnabled = enabled
		e.profiler.SetLogging(enabled)
	}
}

// WithFrameLimit caps the frame rate. Values <= 0 leave the loop uncapped.
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(fps float64) EngineBuilderOption {
	return func(e *asyncEngine) {
		if fps <= 0 {
			e.frameLimit = 0
			return
		}
		e.frameLimit = time.Second / time.Duration(fps)
	}
}

// WithScene stages the scene bound at the first frame start.
//
// Parameters:
//   - s: the Scene to bind
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *asyncEngine) {
		e.stagedScene = s
	}
}

// WithFanoutWorkers sets the worker pool size used for parallel fanout
// phases. Zero disables the pool; fanout phases then run sequentially.
//
// Parameters:
//   - workers: worker goroutine count (default 4)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFanoutWorkers(workers int) EngineBuilderOption {
	return func(e *asyncEngine) {
		e.workers = workers
	}
}

// WithMaxFrames stops the engine automatically after the given number of
// frames. Zero runs until Stop. Intended for demos and tests.
//
// Parameters:
//   - frames: frame count to run before stopping (0 = unlimited)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrames(frames uint64) EngineBuilderOption {
	return func(e *asyncEngine) {
		e.maxFrames = frames
	}
}

// WithFenceTimeout overrides how long the loop waits on a slot's queue
// fences before logging and reclaiming the slot anyway.
//
// Parameters:
//   - timeout: the per-fence wait timeout (default 5s)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFenceTimeout(timeout time.Duration) EngineBuilderOption {
	return func(e *asyncEngine) {
		if timeout > 0 {
			e.fenceTimeout = timeout
		}
	}
}
