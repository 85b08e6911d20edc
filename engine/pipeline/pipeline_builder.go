package pipeline

import (
	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// ForwardPipelineBuilderOption mutates a forward pipeline during
// construction.
type ForwardPipelineBuilderOption func(*forwardPipeline)

// WithSettings seeds the pipeline's draft and committed settings, replacing
// the defaults.
//
// Parameters:
//   - settings: the initial settings snapshot
//
// Returns:
//   - ForwardPipelineBuilderOption: the option to apply
func WithSettings(settings Settings) ForwardPipelineBuilderOption {
	return func(p *forwardPipeline) {
		p.settings.mu.Lock()
		defer p.settings.mu.Unlock()
		p.settings.draft = settings
		p.settings.committed = settings
		p.settings.dirty = false
	}
}

// WithRenderGraph binds a draw callback to a view key at construction time.
//
// Parameters:
//   - key: the view key to bind to
//   - callback: the draw callback
//
// Returns:
//   - ForwardPipelineBuilderOption: the option to apply
func WithRenderGraph(key view.Key, callback RenderGraphCallback) ForwardPipelineBuilderOption {
	return func(p *forwardPipeline) {
		if callback != nil {
			p.graphs[key] = callback
		}
	}
}

// WithSettingsFile seeds the draft from a YAML settings file. A missing or
// malformed file leaves the defaults in place.
//
// Parameters:
//   - path: path to the YAML settings file
//
// Returns:
//   - ForwardPipelineBuilderOption: the option to apply
func WithSettingsFile(path string) ForwardPipelineBuilderOption {
	return func(p *forwardPipeline) {
		_ = p.LoadSettingsFile(path)
	}
}
