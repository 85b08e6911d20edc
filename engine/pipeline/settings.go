// package pipeline implements the forward rendering pipeline: the
// double-buffered settings surface, the per-view render planner, the view
// lifecycle service that owns per-view GPU targets, the frame-graph
// recording stage, and the backbuffer composition planner. The pipeline is
// an engine module; it binds callbacks to the frame phases and does all of
// its GPU work through the Commander.
package pipeline

import (
	"sync"

	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// ShaderDebugMode selects a debug visualization in the shading passes.
type ShaderDebugMode int

const (
	// ShaderDebugNone renders normally.
	ShaderDebugNone ShaderDebugMode = iota

	// ShaderDebugAlbedo visualizes material base color.
	ShaderDebugAlbedo

	// ShaderDebugNormals visualizes world-space normals.
	ShaderDebugNormals

	// ShaderDebugIblRawSky visualizes the raw IBL sky contribution.
	// Forces the neutral tone map policy so the raw values survive to the
	// SDR target.
	ShaderDebugIblRawSky

	// ShaderDebugIblRawIrradiance visualizes the raw IBL irradiance
	// contribution. Forces the neutral tone map policy.
	ShaderDebugIblRawIrradiance
)

// String returns the mode's display name.
func (m ShaderDebugMode) String() string {
	switch m {
	case ShaderDebugAlbedo:
		return "Albedo"
	case ShaderDebugNormals:
		return "Normals"
	case ShaderDebugIblRawSky:
		return "IblRawSky"
	case ShaderDebugIblRawIrradiance:
		return "IblRawIrradiance"
	default:
		return "None"
	}
}

// ForcesNeutralToneMap reports whether the debug mode requires raw shader
// output, which suppresses scene exposure and tone mapping for the frame.
//
// Returns:
//   - bool: true if the neutral tone map policy must be forced
func (m ShaderDebugMode) ForcesNeutralToneMap() bool {
	return m == ShaderDebugIblRawSky || m == ShaderDebugIblRawIrradiance
}

// LightCullDebugMode selects a light culling debug visualization.
type LightCullDebugMode int

const (
	// LightCullDebugOff disables the visualization.
	LightCullDebugOff LightCullDebugMode = iota

	// LightCullDebugTileHeatmap colors tiles by light count.
	LightCullDebugTileHeatmap

	// LightCullDebugSliceIndex colors fragments by cluster depth slice.
	LightCullDebugSliceIndex
)

// String returns the mode's display name.
func (m LightCullDebugMode) String() string {
	switch m {
	case LightCullDebugTileHeatmap:
		return "TileHeatmap"
	case LightCullDebugSliceIndex:
		return "SliceIndex"
	default:
		return "Off"
	}
}

// ToneMapConfig is the committed tone mapping configuration distributed to
// the tone map pass.
type ToneMapConfig struct {
	// ExposureMode selects manual or automatic exposure.
	ExposureMode view.ExposureMode

	// ExposureValue is the manual exposure multiplier.
	ExposureValue float32

	// Mapper is the tone mapping operator.
	Mapper view.ToneMapper

	// Gamma is the display gamma applied after mapping.
	Gamma float32
}

// GroundGridConfig configures the reference ground grid pass.
type GroundGridConfig struct {
	// Enabled turns the grid pass on.
	Enabled bool

	// Spacing is the distance between grid lines in world units.
	Spacing float32

	// Extent is the half-size of the grid in world units.
	Extent float32

	// Color is the grid line RGB color.
	Color [3]float32
}

// AutoExposureConfig configures the auto-exposure pass.
type AutoExposureConfig struct {
	// Enabled turns the auto-exposure pass on.
	Enabled bool

	// MinLogLuminance and MaxLogLuminance bound the luminance histogram.
	MinLogLuminance, MaxLogLuminance float32

	// SpeedUp and SpeedDown are the adaptation rates in stops per second.
	SpeedUp, SpeedDown float32
}

// Settings is one consistent snapshot of the pipeline configuration.
// Mutators write to a draft; the pipeline commits the draft at FrameStart,
// so a frame only ever observes one snapshot.
type Settings struct {
	// RenderMode selects solid or wireframe scene rendering.
	RenderMode view.RenderMode

	// WireframeOverlay draws an SDR wireframe overlay after tone mapping.
	WireframeOverlay bool

	// ToneMap is the tone mapping configuration.
	ToneMap ToneMapConfig

	// ShaderDebugMode selects a shading debug visualization.
	ShaderDebugMode ShaderDebugMode

	// LightCullDebugMode selects a light culling debug visualization.
	LightCullDebugMode LightCullDebugMode

	// ClusterDepthSlices is the number of depth slices used by clustered
	// light culling.
	ClusterDepthSlices uint32

	// GPUDebugPass enables the GPU debug visualization pass.
	GPUDebugPass bool

	// GroundGrid configures the reference grid pass.
	GroundGrid GroundGridConfig

	// AutoExposure configures the auto-exposure pass.
	AutoExposure AutoExposureConfig
}

// DefaultSettings returns the pipeline defaults: solid rendering, ACES tone
// mapping with manual exposure 1.0 and gamma 2.2, 24 cluster slices, grid
// and auto-exposure off.
//
// Returns:
//   - Settings: the default snapshot
func DefaultSettings() Settings {
	return Settings{
		RenderMode: view.RenderModeSolid,
		ToneMap: ToneMapConfig{
			ExposureMode:  view.ExposureModeManual,
			ExposureValue: 1.0,
			Mapper:        view.ToneMapperACES,
			Gamma:         2.2,
		},
		ClusterDepthSlices: 24,
		GroundGrid: GroundGridConfig{
			Spacing: 1.0,
			Extent:  100.0,
			Color:   [3]float32{0.35, 0.35, 0.35},
		},
		AutoExposure: AutoExposureConfig{
			MinLogLuminance: -10.0,
			MaxLogLuminance: 12.0,
			SpeedUp:         3.0,
			SpeedDown:       1.0,
		},
	}
}

// settingsState is the draft/committed pair plus the per-frame neutral
// tone map override guard.
type settingsState struct {
	mu *sync.Mutex

	draft     Settings
	committed Settings
	dirty     bool

	// savedToneMap holds the committed tone map config while the neutral
	// override is active, so FrameEnd can restore it.
	savedToneMap   ToneMapConfig
	overrideActive bool
}

func newSettingsState() *settingsState {
	defaults := DefaultSettings()
	return &settingsState{
		mu:        &sync.Mutex{},
		draft:     defaults,
		committed: defaults,
	}
}

// mutate applies one draft mutation and marks the draft dirty.
func (s *settingsState) mutate(apply func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply(&s.draft)
	s.dirty = true
}

// apply commits the draft at frame start. A clean draft short-circuits the
// copy. The neutral tone map override is then applied for the frame when a
// raw shader debug mode is active.
func (s *settingsState) apply() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		// A dirty draft while the override is active would clobber the
		// saved config; restore first so the commit wins.
		if s.overrideActive {
			s.overrideActive = false
		}
		s.committed = s.draft
		s.dirty = false
	}

	if s.committed.ShaderDebugMode.ForcesNeutralToneMap() && !s.overrideActive {
		s.savedToneMap = s.committed.ToneMap
		s.committed.ToneMap = ToneMapConfig{
			ExposureMode:  view.ExposureModeManual,
			ExposureValue: 1.0,
			Mapper:        view.ToneMapperNone,
			Gamma:         s.committed.ToneMap.Gamma,
		}
		s.overrideActive = true
	}
}

// restore undoes the neutral override at frame end.
func (s *settingsState) restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overrideActive {
		s.committed.ToneMap = s.savedToneMap
		s.overrideActive = false
	}
}

// snapshot returns the committed settings.
func (s *settingsState) snapshot() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}
