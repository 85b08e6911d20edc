package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxygen/engine/view"
)

// settingsFile is the YAML schema for pipeline settings. Every field is
// optional; omitted fields keep the current draft values. Enum fields use
// case-insensitive display names.
type settingsFile struct {
	RenderMode       *string `yaml:"render_mode,omitempty"`
	WireframeOverlay *bool   `yaml:"wireframe_overlay,omitempty"`

	ToneMap *struct {
		ExposureMode  *string  `yaml:"exposure_mode,omitempty"`
		ExposureValue *float32 `yaml:"exposure_value,omitempty"`
		Mapper        *string  `yaml:"mapper,omitempty"`
		Gamma         *float32 `yaml:"gamma,omitempty"`
	} `yaml:"tone_map,omitempty"`

	ShaderDebugMode    *string `yaml:"shader_debug_mode,omitempty"`
	LightCullDebugMode *string `yaml:"light_cull_debug_mode,omitempty"`
	ClusterDepthSlices *uint32 `yaml:"cluster_depth_slices,omitempty"`
	GPUDebugPass       *bool   `yaml:"gpu_debug_pass,omitempty"`

	GroundGrid *struct {
		Enabled *bool       `yaml:"enabled,omitempty"`
		Spacing *float32    `yaml:"spacing,omitempty"`
		Extent  *float32    `yaml:"extent,omitempty"`
		Color   *[3]float32 `yaml:"color,omitempty"`
	} `yaml:"ground_grid,omitempty"`

	AutoExposure *struct {
		Enabled         *bool    `yaml:"enabled,omitempty"`
		MinLogLuminance *float32 `yaml:"min_log_luminance,omitempty"`
		MaxLogLuminance *float32 `yaml:"max_log_luminance,omitempty"`
		SpeedUp         *float32 `yaml:"speed_up,omitempty"`
		SpeedDown       *float32 `yaml:"speed_down,omitempty"`
	} `yaml:"auto_exposure,omitempty"`
}

// LoadSettingsFile parses a YAML settings file and stages its values on the
// draft. Unknown fields are rejected so typos surface instead of silently
// keeping defaults.
func (p *forwardPipeline) LoadSettingsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pipeline: reading settings file: %w", err)
	}

	var file settingsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return fmt.Errorf("pipeline: parsing settings file %q: %w", path, err)
	}

	// Apply to a scratch copy first so a bad enum value stages nothing.
	p.settings.mu.Lock()
	staged := p.settings.draft
	p.settings.mu.Unlock()
	if err := applySettingsFile(&staged, &file); err != nil {
		return fmt.Errorf("pipeline: settings file %q: %w", path, err)
	}

	p.settings.mutate(func(s *Settings) { *s = staged })
	return nil
}

func applySettingsFile(s *Settings, file *settingsFile) error {
	if file.RenderMode != nil {
		mode, err := parseRenderMode(*file.RenderMode)
		if err != nil {
			return err
		}
		s.RenderMode = mode
	}
	if file.WireframeOverlay != nil {
		s.WireframeOverlay = *file.WireframeOverlay
	}
	if file.ToneMap != nil {
		if file.ToneMap.ExposureMode != nil {
			mode, err := parseExposureMode(*file.ToneMap.ExposureMode)
			if err != nil {
				return err
			}
			s.ToneMap.ExposureMode = mode
		}
		if file.ToneMap.ExposureValue != nil {
			s.ToneMap.ExposureValue = *file.ToneMap.ExposureValue
		}
		if file.ToneMap.Mapper != nil {
			mapper, err := parseToneMapper(*file.ToneMap.Mapper)
			if err != nil {
				return err
			}
			s.ToneMap.Mapper = mapper
		}
		if file.ToneMap.Gamma != nil {
			s.ToneMap.Gamma = *file.ToneMap.Gamma
		}
	}
	if file.ShaderDebugMode != nil {
		mode, err := parseShaderDebugMode(*file.ShaderDebugMode)
		if err != nil {
			return err
		}
		s.ShaderDebugMode = mode
	}
	if file.LightCullDebugMode != nil {
		mode, err := parseLightCullDebugMode(*file.LightCullDebugMode)
		if err != nil {
			return err
		}
		s.LightCullDebugMode = mode
	}
	if file.ClusterDepthSlices != nil {
		s.ClusterDepthSlices = *file.ClusterDepthSlices
	}
	if file.GPUDebugPass != nil {
		s.GPUDebugPass = *file.GPUDebugPass
	}
	if file.GroundGrid != nil {
		if file.GroundGrid.Enabled != nil {
			s.GroundGrid.Enabled = *file.GroundGrid.Enabled
		}
		if file.GroundGrid.Spacing != nil {
			s.GroundGrid.Spacing = *file.GroundGrid.Spacing
		}
		if file.GroundGrid.Extent != nil {
			s.GroundGrid.Extent = *file.GroundGrid.Extent
		}
		if file.GroundGrid.Color != nil {
			s.GroundGrid.Color = *file.GroundGrid.Color
		}
	}
	if file.AutoExposure != nil {
		if file.AutoExposure.Enabled != nil {
			s.AutoExposure.Enabled = *file.AutoExposure.Enabled
		}
		if file.AutoExposure.MinLogLuminance != nil {
			s.AutoExposure.MinLogLuminance = *file.AutoExposure.MinLogLuminance
		}
		if file.AutoExposure.MaxLogLuminance != nil {
			s.AutoExposure.MaxLogLuminance = *file.AutoExposure.MaxLogLuminance
		}
		if file.AutoExposure.SpeedUp != nil {
			s.AutoExposure.SpeedUp = *file.AutoExposure.SpeedUp
		}
		if file.AutoExposure.SpeedDown != nil {
			s.AutoExposure.SpeedDown = *file.AutoExposure.SpeedDown
		}
	}
	return nil
}

func parseRenderMode(raw string) (view.RenderMode, error) {
	switch strings.ToLower(raw) {
	case "solid":
		return view.RenderModeSolid, nil
	case "wireframe":
		return view.RenderModeWireframe, nil
	default:
		return 0, fmt.Errorf("unknown render mode %q", raw)
	}
}

func parseToneMapper(raw string) (view.ToneMapper, error) {
	switch strings.ToLower(raw) {
	case "none":
		return view.ToneMapperNone, nil
	case "reinhard":
		return view.ToneMapperReinhard, nil
	case "aces":
		return view.ToneMapperACES, nil
	default:
		return 0, fmt.Errorf("unknown tone mapper %q", raw)
	}
}

func parseExposureMode(raw string) (view.ExposureMode, error) {
	switch strings.ToLower(raw) {
	case "manual":
		return view.ExposureModeManual, nil
	case "auto":
		return view.ExposureModeAuto, nil
	default:
		return 0, fmt.Errorf("unknown exposure mode %q", raw)
	}
}

func parseShaderDebugMode(raw string) (ShaderDebugMode, error) {
	switch strings.ToLower(raw) {
	case "none":
		return ShaderDebugNone, nil
	case "albedo":
		return ShaderDebugAlbedo, nil
	case "normals":
		return ShaderDebugNormals, nil
	case "iblrawsky", "ibl_raw_sky":
		return ShaderDebugIblRawSky, nil
	case "iblrawirradiance", "ibl_raw_irradiance":
		return ShaderDebugIblRawIrradiance, nil
	default:
		return 0, fmt.Errorf("unknown shader debug mode %q", raw)
	}
}

func parseLightCullDebugMode(raw string) (LightCullDebugMode, error) {
	switch strings.ToLower(raw) {
	case "off":
		return LightCullDebugOff, nil
	case "tileheatmap", "tile_heatmap":
		return LightCullDebugTileHeatmap, nil
	case "sliceindex", "slice_index":
		return LightCullDebugSliceIndex, nil
	default:
		return 0, fmt.Errorf("unknown light cull debug mode %q", raw)
	}
}
