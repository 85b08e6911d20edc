package pipeline

import (
	"github.com/Carmen-Shannon/oxygen/engine/camera"
)

const (
	// TileSize is the screen-space tile edge in pixels used by the light
	// culling pass.
	TileSize = 16

	// MaxLightsPerTile caps the per-tile light index list.
	MaxLightsPerTile = 256
)

// TileCounts returns the light culling tile grid dimensions for a target of
// the given pixel size, rounding partial tiles up.
//
// Parameters:
//   - width: target width in pixels
//   - height: target height in pixels
//
// Returns:
//   - uint32: tile count along X
//   - uint32: tile count along Y
func TileCounts(width, height uint32) (uint32, uint32) {
	return (width + TileSize - 1) / TileSize, (height + TileSize - 1) / TileSize
}

// LightCullConfig is the resolved configuration for one view's light culling
// dispatch.
type LightCullConfig struct {
	// TileSize is the tile edge in pixels.
	TileSize uint32

	// MaxLightsPerTile caps the per-tile light index list.
	MaxLightsPerTile uint32

	// TileCountX and TileCountY are the tile grid dimensions.
	TileCountX, TileCountY uint32

	// ClusterDepthSlices is the number of depth slices for clustered
	// culling.
	ClusterDepthSlices uint32

	// DebugMode selects the culling debug visualization.
	DebugMode LightCullDebugMode

	// InverseProjection unprojects tile corners to view space.
	InverseProjection [16]float32
}

// BuildLightCullConfig resolves the light culling dispatch parameters for a
// view from the committed settings, the view target size, and the view's
// camera.
//
// Parameters:
//   - settings: the committed settings snapshot
//   - width: view target width in pixels
//   - height: view target height in pixels
//   - cam: the view's camera, may be nil for views without one
//
// Returns:
//   - LightCullConfig: the resolved dispatch configuration
func BuildLightCullConfig(settings Settings, width, height uint32, cam camera.Camera) LightCullConfig {
	tx, ty := TileCounts(width, height)
	cfg := LightCullConfig{
		TileSize:           TileSize,
		MaxLightsPerTile:   MaxLightsPerTile,
		TileCountX:         tx,
		TileCountY:         ty,
		ClusterDepthSlices: settings.ClusterDepthSlices,
		DebugMode:          settings.LightCullDebugMode,
	}
	if cam != nil {
		cfg.InverseProjection = cam.InverseProjectionMatrix()
	}
	return cfg
}
