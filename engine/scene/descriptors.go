package scene

// CameraDesc is a plain camera description read from a node. The pipeline
// turns it into view/projection matrices through the camera package.
type CameraDesc struct {
	// FovY is the vertical field of view in radians.
	FovY float32

	// Near and Far are the clipping plane distances.
	Near, Far float32

	// Exposure is the scene-configured exposure bias for this camera.
	// Used by the tone map pass unless a debug override forces neutral.
	Exposure float32
}

// LightType identifies the kind of a light descriptor.
type LightType int

const (
	// LightDirectional is an infinitely distant light with a direction.
	LightDirectional LightType = iota

	// LightPoint radiates in all directions from a position with a range.
	LightPoint

	// LightSpot radiates in a cone from a position.
	LightSpot
)

// String returns the type's display name.
func (t LightType) String() string {
	switch t {
	case LightPoint:
		return "Point"
	case LightSpot:
		return "Spot"
	default:
		return "Directional"
	}
}

// LightDesc is a plain light description read from a node. The light culling
// pass consumes positions and ranges in world space after propagation.
type LightDesc struct {
	// Type is the light kind.
	Type LightType

	// Color is the light's RGB color.
	Color [3]float32

	// Intensity scales the color.
	Intensity float32

	// Position is the world-space position for point and spot lights.
	Position [3]float32

	// Direction is the world-space direction for directional and spot
	// lights.
	Direction [3]float32

	// Range is the falloff distance for point and spot lights.
	Range float32

	// InnerCone and OuterCone are the spot cone angles in radians.
	InnerCone, OuterCone float32

	// CastsShadows marks the light as a shadow caster.
	CastsShadows bool
}

// Environment describes the scene-wide atmosphere and post-process systems.
// Absent systems are nil. Sky atmosphere and a textured sky sphere are
// mutually exclusive; the scene hydrator enforces exclusivity before views
// publish, the core does not arbitrate.
type Environment struct {
	// SkyAtmosphere is the physically-based sky model, or nil.
	SkyAtmosphere *SkyAtmosphereDesc

	// Fog is the height fog description, or nil.
	Fog *FogDesc

	// SkyLight is the ambient sky light, or nil.
	SkyLight *SkyLightDesc

	// Clouds is the volumetric cloud layer, or nil.
	Clouds *CloudsDesc

	// PostProcess is the scene's post-process volume, or nil.
	PostProcess *PostProcessDesc
}

// HasSky reports whether any sky system is present.
//
// Returns:
//   - bool: true if a sky atmosphere is configured
func (e Environment) HasSky() bool {
	return e.SkyAtmosphere != nil
}

// SkyAtmosphereDesc configures the physically-based sky model.
type SkyAtmosphereDesc struct {
	// SunDirection is the world-space direction toward the sun.
	SunDirection [3]float32

	// SunIntensity scales the sun disc and scattered light.
	SunIntensity float32

	// RayleighScale and MieScale adjust the scattering coefficients.
	RayleighScale, MieScale float32
}

// FogDesc configures exponential height fog.
type FogDesc struct {
	// Density is the fog density at the base height.
	Density float32

	// HeightFalloff controls how quickly density decays with altitude.
	HeightFalloff float32

	// Color is the fog's RGB inscatter color.
	Color [3]float32
}

// SkyLightDesc configures the ambient sky light contribution.
type SkyLightDesc struct {
	// Color is the ambient RGB color.
	Color [3]float32

	// Intensity scales the ambient contribution.
	Intensity float32
}

// CloudsDesc configures the volumetric cloud layer.
type CloudsDesc struct {
	// Coverage is the cloud coverage fraction in [0, 1].
	Coverage float32

	// BaseAltitude and Thickness position the cloud layer in meters.
	BaseAltitude, Thickness float32
}

// PostProcessDesc configures the scene's post-process volume.
type PostProcessDesc struct {
	// BloomIntensity scales the bloom contribution; 0 disables bloom.
	BloomIntensity float32

	// VignetteIntensity scales the vignette darkening; 0 disables it.
	VignetteIntensity float32

	// SaturationScale adjusts final color saturation; 1 is neutral.
	SaturationScale float32
}
