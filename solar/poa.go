package solar

import "math"

// groundAlbedo is the reflectance used for the ground-reflected diffuse component.
const groundAlbedo = 0.2

// POAIrradiance holds plane-of-array irradiance components in W/m², aligned to the
// environment's time index. AOI is the angle of incidence in degrees.
type POAIrradiance struct {
	Global        []float64
	Direct        []float64
	SkyDiffuse    []float64
	GroundDiffuse []float64
	AOI           []float64
}

// POA transposes the synthetic horizontal irradiance triplet onto a tilted surface.
// surfaceTilt is degrees from horizontal, surfaceAzimuth is degrees clockwise from north.
// The sky diffuse term uses the isotropic model.
func (e *Environment) POA(surfaceTilt, surfaceAzimuth float64) POAIrradiance {
	n := e.Index.Len()
	poa := POAIrradiance{
		Global:        make([]float64, n),
		Direct:        make([]float64, n),
		SkyDiffuse:    make([]float64, n),
		GroundDiffuse: make([]float64, n),
		AOI:           make([]float64, n),
	}

	tiltRad := degToRad(surfaceTilt)
	for i, pos := range e.Positions {
		zenRad := degToRad(pos.Zenith)
		cosAOI := math.Cos(zenRad)*math.Cos(tiltRad) +
			math.Sin(zenRad)*math.Sin(tiltRad)*math.Cos(degToRad(pos.Azimuth-surfaceAzimuth))
		cosAOI = math.Max(-1, math.Min(1, cosAOI))

		direct := e.DNI[i] * math.Max(cosAOI, 0)
		skyDiffuse := e.DHI[i] * (1 + math.Cos(tiltRad)) / 2
		groundDiffuse := e.GHI[i] * groundAlbedo * (1 - math.Cos(tiltRad)) / 2

		poa.AOI[i] = radToDeg(math.Acos(cosAOI))
		poa.Direct[i] = direct
		poa.SkyDiffuse[i] = skyDiffuse
		poa.GroundDiffuse[i] = groundDiffuse
		poa.Global[i] = direct + skyDiffuse + groundDiffuse
	}
	return poa
}
