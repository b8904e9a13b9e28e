package wind

import "math"

// Speed returns the horizontal wind speed of a u/v vector.
func Speed(u, v float64) float64 {
	return math.Hypot(u, v)
}

// PowerDensity returns the kinetic power flux through a unit area, in W/m².
func PowerDensity(airDensity, speed float64) float64 {
	return 0.5 * airDensity * speed * speed * speed
}

// SweptArea returns the rotor disc area in m².
func SweptArea(rotorDiameter float64) float64 {
	r := rotorDiameter / 2
	return math.Pi * r * r
}

// RawPowerKW is the electrical output before the power curve is applied.
func RawPowerKW(cfg TurbineConfig, speed float64) float64 {
	return PowerDensity(cfg.AirDensity, speed) * SweptArea(cfg.RotorDiameterMeters) * cfg.SystemEfficiency / 1000
}

// Generation applies the power curve: zero outside [cut-in, cut-out], capped
// at nameplate inside it.
func Generation(cfg TurbineConfig, speed float64) float64 {
	if speed < cfg.CutInSpeed || speed > cfg.CutOutSpeed {
		return 0
	}
	return math.Min(RawPowerKW(cfg, speed), cfg.MaxGenerationKW)
}
