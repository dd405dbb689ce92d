package pricing

import (
	"math"
	"time"

	"gamecafe/internal/domain"
)

// RateTable maps a controller count to an hourly rate.
type RateTable map[int]float64

// DefaultComputerHourly is flat: computers bill the same regardless of
// attached peripherals.
const DefaultComputerHourly = 15.0

// DefaultPlayStationRates is the canonical PlayStation rate table. The legacy
// system shipped two diverging tables for the 4-or-more tier (30 in one call
// site, 35 in the other); 35 is canonical here so the top tier never
// undercuts the 3-controller rate. Override via Config to restore the old
// value.
var DefaultPlayStationRates = RateTable{1: 20, 2: 25, 3: 30, 4: 35}

// maxTier is the controller count above which the rate stops growing.
const maxTier = 4

type Config struct {
	ComputerHourly   float64
	PlayStationRates RateTable
}

func DefaultConfig() Config {
	return Config{
		ComputerHourly:   DefaultComputerHourly,
		PlayStationRates: DefaultPlayStationRates,
	}
}

// RatePerHour resolves the hourly rate for a device type and controller
// count. Counts below 1 are billed as 1, counts above the top tier as the top
// tier.
func (c Config) RatePerHour(deviceType domain.DeviceType, controllers int) float64 {
	if deviceType == domain.DeviceComputer {
		return c.ComputerHourly
	}
	if controllers < 1 {
		controllers = 1
	}
	if controllers > maxTier {
		controllers = maxTier
	}
	if rate, ok := c.PlayStationRates[controllers]; ok {
		return rate
	}
	return c.PlayStationRates[1]
}

// SegmentCost prices one segment at minute granularity, rounded to the
// nearest whole currency unit. An open segment (To == nil) is priced up to
// now; history is not mutated.
func (c Config) SegmentCost(seg domain.ControllerSegment, deviceType domain.DeviceType, now time.Time) float64 {
	minutes := segmentMinutes(seg, now)
	if minutes <= 0 {
		return 0
	}
	rate := c.RatePerHour(deviceType, seg.ControllerCount)
	return math.Round(minutes / 60.0 * rate)
}

// Cost integrates a full segment history. The result is the sum of the
// per-segment rounded costs, with a floor of 1 currency unit for any session
// that ran at all, so rounding can never produce a free session.
func (c Config) Cost(segments []domain.ControllerSegment, deviceType domain.DeviceType, now time.Time) float64 {
	var total float64
	var ran bool
	for _, seg := range segments {
		total += c.SegmentCost(seg, deviceType, now)
		to := now
		if seg.To != nil {
			to = *seg.To
		}
		if to.After(seg.From) {
			ran = true
		}
	}
	if ran && total < 1 {
		return 1
	}
	return total
}

func segmentMinutes(seg domain.ControllerSegment, now time.Time) float64 {
	to := now
	if seg.To != nil {
		to = *seg.To
	}
	d := to.Sub(seg.From)
	if d <= 0 {
		return 0
	}
	return math.Round(d.Minutes())
}
