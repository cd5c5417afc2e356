package nanobanana

import (
	"fmt"
	"math"
)

// Cost is an amount of US dollars in thousandths (mills), so three decimal
// places are represented exactly.
type Cost int64

// Mills per dollar.
const costScale = 1000

// DefaultUSDToJPY is the approximate exchange rate used for the yen display.
const DefaultUSDToJPY = 150.0

// CostTable holds the per-image prices of gemini-3-pro-image-preview.
// Approximate costs as of late 2025: 1K/2K ~$0.134, 4K ~$0.24.
var CostTable = map[Resolution]Cost{
	Resolution1K: 134,
	Resolution2K: 134,
	Resolution4K: 240,
}

// ReferenceImageCost is charged once when a reference image is sent.
const ReferenceImageCost Cost = 1

// CalculateCost returns the price of one generation. Unknown resolutions
// cost nothing.
func CalculateCost(res Resolution, hasReference bool) Cost {
	c := CostTable[res]
	if hasReference {
		c += ReferenceImageCost
	}
	return c
}

// USD returns the amount as a float for display and JSON.
func (c Cost) USD() float64 {
	return float64(c) / costScale
}

// ToJPY converts to yen at the given rate, rounded to the nearest yen.
func (c Cost) ToJPY(rate float64) int64 {
	return int64(math.Round(c.USD() * rate))
}

// String formats the cost as dollars with three decimals, e.g. "$0.134".
func (c Cost) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%03d", sign, int64(c)/costScale, int64(c)%costScale)
}
