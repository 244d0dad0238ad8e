package app

import (
	"math/rand/v2"
	"time"
)

// DelayFunc выбирает задержку применения результата детекции.
type DelayFunc func() time.Duration

// UniformDelay равномерно из [min, max); при max <= min всегда min.
func UniformDelay(min, max time.Duration) DelayFunc {
	return func() time.Duration {
		if max <= min {
			return min
		}
		return min + rand.N(max-min)
	}
}
