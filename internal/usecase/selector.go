package usecase

import (
	"math/rand/v2"

	"ContentEngine/internal/ports"
)

// RandomSelector picks publish candidates uniformly at random.
type RandomSelector struct{}

var _ ports.Selector = RandomSelector{}

// Pick returns an index in [0, n); n must be positive.
func (RandomSelector) Pick(n int) int {
	return rand.IntN(n)
}
