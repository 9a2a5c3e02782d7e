package matching

import (
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/profile"
)

// Score returns the encrypted compatibility of a and b: PreferenceWeight for
// every preference both sides gave the same value. The result is a TypeUint8
// in [0, MaxCompatibilityScore].
func Score(c *fhe.Circuit, a, b *profile.Vector) fhe.Handle {
	var (
		weight = c.Const(params.PreferenceWeight, fhe.TypeUint8)
		zero   = c.Const(0, fhe.TypeUint8)
		score  = zero
	)
	for _, f := range profile.Preferences {
		same := c.Eq(a.Get(f), b.Get(f))
		score = c.Add(score, c.Select(same, weight, zero))
	}
	return score
}

// Eligible returns an encrypted boolean that holds when both sides are at
// least minAge and each side's interest matches the other's gender. Activity
// is a plaintext flag and is checked by the caller. A minAge above
// MaximumAge is treated as MaximumAge.
func Eligible(c *fhe.Circuit, a, b *profile.Vector, minAge uint64) fhe.Handle {
	if minAge > params.MaximumAge {
		minAge = params.MaximumAge
	}
	min := c.Const(minAge, fhe.TypeUint8)
	adults := c.And(c.Ge(a.Get(profile.Age), min), c.Ge(b.Get(profile.Age), min))
	mutual := c.And(
		c.Eq(a.Get(profile.InterestedIn), b.Get(profile.Gender)),
		c.Eq(b.Get(profile.InterestedIn), a.Get(profile.Gender)),
	)
	return c.And(adults, mutual)
}
