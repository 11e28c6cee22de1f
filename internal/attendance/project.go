package attendance

import (
	"math"
	"math/big"
)

// Project computes the current percentage, bunk allowance, catch-up requirement and
// status for a single subject. Out-of-range values are clamped, never rejected.
func Project(in Input) Result {
	in = in.clamped()
	total := in.TotalClasses
	attended := total - in.Absences
	target := in.TargetPercentage

	result := Result{
		TotalClasses:     total,
		Attended:         attended,
		TargetPercentage: target,
		Status:           StatusNoData,
	}
	if total == 0 {
		return result
	}

	result.CurrentPercentage = round2(percentage(attended, total))
	result.RequiredAttended = requiredAttended(total, target)
	result.Status = classifyCounts(attended, total, target)

	switch {
	case target == 0:
		result.CanBunk = Unbounded
		result.BunkUnlimited = true
	case meets(attended, total, target):
		bunk, ok := bunkAllowance(attended, total, target)
		if !ok {
			// allowance too large to count, e.g. a target of 1e-17
			bunk = Unbounded
			result.BunkUnlimited = true
		}
		result.CanBunk = bunk
	case target >= 100:
		// any absence already recorded caps the ratio below 100%
		result.NeedToAttend = Unbounded
		result.Unreachable = true
	default:
		need, ok := catchUp(attended, total, target)
		if !ok {
			need = Unbounded
			result.Unreachable = true
		}
		result.NeedToAttend = need
	}

	return result
}

// Classify maps the gap between an already computed percentage and the target onto a
// status band. Projections classify from the raw counts instead, see classifyCounts.
func Classify(current, target float64) Status {
	gap := current - target
	switch {
	case gap >= statusBand:
		return StatusExcellent
	case gap >= 0:
		return StatusGood
	case gap >= -statusBand:
		return StatusWarning
	default:
		return StatusDanger
	}
}

// classifyCounts bands attended*100 - target*total against ±10*total, which is the
// percentage gap scaled by total and free of rounding.
func classifyCounts(attended, total int, target float64) Status {
	gap := surplus(attended, total, target)
	band := new(big.Rat).SetInt64(int64(total))
	band.Mul(band, big.NewRat(int64(statusBand), 1))

	switch {
	case gap.Cmp(band) >= 0:
		return StatusExcellent
	case gap.Sign() >= 0:
		return StatusGood
	case gap.Cmp(band.Neg(band)) >= 0:
		return StatusWarning
	default:
		return StatusDanger
	}
}

// surplus returns attended*100 - target*total exactly. Its sign is the sign of the gap.
func surplus(attended, total int, target float64) *big.Rat {
	have := new(big.Rat).SetInt64(int64(attended))
	have.Mul(have, ratHundred())
	want := new(big.Rat).SetInt64(int64(total))
	want.Mul(want, targetRat(target))
	return have.Sub(have, want)
}

// meets reports whether attended/total is at or above target.
func meets(attended, total int, target float64) bool {
	return surplus(attended, total, target).Sign() >= 0
}

// bunkAllowance returns the largest b with attended*100 >= target*(total+b), that is
// floor(attended*100/target) - total. Requires target > 0 and meets(attended, total, target).
// ok is false when b does not fit in an int.
func bunkAllowance(attended, total int, target float64) (int, bool) {
	limit := new(big.Rat).SetInt64(int64(attended))
	limit.Mul(limit, ratHundred())
	limit.Quo(limit, targetRat(target))

	b := floorRat(limit)
	b.Sub(b, big.NewInt(int64(total)))
	return toInt(b)
}

// catchUp returns the smallest n with (attended+n)*100 >= target*(total+n), that is
// ceil((target*total - attended*100) / (100 - target)). Requires 0 < target < 100 and
// !meets(attended, total, target). ok is false when n does not fit in an int.
func catchUp(attended, total int, target float64) (int, bool) {
	deficit := surplus(attended, total, target)
	deficit.Neg(deficit)

	headroom := ratHundred()
	headroom.Sub(headroom, targetRat(target))

	n := ceilRat(deficit.Quo(deficit, headroom))
	if n.Sign() <= 0 {
		n.SetInt64(1)
	}
	return toInt(n)
}

// requiredAttended is ceil(target*total/100); it never exceeds total.
func requiredAttended(total int, target float64) int {
	need := new(big.Rat).SetInt64(int64(total))
	need.Mul(need, targetRat(target))
	need.Quo(need, ratHundred())

	n, ok := toInt(ceilRat(need))
	if !ok {
		return total
	}
	return n
}

func ratHundred() *big.Rat {
	return big.NewRat(100, 1)
}

// targetRat is the exact binary value of a clamped, finite target.
func targetRat(target float64) *big.Rat {
	return new(big.Rat).SetFloat64(target)
}

func floorRat(r *big.Rat) *big.Int {
	q, _ := new(big.Int).DivMod(r.Num(), r.Denom(), new(big.Int))
	return q
}

func ceilRat(r *big.Rat) *big.Int {
	q, m := new(big.Int).DivMod(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func toInt(v *big.Int) (int, bool) {
	if !v.IsInt64() {
		return 0, false
	}
	n := v.Int64()
	if n > math.MaxInt || n < math.MinInt {
		return 0, false
	}
	return int(n), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
