package model

import "sort"

// baseDiscounts maps subscription length in months to the base discount percent.
var baseDiscounts = map[int]int{
	1:  0,
	3:  5,
	6:  10,
	12: 15,
}

// scheduleDurations is baseDiscounts' keys in ascending order, computed once.
var scheduleDurations = func() []int {
	out := make([]int, 0, len(baseDiscounts))
	for m := range baseDiscounts {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}()

// BaseDiscount returns the duration discount; unknown durations get 0.
func BaseDiscount(months int) int {
	return baseDiscounts[months]
}

// ScheduleDurations returns the durations that have a schedule entry, ascending.
func ScheduleDurations() []int {
	out := make([]int, len(scheduleDurations))
	copy(out, scheduleDurations)
	return out
}

// CombineDiscounts picks the larger of the duration discount and the promo discount.
// Discounts never stack.
func CombineDiscounts(months, promoPercent int) int {
	if base := BaseDiscount(months); base > promoPercent {
		return base
	}
	return promoPercent
}
