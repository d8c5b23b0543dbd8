package qc

import "math"

// tolerances of the rate comparison
const (
	rateRtol = 1e-5
	rateAtol = 1e-8
)

// allClose compares two traces elementwise with zero tolerance, NaNs
// compare equal. This is the signal round-trip criterion: conversion must
// not change a single sample.
func allClose(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isClose compares two scalars with the usual relative+absolute tolerance.
func isClose(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= rateAtol+rateRtol*math.Abs(b)
}
