package model

import (
	"fmt"
	"strings"
)

// Side selects which direction of the price curve to integrate over.
type Side string

const (
	SideUpper Side = "upper"
	SideLower Side = "lower"
	SideBoth  Side = "both"
)

// Unit selects which token the accumulated amount is denominated in.
type Unit string

const (
	UnitToken0 Unit = "token0"
	UnitToken1 Unit = "token1"
)

// RequestConfig carries the per-request options of a depth estimate.
type RequestConfig struct {
	Side Side
	Unit Unit
}

// ParseSide normalizes a side string.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideUpper:
		return SideUpper, nil
	case SideLower:
		return SideLower, nil
	case SideBoth:
		return SideBoth, nil
	default:
		return "", fmt.Errorf("unsupported side: %s", s)
	}
}

// ParseUnit normalizes a unit string.
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitToken0:
		return UnitToken0, nil
	case UnitToken1:
		return UnitToken1, nil
	default:
		return "", fmt.Errorf("unsupported unit: %s", s)
	}
}
