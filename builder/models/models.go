// defines the data types shared by the engine, the server and the CLI
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariant is returned when a variant name is not one of Variants.
var ErrUnknownVariant = errors.New("unknown variant")

// Variant selects a language's rule set.
type Variant string

const (
	Indonesia Variant = "indonesia"
	Jawa      Variant = "jawa"
	Sunda     Variant = "sunda"
	Madura    Variant = "madura"
)

// DefaultVariant is used when neither the caller nor the config names one.
const DefaultVariant = Indonesia

// Variants lists every supported variant in a stable order.
var Variants = []Variant{Indonesia, Jawa, Sunda, Madura}

// ParseVariant accepts a variant name in any case, with or without
// surrounding whitespace. An empty name yields DefaultVariant.
func ParseVariant(name string) (Variant, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return DefaultVariant, nil
	}
	for _, v := range Variants {
		if string(v) == n {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

func (v Variant) String() string { return string(v) }

// Direction selects which scheme a transliteration runs through.
type Direction string

const (
	LatinToPegon    Direction = "latin-to-pegon"
	PegonToLatin    Direction = "pegon-to-latin"
	PegonToStandard Direction = "pegon-to-standard"
)

// ParseDirection maps a direction name to a Direction. The short forms
// "latin", "pegon" and "standard" name the target script.
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(LatinToPegon), "pegon":
		return LatinToPegon, nil
	case string(PegonToLatin), "latin":
		return PegonToLatin, nil
	case string(PegonToStandard), "standard":
		return PegonToStandard, nil
	}
	return "", fmt.Errorf("unknown direction %q", name)
}

// StemResult is a word split into its root and the affixes removed from it.
// Prefix tokens end with "-", suffix tokens start with "-" and infix tokens
// are written "-x-". Prefixes come outer to inner, then suffixes inner to
// outer.
type StemResult struct {
	BaseWord      string   `json:"baseWord" msgpack:"b"`
	AffixSequence []string `json:"affixSequence" msgpack:"a"`
}

// Found reports whether any affix was removed.
func (r StemResult) Found() bool {
	return len(r.AffixSequence) > 0
}

// Prefixes returns the prefix tokens with their marker removed.
func (r StemResult) Prefixes() []string {
	var out []string
	for _, a := range r.AffixSequence {
		if IsPrefix(a) {
			out = append(out, strings.TrimSuffix(a, "-"))
		}
	}
	return out
}

// Suffixes returns the suffix tokens with their marker removed.
func (r StemResult) Suffixes() []string {
	var out []string
	for _, a := range r.AffixSequence {
		if IsSuffix(a) {
			out = append(out, strings.TrimPrefix(a, "-"))
		}
	}
	return out
}

// Equal compares two results structurally.
func (r StemResult) Equal(o StemResult) bool {
	if r.BaseWord != o.BaseWord || len(r.AffixSequence) != len(o.AffixSequence) {
		return false
	}
	for i := range r.AffixSequence {
		if r.AffixSequence[i] != o.AffixSequence[i] {
			return false
		}
	}
	return true
}

// IsPrefix reports whether token is written as a prefix ("x-").
func IsPrefix(token string) bool {
	return len(token) > 1 && strings.HasSuffix(token, "-") && !strings.HasPrefix(token, "-")
}

// IsSuffix reports whether token is written as a suffix ("-x").
func IsSuffix(token string) bool {
	return len(token) > 1 && strings.HasPrefix(token, "-") && !strings.HasSuffix(token, "-")
}

// IsInfix reports whether token is written as an infix ("-x-").
func IsInfix(token string) bool {
	return len(token) > 2 && strings.HasPrefix(token, "-") && strings.HasSuffix(token, "-")
}
