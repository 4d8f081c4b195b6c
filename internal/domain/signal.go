package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Window is a fixed look-back period in days ending at the as-of instant.
type Window int

const (
	Window30  Window = 30
	Window90  Window = 90
	Window180 Window = 180
)

// Windows lists every window a run computes, in ascending order.
var Windows = []Window{Window30, Window90, Window180}

func (w Window) Label() string {
	return fmt.Sprintf("%dd", int(w))
}

// Months is the window length expressed in 30-day months, used when
// normalizing per-window totals to monthly figures.
func (w Window) Months() float64 {
	return float64(w) / 30.0
}

type SignalKind string

const (
	SignalNumber SignalKind = "number"
	SignalFlag   SignalKind = "flag"
)

// SignalValue is a single derived fact: either a number or a boolean flag.
type SignalValue struct {
	Kind SignalKind `json:"kind"`
	Num  float64    `json:"num,omitempty"`
	Flag bool       `json:"flag,omitempty"`
}

func Number(v float64) SignalValue {
	return SignalValue{Kind: SignalNumber, Num: v}
}

func Flag(v bool) SignalValue {
	return SignalValue{Kind: SignalFlag, Flag: v}
}

func (v SignalValue) String() string {
	if v.Kind == SignalFlag {
		return fmt.Sprintf("%t", v.Flag)
	}
	return fmt.Sprintf("%g", v.Num)
}

// SignalSet maps signal names to values for one (user, window) pair.
// Extractors each return a partial set; the pipeline merges them by key
// union. A set is built fresh per run and never mutated after merging.
type SignalSet map[string]SignalValue

// Number returns the numeric signal value. ok is false when the signal
// is missing, is a flag, or has been marked undefined by a data-quality
// condition; callers must treat that as "signal absent", which never
// satisfies a threshold predicate.
func (s SignalSet) Number(name string) (float64, bool) {
	v, exists := s[name]
	if !exists || v.Kind != SignalNumber {
		return 0, false
	}
	if u, undef := s[name+"_undefined"]; undef && u.Kind == SignalFlag && u.Flag {
		return 0, false
	}
	return v.Num, true
}

// True reports whether the named flag exists and is set.
func (s SignalSet) True(name string) bool {
	v, exists := s[name]
	return exists && v.Kind == SignalFlag && v.Flag
}

// Merge folds a partial set into s. Extractors namespace their keys, so a
// collision means a programming error rather than bad data.
func (s SignalSet) Merge(partial SignalSet) error {
	for name, value := range partial {
		if _, exists := s[name]; exists {
			return fmt.Errorf("signal key collision: %s", name)
		}
		s[name] = value
	}
	return nil
}

// Names returns all signal names in sorted order, for deterministic
// logging and serialization.
func (s SignalSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UndefinedFlags lists the data-quality flags that are set, sorted.
func (s SignalSet) UndefinedFlags() []string {
	var flags []string
	for name, v := range s {
		if strings.HasSuffix(name, "_undefined") && v.Kind == SignalFlag && v.Flag {
			flags = append(flags, name)
		}
	}
	sort.Strings(flags)
	return flags
}
