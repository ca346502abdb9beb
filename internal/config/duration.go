package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps [time.Duration] so it can be decoded from a YAML string such
// as "15m" or "24h", in addition to a plain integer nanosecond count.
type Duration time.Duration

// UnmarshalYAML decodes a scalar YAML node into d, accepting either a
// [time.ParseDuration]-compatible string or an integer nanosecond count.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var ns int64
	if err := node.Decode(&ns); err == nil {
		*d = Duration(ns)
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("config: duration must be a string or integer nanosecond count: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML encodes d using [time.Duration.String].
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying [time.Duration] value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String implements [fmt.Stringer].
func (d Duration) String() string {
	return time.Duration(d).String()
}
