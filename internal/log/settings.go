// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"io"
	"os"
)

type contextKeyValues struct {
	key    string
	values []string
}

type settings struct {
	writer  io.Writer
	level   *Level
	caller  callerSettings
	context []contextKeyValues
}

func newSettings(options []Option) (s settings) {
	for _, option := range options {
		option(&s)
	}
	return s
}

// mergeWith sets empty fields of the receiver to the values
// of the other settings given. Context key value pairs of the
// other settings are prepended to the existing ones.
func (s *settings) mergeWith(other settings) {
	if s.writer == nil {
		s.writer = other.writer
	}

	if s.level == nil && other.level != nil {
		value := *other.level
		s.level = &value
	}

	s.caller.mergeWith(other.caller)

	merged := make([]contextKeyValues, 0, len(other.context)+len(s.context))
	for _, kvs := range other.context {
		values := make([]string, len(kvs.values))
		copy(values, kvs.values)
		merged = append(merged, contextKeyValues{key: kvs.key, values: values})
	}
	merged = append(merged, s.context...)
	s.context = merged
}

func (s *settings) setDefaults() {
	if s.writer == nil {
		s.writer = os.Stdout
	}

	if s.level == nil {
		value := Info
		s.level = &value
	}

	s.caller.setDefaults()
}
