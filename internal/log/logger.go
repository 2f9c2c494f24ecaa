// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"sync"
)

// Logger is a thread safe logger producing human readable
// single line log entries.
type Logger struct {
	settings settings
	mutex    *sync.Mutex // shared with child loggers
	childs   []*Logger
}

// New creates a new logger. If you want more loggers writing
// to the same writer, create child loggers with the New method
// of the logger obtained, so writes stay serialised.
func New(options ...Option) *Logger {
	s := newSettings(options)
	s.setDefaults()

	return &Logger{
		settings: s,
		mutex:    new(sync.Mutex),
	}
}

// New creates a child logger inheriting the settings of the
// parent logger. Options given override inherited settings,
// except context key value pairs which accumulate.
func (l *Logger) New(options ...Option) *Logger {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	s := newSettings(options)
	s.mergeWith(l.settings)
	s.setDefaults()

	child := &Logger{
		settings: s,
		mutex:    l.mutex,
	}
	l.childs = append(l.childs, child)
	return child
}

// Patch patches the existing settings with any option given.
// This is thread safe and propagates to all child loggers.
func (l *Logger) Patch(options ...Option) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.patchWithoutLocking(options...)
	for _, child := range l.childs {
		child.patchWithoutLocking(options...)
	}
}

// PatchLevel patches the level of the logger and all its
// child loggers.
func (l *Logger) PatchLevel(level Level) {
	l.Patch(SetLevel(level))
}

func (l *Logger) patchWithoutLocking(options ...Option) {
	updatedSettings := newSettings(options)
	updatedSettings.mergeWith(l.settings)
	l.settings = updatedSettings
}
