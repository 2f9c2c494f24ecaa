// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Logger_levelFiltering(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	logger := New(SetWriter(buffer), SetLevel(Warn))

	logger.Info("filtered out")
	assert.Empty(t, buffer.String())

	logger.Warn("kept")
	assert.Contains(t, buffer.String(), "WARN kept")
}

func Test_Logger_context(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	logger := New(SetWriter(buffer),
		AddContext("pkg", "decoder"),
		AddContext("chain", "polkadot"))

	logger.Info("decoding")

	line := buffer.String()
	assert.Contains(t, line, "pkg=decoder chain=polkadot")
}

func Test_Logger_childInheritsAndOverrides(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	parent := New(SetWriter(buffer), SetLevel(Error), AddContext("pkg", "a"))
	child := parent.New(SetLevel(Debug), AddContext("sub", "b"))

	child.Debug("from child")

	line := buffer.String()
	assert.Contains(t, line, "DBUG from child")
	assert.Contains(t, line, "pkg=a sub=b")

	buffer.Reset()
	parent.Debug("from parent")
	assert.Empty(t, buffer.String())
}

func Test_Logger_Patch_propagatesToChilds(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	parent := New(SetWriter(buffer), SetLevel(Error))
	child := parent.New()

	parent.PatchLevel(Trace)

	child.Trace("now visible")
	assert.Contains(t, buffer.String(), "TRCE now visible")
}

func Test_Logger_lineFormat(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	logger := New(SetWriter(buffer), SetLevel(Info))

	logger.Infof("block %d", 100)

	lineRegex := regexp.MustCompile(
		`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3} .*INFO.* block 100\n$`)
	assert.Regexp(t, lineRegex, buffer.String())
}

func Test_ParseLevel(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		s     string
		level Level
		err   error
	}{
		"short form":  {s: "dbug", level: Debug},
		"long form":   {s: "debug", level: Debug},
		"upper case":  {s: "CRIT", level: Critical},
		"unknown":     {s: "verbose", err: ErrLevelNotRecognised},
		"empty input": {s: "", err: ErrLevelNotRecognised},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			level, err := ParseLevel(testCase.s)
			if testCase.err != nil {
				assert.ErrorIs(t, err, testCase.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.level, level)
		})
	}
}
