package code

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSecurityLevel(t *testing.T) {
	t.Run("known levels", func(t *testing.T) {
		for s, want := range map[string]SecurityLevel{
			"strict":     LevelStrict,
			"medium":     LevelMedium,
			"permissive": LevelPermissive,
			" Strict ":   LevelStrict,
		} {
			got, err := ParseSecurityLevel(s)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := ParseSecurityLevel("paranoid")
		assert.Error(t, err)
	})
}

func TestPolicyScanDenyList(t *testing.T) {
	// The deny-list applies even at the most permissive level.
	p := Policy{Level: LevelPermissive}

	for _, src := range []string{
		"import subprocess\nsubprocess.run(['ls'])",
		"import os\nos.system('rm -rf /')",
		"__import__('socket')",
		"import ctypes",
		"x = eval(user_input)",
	} {
		err := p.Scan(src)
		var pv *PolicyViolationError
		require.ErrorAs(t, err, &pv, "source: %s", src)
		assert.NotEmpty(t, pv.Symbol)
	}
}

func TestPolicyScanImportLevels(t *testing.T) {
	t.Run("strict rejects numpy", func(t *testing.T) {
		err := Policy{Level: LevelStrict}.Scan("import numpy as np\nnp.zeros(3)")
		var pv *PolicyViolationError
		require.ErrorAs(t, err, &pv)
		assert.Equal(t, "numpy", pv.Symbol)
		assert.Equal(t, LevelStrict, pv.Level)
	})

	t.Run("medium admits numpy", func(t *testing.T) {
		assert.NoError(t, Policy{Level: LevelMedium}.Scan("import numpy as np\nnp.zeros(3)"))
	})

	t.Run("strict rejects socket", func(t *testing.T) {
		err := Policy{Level: LevelStrict}.Scan("import socket\nsocket.socket()")
		var pv *PolicyViolationError
		require.ErrorAs(t, err, &pv)
		assert.Equal(t, "socket", pv.Symbol)
	})

	t.Run("comma imports check every root", func(t *testing.T) {
		err := Policy{Level: LevelStrict}.Scan("import math, socket")
		var pv *PolicyViolationError
		require.ErrorAs(t, err, &pv)
		assert.Equal(t, "socket", pv.Symbol)

		err = Policy{Level: LevelStrict}.Scan("import json, numpy as np")
		require.ErrorAs(t, err, &pv)
		assert.Equal(t, "numpy", pv.Symbol)

		assert.NoError(t, Policy{Level: LevelStrict}.Scan("import math, json, re"))
	})

	t.Run("levels are ordered", func(t *testing.T) {
		// Everything strict admits, medium and permissive admit too.
		src := "from collections import Counter\nimport math, json"
		assert.NoError(t, Policy{Level: LevelStrict}.Scan(src))
		assert.NoError(t, Policy{Level: LevelMedium}.Scan(src))
		assert.NoError(t, Policy{Level: LevelPermissive}.Scan(src))
	})

	t.Run("permissive admits arbitrary roots", func(t *testing.T) {
		assert.NoError(t, Policy{Level: LevelPermissive}.Scan("import requests"))
	})

	t.Run("submodule import checks the root", func(t *testing.T) {
		assert.NoError(t, Policy{Level: LevelMedium}.Scan("import matplotlib.pyplot as plt"))
		err := Policy{Level: LevelStrict}.Scan("from scipy.stats import norm")
		var pv *PolicyViolationError
		require.ErrorAs(t, err, &pv)
		assert.Equal(t, "scipy", pv.Symbol)
	})
}

func TestPolicyScanCleanCode(t *testing.T) {
	err := Policy{Level: LevelStrict}.Scan("x = 1\ny = x * 2\nprint(y)")
	assert.NoError(t, err)
	assert.False(t, errors.As(err, new(*PolicyViolationError)))
}
