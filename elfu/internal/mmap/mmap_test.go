// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package mmap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elfu-tools/elfu/elfu/internal/mmap"
)

func TestMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testfile")
	testData := []byte("data-for-the-test")
	require.NoError(t, os.WriteFile(path, testData, 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)
	m, err := mmap.Map(f)
	require.NoError(t, err)
	// The mapping outlives the descriptor.
	require.NoError(t, f.Close())

	assert.Equal(t, len(testData), m.Len())
	assert.Equal(t, testData, m.Bytes())

	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	assert.NoError(t, m.Close())
}

func TestMapEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	m, err := mmap.Map(f)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.NoError(t, m.Close())
}

func TestMapDirectory(t *testing.T) {
	f, err := os.Open(t.TempDir())
	require.NoError(t, err)
	defer f.Close()

	_, err = mmap.Map(f)
	assert.ErrorIs(t, err, mmap.ErrIsDirectory)
}

func TestMapNotRegular(t *testing.T) {
	f, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer f.Close()

	_, err = mmap.Map(f)
	assert.ErrorIs(t, err, mmap.ErrNotRegular)
}

func TestCloseNil(t *testing.T) {
	var m *mmap.Mapping
	assert.NoError(t, m.Close())
}
