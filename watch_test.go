// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrotech_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"sbinet.org/x/agrotech"
)

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := agrotech.NewWatcher(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestWatcherScan(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) {
		t.Helper()
		err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
		require.NoError(t, err)
	}

	write("a.csv", "id_sensor,fecha,humedad,temperatura\n")
	write("b.CSV", "id_sensor,fecha,humedad,temperatura\n")
	write("notes.txt", "not a csv\n")

	w, err := agrotech.NewWatcher(dir)
	require.NoError(t, err)

	var got []string
	fn := func(ev agrotech.FileEvent) error {
		got = append(got, ev.Identity.Name)
		return nil
	}

	err = w.Scan(fn)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.csv", "b.CSV"}, got)

	// Same identities on the next poll cycle: nothing is dispatched.
	got = nil
	err = w.Scan(fn)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestWatcherRedetectsChangedFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "a.csv")

	err := os.WriteFile(fname, []byte("id_sensor,fecha,humedad,temperatura\n"), 0644)
	require.NoError(t, err)

	w, err := agrotech.NewWatcher(dir)
	require.NoError(t, err)

	var n int
	fn := func(ev agrotech.FileEvent) error {
		n++
		return nil
	}

	require.NoError(t, w.Scan(fn))
	require.Equal(t, 1, n)

	// Rewriting the file with a different size yields a new identity.
	err = os.WriteFile(fname, []byte("id_sensor,fecha,humedad,temperatura\nS001,2024-01-01,45.5,23.1\n"), 0644)
	require.NoError(t, err)

	require.NoError(t, w.Scan(fn))
	require.Equal(t, 2, n)
}

func TestWatcherMarksSeenBeforeProcessing(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("id_sensor\n"), 0644)
	require.NoError(t, err)

	w, err := agrotech.NewWatcher(dir)
	require.NoError(t, err)

	var n int
	fn := func(ev agrotech.FileEvent) error {
		n++
		return errors.New("boom")
	}

	// A file whose processing fails is still recorded as consumed:
	// it is not retried on later poll cycles.
	require.NoError(t, w.Scan(fn))
	require.NoError(t, w.Scan(fn))
	require.Equal(t, 1, n)
}

func TestFileIdentityKey(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	id := agrotech.FileIdentity{Name: "a.csv", Size: 42, ModTime: ts}
	require.Equal(t, "a.csv-42-20240301123045", id.Key())
}
