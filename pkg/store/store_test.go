package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/value"
)

var (
	fooBar  = method.NewKey("Foo", "bar", method.Instance)
	fooMake = method.NewKey("Foo", "make", method.Type)
	bazQux  = method.NewKey("Baz", "qux", method.Instance)
)

func TestStore(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		s := New()
		assert.Equal(t, FormatVersion, s.FormatVersion)
		assert.WithinDuration(t, time.Now(), s.LastUpdate, time.Second)
		assert.Empty(t, s.Entries())
	})

	t.Run("PutAndFind", func(t *testing.T) {
		s := New()
		entry := NewEntry(fooBar)
		s.Put(entry)

		found := s.Find(fooBar)
		require.NotNil(t, found)
		assert.Equal(t, fooBar, found.Key())
		assert.Equal(t, "1.0", found.Version)
		assert.False(t, found.AddedAt.IsZero())
		assert.Nil(t, s.Find(bazQux))

		added := found.AddedAt
		replacement := NewEntry(fooBar)
		replacement.Enabled = true
		s.Put(replacement)
		assert.Len(t, s.Entries(), 1)
		assert.True(t, s.Find(fooBar).Enabled)
		assert.Equal(t, added, s.Find(fooBar).AddedAt)
	})

	t.Run("SetEnabled", func(t *testing.T) {
		s := New()
		s.Put(NewEntry(fooBar))

		require.NoError(t, s.SetEnabled(fooBar, true))
		assert.True(t, s.Find(fooBar).Enabled)

		err := s.SetEnabled(bazQux, true)
		assert.ErrorIs(t, err, errors.ErrTweakNotFound)
	})

	t.Run("Remove", func(t *testing.T) {
		s := New()
		s.Put(NewEntry(fooBar))

		assert.True(t, s.Remove(fooBar))
		assert.Empty(t, s.Entries())
		assert.False(t, s.Remove(fooBar))
	})

	t.Run("EntriesSorted", func(t *testing.T) {
		s := New()
		s.Put(NewEntry(fooMake))
		s.Put(NewEntry(fooBar))
		s.Put(NewEntry(bazQux))

		entries := s.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, bazQux, entries[0].Key())
		assert.Equal(t, fooBar, entries[1].Key())
		assert.Equal(t, fooMake, entries[2].Key())
	})

	t.Run("Filtered", func(t *testing.T) {
		s := New()
		s.Put(NewEntry(fooMake))
		s.Put(NewEntry(fooBar))
		s.Put(NewEntry(bazQux))

		assert.Len(t, s.Filtered(""), 3)
		assert.Len(t, s.Filtered("foo"), 2)
		assert.Len(t, s.Filtered("FOO.MAKE"), 1)
		assert.Empty(t, s.Filtered("nothing"))
	})
}

func TestLoadAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tweaks.json")

	s := New()
	entry := NewEntry(fooBar)
	entry.Enabled = true
	entry.Value = &value.Encoded{Kind: value.KindInt, Text: "42"}
	s.Put(entry)
	scripted := NewEntry(fooMake)
	scripted.Script = `result = "made"`
	s.Put(scripted)

	require.NoError(t, s.Save(path))

	loaded, err := Open(path)
	require.NoError(t, err)
	entries := loaded.Entries()
	require.Len(t, entries, 2)

	got := loaded.Find(fooBar)
	require.NotNil(t, got)
	assert.True(t, got.Enabled)
	require.NotNil(t, got.Value)
	assert.Equal(t, value.KindInt, got.Value.Kind)
	assert.Equal(t, "42", got.Value.Text)
	assert.Equal(t, method.Instance, got.Scope)

	got = loaded.Find(fooMake)
	require.NotNil(t, got)
	assert.Equal(t, `result = "made"`, got.Script)
	assert.Equal(t, method.Type, got.Scope)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scope": "class"`)
	assert.Contains(t, string(data), `"format_version": "1"`)
}

func TestLoadMissingFile(t *testing.T) {
	s := New()
	s.Put(NewEntry(fooBar))

	require.NoError(t, s.Load(filepath.Join(t.TempDir(), "missing.json")))
	assert.Empty(t, s.Entries())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		err     error
	}{
		{"newer format", `{"format_version":"2","tweaks":[]}`, errors.ErrUnsupportedVersion},
		{"missing format", `{"tweaks":[]}`, errors.ErrUnsupportedVersion},
		{"malformed", `{`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := Open(path)
			require.Error(t, err)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestRelativePath(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Load("relative.json"), errors.ErrInvalidPath)
	assert.ErrorIs(t, s.Save("relative.json"), errors.ErrInvalidPath)
	assert.ErrorIs(t, s.Save(""), errors.ErrInvalidPath)
}
