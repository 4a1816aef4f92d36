package sessions

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveGetRemove(t *testing.T) {
	store := NewStore(t.TempDir())

	m := Mapping{
		WorktreeName:      "app-feat-auth",
		CreatorSessionID:  "session-1",
		CreatedAt:         time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		CreatorTabID:      "@3",
		CreatorWorkingDir: "/home/dev/app",
	}

	assert.True(t, store.Save(m))

	got, ok := store.Get("app-feat-auth")
	require.True(t, ok)
	assert.Equal(t, m, got)

	assert.True(t, store.Remove("app-feat-auth"))

	_, ok = store.Get("app-feat-auth")
	assert.False(t, ok)
}

func TestStoreGetMissingIsNotAnError(t *testing.T) {
	store := NewStore(t.TempDir())

	_, ok := store.Get("never-saved")
	assert.False(t, ok)
	assert.False(t, store.Remove("never-saved"))
}

func TestStoreSaveDoesNotDisturbSiblings(t *testing.T) {
	store := NewStore(t.TempDir())

	a := Mapping{WorktreeName: "app-feat-auth", CreatorSessionID: "s1", CreatorWorkingDir: "/a"}
	b := Mapping{WorktreeName: "app-feat-pay", CreatorSessionID: "s2", CreatorWorkingDir: "/b"}

	require.True(t, store.Save(a))
	require.True(t, store.Save(b))

	gotA, ok := store.Get("app-feat-auth")
	require.True(t, ok)
	assert.Equal(t, "s1", gotA.CreatorSessionID)

	gotB, ok := store.Get("app-feat-pay")
	require.True(t, ok)
	assert.Equal(t, "s2", gotB.CreatorSessionID)

	// Removing one entry leaves the other intact
	require.True(t, store.Remove("app-feat-auth"))
	_, ok = store.Get("app-feat-pay")
	assert.True(t, ok)
}

func TestStoreCorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MappingFileName), []byte("not json"), 0644))

	store := NewStore(dir)

	_, ok := store.Get("anything")
	assert.False(t, ok)

	assert.True(t, store.Save(Mapping{WorktreeName: "w", CreatorSessionID: "s"}))
	_, ok = store.Get("w")
	assert.True(t, ok)
}

func TestMarkerRoundTrip(t *testing.T) {
	dir := t.TempDir()

	_, ok := ReadMarker(dir)
	assert.False(t, ok)

	require.NoError(t, WriteMarker(dir, "session-42"))

	id, ok := ReadMarker(dir)
	require.True(t, ok)
	assert.Equal(t, "session-42", id)

	RemoveMarker(dir)
	_, ok = ReadMarker(dir)
	assert.False(t, ok)
}

type fixedStrategy struct {
	source Source
	id     string
}

func (f *fixedStrategy) Source() Source { return f.source }

func (f *fixedStrategy) Resolve(_ context.Context) (string, bool) {
	return f.id, f.id != ""
}

func TestResolverFirstHitWins(t *testing.T) {
	r := NewResolver(
		&fixedStrategy{source: SourceExplicitConfig, id: ""},
		&fixedStrategy{source: SourceProcessScan, id: "from-scan"},
		&fixedStrategy{source: SourceEnvironment, id: "from-env"},
	)

	res := r.Resolve(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, "from-scan", res.SessionID)
	assert.Equal(t, SourceProcessScan, res.Source)
}

func TestResolverExplicitConfigIsAuthoritative(t *testing.T) {
	r := NewResolver(
		&ExplicitConfigStrategy{SessionID: "configured-id"},
		&fixedStrategy{source: SourceProcessScan, id: "from-scan"},
	)

	res := r.Resolve(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, "configured-id", res.SessionID)
	assert.Equal(t, SourceExplicitConfig, res.Source)
}

func TestResolverAllMiss(t *testing.T) {
	r := NewResolver(&fixedStrategy{source: SourceProcessScan, id: ""})

	res := r.Resolve(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, SourceNone, res.Source)
	assert.Empty(t, res.SessionID)
}

func TestEnvironmentStrategy(t *testing.T) {
	t.Setenv("TERM_SESSION_ID", "")
	t.Setenv("ITERM_SESSION_ID", "")
	t.Setenv("TMUX_PANE", "%7")

	s := &EnvironmentStrategy{}
	id, ok := s.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, "%7", id)
}

func TestMintSessionID(t *testing.T) {
	a := MintSessionID()
	b := MintSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
