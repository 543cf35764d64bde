package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/helpdex"
	"github.com/fwojciec/helpdex/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifacts(t *testing.T, runID string) *helpdex.IndexArtifacts {
	t.Helper()
	pageID := helpdex.NewPageID(helpdex.SourceArxMgd, "ref/arc.html")
	chunk := &helpdex.Chunk{
		ID:          helpdex.ChunkID(pageID, 0),
		Source:      helpdex.SourceArxMgd,
		PageID:      pageID,
		Title:       "Arc Object",
		Path:        "ref/arc.html",
		Content:     "the arc object draws arcs",
		HTML:        "<h1>Arc Object</h1><p>the arc object draws arcs</p>",
		ChunkIndex:  0,
		TotalChunks: 1,
		StartOffset: 0,
		EndOffset:   25,
		Metadata: helpdex.ChunkMetadata{
			WordCount: 5,
			CharCount: 25,
			AnchorIDs: []string{"ArcCtor"},
		},
	}
	return &helpdex.IndexArtifacts{
		Source:     helpdex.SourceArxMgd,
		RunID:      runID,
		Model:      "test-model",
		Dimensions: 3,
		Chunks:     []*helpdex.Chunk{chunk},
		Vectors:    [][]float32{{0.1, -0.2, 0.3}},
		TokenLists: [][]string{{"the", "arc", "object", "draws", "arcs"}},
		Anchors: helpdex.AnchorMap{
			helpdex.AnchorKey(pageID, "ArcCtor"): {
				ChunkID: chunk.ID, Offset: 4, ChunkStart: 0, ChunkEnd: 25,
			},
		},
		Graph: helpdex.LinkGraph{
			pageID: &helpdex.Neighbors{Parent: "", Children: nil, SeeAlso: nil},
		},
		Keywords: map[string][]string{"arcs": {pageID}},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := sqlite.NewStore(t.TempDir())
	ctx := context.Background()
	saved := testArtifacts(t, "run-1")

	require.NoError(t, store.SaveArtifacts(ctx, saved))

	loaded, err := store.LoadArtifacts(ctx, helpdex.SourceArxMgd)
	require.NoError(t, err)

	assert.Equal(t, saved.Source, loaded.Source)
	assert.Equal(t, saved.RunID, loaded.RunID)
	assert.Equal(t, saved.Model, loaded.Model)
	assert.Equal(t, saved.Dimensions, loaded.Dimensions)
	require.Len(t, loaded.Chunks, 1)
	assert.Equal(t, saved.Chunks[0], loaded.Chunks[0])
	assert.Equal(t, saved.Vectors, loaded.Vectors)
	assert.Equal(t, saved.TokenLists, loaded.TokenLists)
	assert.Equal(t, saved.Anchors, loaded.Anchors)
	assert.Equal(t, saved.Graph, loaded.Graph)
	assert.Equal(t, saved.Keywords, loaded.Keywords)
}

func TestStore_SaveArtifacts(t *testing.T) {
	t.Parallel()

	t.Run("replaces a previous index atomically", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewStore(t.TempDir())
		ctx := context.Background()

		require.NoError(t, store.SaveArtifacts(ctx, testArtifacts(t, "run-1")))
		require.NoError(t, store.SaveArtifacts(ctx, testArtifacts(t, "run-2")))

		loaded, err := store.LoadArtifacts(ctx, helpdex.SourceArxMgd)
		require.NoError(t, err)
		assert.Equal(t, "run-2", loaded.RunID)
	})

	t.Run("rejects misaligned artifacts", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewStore(t.TempDir())
		a := testArtifacts(t, "run-1")
		a.Vectors = nil

		err := store.SaveArtifacts(context.Background(), a)
		assert.Equal(t, helpdex.EINVALID, helpdex.ErrorCode(err))
	})
}

func TestStore_LoadArtifacts(t *testing.T) {
	t.Parallel()

	t.Run("missing index names the source", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewStore(t.TempDir())
		_, err := store.LoadArtifacts(context.Background(), helpdex.SourceArxRef)
		assert.Equal(t, helpdex.ENOTFOUND, helpdex.ErrorCode(err))
		assert.Contains(t, helpdex.ErrorMessage(err), "arxref")
	})

	t.Run("rejects unknown sources", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewStore(t.TempDir())
		_, err := store.LoadArtifacts(context.Background(), helpdex.Source("arxbogus"))
		assert.Equal(t, helpdex.EINVALID, helpdex.ErrorCode(err))
	})

	t.Run("empty keyword artifact is not a failure", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewStore(t.TempDir())
		ctx := context.Background()
		a := testArtifacts(t, "run-1")
		a.Keywords = nil
		require.NoError(t, store.SaveArtifacts(ctx, a))

		loaded, err := store.LoadArtifacts(ctx, helpdex.SourceArxMgd)
		require.NoError(t, err)
		assert.Empty(t, loaded.Keywords)
	})
}

func TestStore_ListBuilt(t *testing.T) {
	t.Parallel()

	store := sqlite.NewStore(t.TempDir())
	ctx := context.Background()

	built, err := store.ListBuilt(ctx)
	require.NoError(t, err)
	assert.Empty(t, built)

	require.NoError(t, store.SaveArtifacts(ctx, testArtifacts(t, "run-1")))

	ref := testArtifacts(t, "run-1")
	ref.Source = helpdex.SourceArxRef
	for _, chunk := range ref.Chunks {
		chunk.Source = helpdex.SourceArxRef
	}
	require.NoError(t, store.SaveArtifacts(ctx, ref))

	built, err = store.ListBuilt(ctx)
	require.NoError(t, err)
	assert.Equal(t, []helpdex.Source{helpdex.SourceArxMgd, helpdex.SourceArxRef}, built)
}
