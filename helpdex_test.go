package helpdex_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/helpdex"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", helpdex.ErrorCode(nil))
	assert.Equal(t, helpdex.ENOTFOUND, helpdex.ErrorCode(helpdex.Errorf(helpdex.ENOTFOUND, "nope")))
	assert.Equal(t, helpdex.EINTERNAL, helpdex.ErrorCode(errors.New("disk on fire")))
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", helpdex.ErrorMessage(nil))
	assert.Equal(t, "chunk 42 missing", helpdex.ErrorMessage(helpdex.Errorf(helpdex.ENOTFOUND, "chunk %d missing", 42)))
	assert.Equal(t, "Internal error.", helpdex.ErrorMessage(errors.New("disk on fire")))
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	t.Run("accepts every declared source", func(t *testing.T) {
		t.Parallel()
		for _, s := range helpdex.Sources() {
			got, err := helpdex.ParseSource(string(s))
			assert.NoError(t, err)
			assert.Equal(t, s, got)
			assert.Equal(t, string(s), got.DirName())
		}
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		t.Parallel()
		_, err := helpdex.ParseSource("arxbogus")
		assert.Equal(t, helpdex.EINVALID, helpdex.ErrorCode(err))
	})

	t.Run("unvalidated source has no storage key", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", helpdex.Source("arxbogus").DirName())
	})
}

func TestNewPageID(t *testing.T) {
	t.Parallel()

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()
		a := helpdex.NewPageID(helpdex.SourceArxMgd, "ref/arc.html")
		b := helpdex.NewPageID(helpdex.SourceArxMgd, "ref/arc.html")
		assert.Equal(t, a, b)
	})

	t.Run("is path-normalization-insensitive", func(t *testing.T) {
		t.Parallel()
		a := helpdex.NewPageID(helpdex.SourceArxMgd, `Ref\Arc.HTML`)
		b := helpdex.NewPageID(helpdex.SourceArxMgd, "ref/arc.html")
		assert.Equal(t, a, b)
	})

	t.Run("differs across sources and paths", func(t *testing.T) {
		t.Parallel()
		a := helpdex.NewPageID(helpdex.SourceArxMgd, "ref/arc.html")
		b := helpdex.NewPageID(helpdex.SourceArxRef, "ref/arc.html")
		c := helpdex.NewPageID(helpdex.SourceArxMgd, "ref/line.html")
		assert.NotEqual(t, a, b)
		assert.NotEqual(t, a, c)
	})
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ref/arc.html", helpdex.NormalizePath(`\Ref\Arc.html`))
	assert.Equal(t, "index.htm", helpdex.NormalizePath("/Index.HTM"))
	assert.Equal(t, "a/b/c.html", helpdex.NormalizePath("a/b/c.html"))
}

func TestChunkID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "p1_chunk_0", helpdex.ChunkID("p1", 0))
	assert.Equal(t, "p1_chunk_12", helpdex.ChunkID("p1", 12))
}

func TestAnchorMap_Merge(t *testing.T) {
	t.Parallel()

	m := helpdex.AnchorMap{
		helpdex.AnchorKey("p1", "a"): {ChunkID: "p1_chunk_0"},
	}
	m.Merge(helpdex.AnchorMap{
		helpdex.AnchorKey("p2", "b"): {ChunkID: "p2_chunk_1"},
		helpdex.AnchorKey("p1", "a"): {ChunkID: "p1_chunk_1"},
	})

	assert.Len(t, m, 2)
	assert.Equal(t, "p1_chunk_1", m[helpdex.AnchorKey("p1", "a")].ChunkID)
	assert.Equal(t, "p2_chunk_1", m[helpdex.AnchorKey("p2", "b")].ChunkID)
}
