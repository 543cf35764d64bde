package mcp_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/helpdex"
	helpdexmcp "github.com/fwojciec/helpdex/mcp"
	"github.com/fwojciec/helpdex/mock"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorFor(text string) []float32 {
	keys := []string{"alpha", "beta", "gamma"}
	v := make([]float32, len(keys))
	words := strings.Fields(strings.ToLower(text))
	for _, w := range words {
		for i, k := range keys {
			if w == k {
				v[i]++
			}
		}
	}
	for i := range v {
		if len(words) > 0 {
			v[i] /= float32(len(words))
		}
	}
	return v
}

func testEmbedder() *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, t := range texts {
				out[i] = vectorFor(t)
			}
			return out, nil
		},
	}
}

func testArtifacts() *helpdex.IndexArtifacts {
	alpha := &helpdex.Chunk{
		ID: "p1_chunk_0", Source: helpdex.SourceArxMgd, PageID: "p1",
		Title: "Alpha Page", Path: "alpha.html",
		Content: "alpha alpha alpha", HTML: "<p>alpha alpha alpha</p>",
		ChunkIndex: 0, TotalChunks: 1,
	}
	beta := &helpdex.Chunk{
		ID: "p2_chunk_0", Source: helpdex.SourceArxMgd, PageID: "p2",
		Title: "Beta Page", Path: "beta.html",
		Content: "beta beta beta", HTML: "<p>beta beta beta</p>",
		ChunkIndex: 0, TotalChunks: 1,
	}
	return &helpdex.IndexArtifacts{
		Source:     helpdex.SourceArxMgd,
		RunID:      "run-1",
		Model:      "mock-embedder",
		Dimensions: 3,
		Chunks:     []*helpdex.Chunk{alpha, beta},
		Vectors:    [][]float32{vectorFor(alpha.Content), vectorFor(beta.Content)},
		TokenLists: [][]string{{"alpha", "alpha", "alpha"}, {"beta", "beta", "beta"}},
		Anchors: helpdex.AnchorMap{
			helpdex.AnchorKey("p1", "Intro"): {ChunkID: "p1_chunk_0"},
		},
		Graph: helpdex.LinkGraph{
			"p1": &helpdex.Neighbors{Children: []string{"p2"}},
			"p2": &helpdex.Neighbors{Parent: "p1", SeeAlso: []string{"p1"}},
		},
		Keywords: map[string][]string{
			"alpha topics": {"p1"},
			"beta topics":  {"p2"},
		},
	}
}

func testServer(t *testing.T) (*helpdexmcp.Server, *atomic.Int64) {
	t.Helper()
	var loads atomic.Int64
	store := &mock.IndexStore{
		LoadArtifactsFn: func(_ context.Context, source helpdex.Source) (*helpdex.IndexArtifacts, error) {
			if source != helpdex.SourceArxMgd {
				return nil, helpdex.Errorf(helpdex.ENOTFOUND, "no index built for source %q", source)
			}
			loads.Add(1)
			return testArtifacts(), nil
		},
		ListBuiltFn: func(context.Context) ([]helpdex.Source, error) {
			return []helpdex.Source{helpdex.SourceArxMgd}, nil
		},
	}
	return helpdexmcp.NewServer(store, testEmbedder(), "test", nil), &loads
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_SearchDocs(t *testing.T) {
	t.Parallel()

	t.Run("returns ranked results", func(t *testing.T) {
		t.Parallel()
		server, _ := testServer(t)

		result, out, err := server.SearchDocs(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.SearchDocsInput{
			Source: "arxmgd", Query: "alpha",
		})
		require.NoError(t, err)
		assert.Nil(t, result)
		require.NotEmpty(t, out.Results)
		assert.Equal(t, "p1_chunk_0", out.Results[0].ChunkID)
		assert.Equal(t, "Alpha Page", out.Results[0].Title)
	})

	t.Run("oversized max_results clamps to the cap", func(t *testing.T) {
		t.Parallel()

		// 25 single-chunk pages so the clamp shows up in the result count.
		artifacts := &helpdex.IndexArtifacts{
			Source: helpdex.SourceArxMgd, RunID: "run-1",
			Model: "mock-embedder", Dimensions: 3,
			Anchors: helpdex.AnchorMap{}, Graph: helpdex.LinkGraph{},
		}
		for i := 0; i < 25; i++ {
			pageID := fmt.Sprintf("p%02d", i)
			artifacts.Chunks = append(artifacts.Chunks, &helpdex.Chunk{
				ID: pageID + "_chunk_0", Source: helpdex.SourceArxMgd, PageID: pageID,
				Title: "Page " + pageID, Path: pageID + ".html",
				Content: "alpha alpha alpha", HTML: "<p>alpha alpha alpha</p>",
				TotalChunks: 1,
			})
			artifacts.Vectors = append(artifacts.Vectors, vectorFor("alpha alpha alpha"))
			artifacts.TokenLists = append(artifacts.TokenLists, []string{"alpha", "alpha", "alpha"})
		}
		store := &mock.IndexStore{
			LoadArtifactsFn: func(context.Context, helpdex.Source) (*helpdex.IndexArtifacts, error) {
				return artifacts, nil
			},
		}
		server := helpdexmcp.NewServer(store, testEmbedder(), "test", nil)

		_, out, err := server.SearchDocs(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.SearchDocsInput{
			Source: "arxmgd", Query: "alpha", MaxResults: 100,
		})
		require.NoError(t, err)
		assert.Len(t, out.Results, 20)
	})

	t.Run("missing index suggests ingesting", func(t *testing.T) {
		t.Parallel()
		server, _ := testServer(t)

		result, _, err := server.SearchDocs(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.SearchDocsInput{
			Source: "arxref", Query: "alpha",
		})
		require.NoError(t, err)
		text := errorText(t, result)
		assert.Contains(t, text, "arxref")
		assert.Contains(t, text, "helpdex ingest")
	})

	t.Run("unknown source is a value failure, not a crash", func(t *testing.T) {
		t.Parallel()
		server, _ := testServer(t)

		result, _, err := server.SearchDocs(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.SearchDocsInput{
			Source: "arxbogus", Query: "alpha",
		})
		require.NoError(t, err)
		assert.Contains(t, errorText(t, result), "arxbogus")
	})

	t.Run("loads each source snapshot once", func(t *testing.T) {
		t.Parallel()
		server, loads := testServer(t)

		for i := 0; i < 3; i++ {
			_, _, err := server.SearchDocs(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.SearchDocsInput{
				Source: "arxmgd", Query: "alpha",
			})
			require.NoError(t, err)
		}
		assert.Equal(t, int64(1), loads.Load())
	})
}

func TestServer_GetDoc(t *testing.T) {
	t.Parallel()

	t.Run("text and html formats", func(t *testing.T) {
		t.Parallel()
		server, _ := testServer(t)

		_, out, err := server.GetDoc(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetDocInput{
			Source: "arxmgd", ChunkID: "p1_chunk_0",
		})
		require.NoError(t, err)
		assert.Equal(t, "alpha alpha alpha", out.Content)

		_, out, err = server.GetDoc(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetDocInput{
			Source: "arxmgd", ChunkID: "p1_chunk_0", Format: "html",
		})
		require.NoError(t, err)
		assert.Equal(t, "<p>alpha alpha alpha</p>", out.Content)
	})

	t.Run("unknown chunk and bad format fail as values", func(t *testing.T) {
		t.Parallel()
		server, _ := testServer(t)

		result, _, err := server.GetDoc(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetDocInput{
			Source: "arxmgd", ChunkID: "nope_chunk_9",
		})
		require.NoError(t, err)
		assert.Contains(t, errorText(t, result), "nope_chunk_9")

		result, _, err = server.GetDoc(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetDocInput{
			Source: "arxmgd", ChunkID: "p1_chunk_0", Format: "pdf",
		})
		require.NoError(t, err)
		assert.Contains(t, errorText(t, result), "pdf")
	})
}

func TestServer_GetAnchor(t *testing.T) {
	t.Parallel()
	server, _ := testServer(t)

	_, out, err := server.GetAnchor(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetAnchorInput{
		Source: "arxmgd", PageID: "p1", Anchor: "Intro",
	})
	require.NoError(t, err)
	assert.Equal(t, "p1_chunk_0", out.ChunkID)

	result, _, err := server.GetAnchor(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetAnchorInput{
		Source: "arxmgd", PageID: "p1", Anchor: "Missing",
	})
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "Missing")
}

func TestServer_GetNeighbors(t *testing.T) {
	t.Parallel()
	server, _ := testServer(t)

	_, out, err := server.GetNeighbors(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetNeighborsInput{
		Source: "arxmgd", PageID: "p2",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Parent)
	assert.Equal(t, "p1", out.Parent.PageID)
	assert.Equal(t, "Alpha Page", out.Parent.Title)
	require.Len(t, out.SeeAlso, 1)
	assert.Equal(t, "alpha.html", out.SeeAlso[0].Path)

	result, out, err := server.GetNeighbors(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetNeighborsInput{
		Source: "arxmgd", PageID: "orphan",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError, "an orphaned page is a valid empty answer")
	assert.Empty(t, out.Children)
}

func TestServer_GetKeywords(t *testing.T) {
	t.Parallel()
	server, _ := testServer(t)

	t.Run("exact match", func(t *testing.T) {
		t.Parallel()
		_, out, err := server.GetKeywords(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetKeywordsInput{
			Source: "arxmgd", Term: "alpha topics",
		})
		require.NoError(t, err)
		require.Len(t, out.Matches, 1)
		assert.Equal(t, "alpha topics", out.Matches[0].Term)
		require.Len(t, out.Matches[0].Pages, 1)
		assert.Equal(t, "Alpha Page", out.Matches[0].Pages[0].Title)
	})

	t.Run("substring fallback is sorted", func(t *testing.T) {
		t.Parallel()
		_, out, err := server.GetKeywords(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetKeywordsInput{
			Source: "arxmgd", Term: "TOPICS",
		})
		require.NoError(t, err)
		require.Len(t, out.Matches, 2)
		assert.Equal(t, "alpha topics", out.Matches[0].Term)
		assert.Equal(t, "beta topics", out.Matches[1].Term)
	})

	t.Run("no entries is a friendly message", func(t *testing.T) {
		t.Parallel()
		result, _, err := server.GetKeywords(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.GetKeywordsInput{
			Source: "arxmgd", Term: "zzz",
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.False(t, result.IsError)
	})
}

func TestServer_ListSources(t *testing.T) {
	t.Parallel()
	server, _ := testServer(t)

	_, out, err := server.ListSources(context.Background(), &mcp.CallToolRequest{}, helpdexmcp.ListSourcesInput{})
	require.NoError(t, err)
	require.Len(t, out.Sources, len(helpdex.Sources()))
	for _, status := range out.Sources {
		assert.Equal(t, status.Name == "arxmgd", status.Built)
	}
}
