package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/helpdex"
)

// Compile-time interface verification.
var _ helpdex.IndexStore = (*Store)(nil)

// Store implements helpdex.IndexStore with one database file per source
// under its directory. A save writes a sibling temp file and renames it over
// the live one, so readers see either the old complete artifact set or the
// new one, never a mix.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the database file location for a source.
func (s *Store) Path(source helpdex.Source) string {
	return filepath.Join(s.dir, source.DirName()+".db")
}

// SaveArtifacts persists a complete artifact set, atomically replacing any
// previous set for the source.
func (s *Store) SaveArtifacts(ctx context.Context, a *helpdex.IndexArtifacts) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return helpdex.Errorf(helpdex.EINTERNAL, "failed to create index directory: %v", err)
	}

	final := s.Path(a.Source)
	tmp := final + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return helpdex.Errorf(helpdex.EINTERNAL, "failed to clear stale temp index: %v", err)
	}

	db := NewDB(tmp)
	if err := db.Open(); err != nil {
		return helpdex.Errorf(helpdex.EINTERNAL, "failed to open temp index for source %q: %v", a.Source, err)
	}

	err := s.writeArtifacts(ctx, db, a)
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return helpdex.Errorf(helpdex.EINTERNAL, "failed to write index for source %q: %v", a.Source, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return helpdex.Errorf(helpdex.EINTERNAL, "failed to publish index for source %q: %v", a.Source, err)
	}
	return nil
}

func (s *Store) writeArtifacts(ctx context.Context, db *DB, a *helpdex.IndexArtifacts) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meta (id, source, run_id, model, dimensions, created_at)
		VALUES (1, ?, ?, ?, ?, ?)
	`, string(a.Source), a.RunID, a.Model, a.Dimensions, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	for pos, chunk := range a.Chunks {
		anchorIDs, err := marshalJSON(chunk.Metadata.AnchorIDs)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chunks (position, id, source, page_id, title, path, content, html,
				chunk_index, total_chunks, start_offset, end_offset, word_count, char_count, anchor_ids)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, pos, chunk.ID, string(chunk.Source), chunk.PageID, chunk.Title, chunk.Path,
			chunk.Content, chunk.HTML, chunk.ChunkIndex, chunk.TotalChunks,
			chunk.StartOffset, chunk.EndOffset, chunk.Metadata.WordCount,
			chunk.Metadata.CharCount, anchorIDs)
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, `INSERT INTO vectors (position, vector) VALUES (?, ?)`,
			pos, encodeVector(a.Vectors[pos])); err != nil {
			return err
		}

		tokens, err := marshalJSON(a.TokenLists[pos])
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO lexical (position, tokens) VALUES (?, ?)`,
			pos, tokens); err != nil {
			return err
		}
	}

	for key, loc := range a.Anchors {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO anchors (key, chunk_id, anchor_offset, chunk_start, chunk_end)
			VALUES (?, ?, ?, ?, ?)
		`, key, loc.ChunkID, loc.Offset, loc.ChunkStart, loc.ChunkEnd)
		if err != nil {
			return err
		}
	}

	for pageID, n := range a.Graph {
		children, err := marshalJSON(n.Children)
		if err != nil {
			return err
		}
		seeAlso, err := marshalJSON(n.SeeAlso)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO graph (page_id, parent, children, see_also)
			VALUES (?, ?, ?, ?)
		`, pageID, n.Parent, children, seeAlso)
		if err != nil {
			return err
		}
	}

	for term, pageIDs := range a.Keywords {
		ids, err := marshalJSON(pageIDs)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO keywords (term, page_ids) VALUES (?, ?)`,
			term, ids); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadArtifacts restores the complete artifact set for a source. Any missing
// required artifact is ENOTFOUND naming the artifact and the source; a
// partially usable set is never returned.
func (s *Store) LoadArtifacts(ctx context.Context, source helpdex.Source) (*helpdex.IndexArtifacts, error) {
	if source.DirName() == "" {
		return nil, helpdex.Errorf(helpdex.EINVALID, "unknown source %q", source)
	}
	path := s.Path(source)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, helpdex.Errorf(helpdex.ENOTFOUND, "no index built for source %q", source)
	}

	db := NewDB(path)
	if err := db.Open(); err != nil {
		return nil, helpdex.Errorf(helpdex.EINTERNAL, "failed to open index for source %q: %v", source, err)
	}
	defer db.Close()

	a := &helpdex.IndexArtifacts{Source: source}

	err := db.QueryRowContext(ctx, `SELECT run_id, model, dimensions FROM meta WHERE id = 1`).
		Scan(&a.RunID, &a.Model, &a.Dimensions)
	if err == sql.ErrNoRows {
		return nil, helpdex.Errorf(helpdex.ENOTFOUND, "metadata artifact missing for source %q", source)
	}
	if err != nil {
		return nil, err
	}

	if err := s.readChunks(ctx, db, a); err != nil {
		return nil, err
	}
	if len(a.Chunks) == 0 {
		return nil, helpdex.Errorf(helpdex.ENOTFOUND, "chunk artifact missing for source %q", source)
	}
	if len(a.Vectors) != len(a.Chunks) {
		return nil, helpdex.Errorf(helpdex.ENOTFOUND, "dense vector artifact missing or incomplete for source %q", source)
	}
	if len(a.TokenLists) != len(a.Chunks) {
		return nil, helpdex.Errorf(helpdex.ENOTFOUND, "lexical artifact missing or incomplete for source %q", source)
	}

	if err := s.readAnchors(ctx, db, a); err != nil {
		return nil, err
	}
	if err := s.readGraph(ctx, db, a); err != nil {
		return nil, err
	}
	if len(a.Graph) == 0 {
		return nil, helpdex.Errorf(helpdex.ENOTFOUND, "link graph artifact missing for source %q", source)
	}
	if err := s.readKeywords(ctx, db, a); err != nil {
		return nil, err
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) readChunks(ctx context.Context, db *DB, a *helpdex.IndexArtifacts) error {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.source, c.page_id, c.title, c.path, c.content, c.html,
			c.chunk_index, c.total_chunks, c.start_offset, c.end_offset,
			c.word_count, c.char_count, c.anchor_ids, v.vector, l.tokens
		FROM chunks c
		LEFT JOIN vectors v ON v.position = c.position
		LEFT JOIN lexical l ON l.position = c.position
		ORDER BY c.position
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var chunk helpdex.Chunk
		var source, anchorIDs string
		var vector []byte
		var tokens sql.NullString
		err := rows.Scan(&chunk.ID, &source, &chunk.PageID, &chunk.Title, &chunk.Path,
			&chunk.Content, &chunk.HTML, &chunk.ChunkIndex, &chunk.TotalChunks,
			&chunk.StartOffset, &chunk.EndOffset, &chunk.Metadata.WordCount,
			&chunk.Metadata.CharCount, &anchorIDs, &vector, &tokens)
		if err != nil {
			return err
		}
		chunk.Source = helpdex.Source(source)
		if err := unmarshalJSON(anchorIDs, &chunk.Metadata.AnchorIDs); err != nil {
			return err
		}
		a.Chunks = append(a.Chunks, &chunk)

		if vector != nil {
			v, err := decodeVector(vector)
			if err != nil {
				return err
			}
			a.Vectors = append(a.Vectors, v)
		}
		if tokens.Valid {
			var list []string
			if err := unmarshalJSON(tokens.String, &list); err != nil {
				return err
			}
			a.TokenLists = append(a.TokenLists, list)
		}
	}
	return rows.Err()
}

func (s *Store) readAnchors(ctx context.Context, db *DB, a *helpdex.IndexArtifacts) error {
	rows, err := db.QueryContext(ctx, `SELECT key, chunk_id, anchor_offset, chunk_start, chunk_end FROM anchors`)
	if err != nil {
		return err
	}
	defer rows.Close()

	a.Anchors = helpdex.AnchorMap{}
	for rows.Next() {
		var key string
		var loc helpdex.AnchorLocation
		if err := rows.Scan(&key, &loc.ChunkID, &loc.Offset, &loc.ChunkStart, &loc.ChunkEnd); err != nil {
			return err
		}
		a.Anchors[key] = loc
	}
	return rows.Err()
}

func (s *Store) readGraph(ctx context.Context, db *DB, a *helpdex.IndexArtifacts) error {
	rows, err := db.QueryContext(ctx, `SELECT page_id, parent, children, see_also FROM graph`)
	if err != nil {
		return err
	}
	defer rows.Close()

	a.Graph = helpdex.LinkGraph{}
	for rows.Next() {
		var pageID, children, seeAlso string
		n := &helpdex.Neighbors{}
		if err := rows.Scan(&pageID, &n.Parent, &children, &seeAlso); err != nil {
			return err
		}
		if err := unmarshalJSON(children, &n.Children); err != nil {
			return err
		}
		if err := unmarshalJSON(seeAlso, &n.SeeAlso); err != nil {
			return err
		}
		a.Graph[pageID] = n
	}
	return rows.Err()
}

func (s *Store) readKeywords(ctx context.Context, db *DB, a *helpdex.IndexArtifacts) error {
	rows, err := db.QueryContext(ctx, `SELECT term, page_ids FROM keywords`)
	if err != nil {
		return err
	}
	defer rows.Close()

	a.Keywords = map[string][]string{}
	for rows.Next() {
		var term, ids string
		if err := rows.Scan(&term, &ids); err != nil {
			return err
		}
		var pageIDs []string
		if err := unmarshalJSON(ids, &pageIDs); err != nil {
			return err
		}
		a.Keywords[term] = pageIDs
	}
	return rows.Err()
}

// ListBuilt reports the sources with a persisted index, sorted by name.
// Stray files that do not correspond to a known source are ignored.
func (s *Store) ListBuilt(ctx context.Context) ([]helpdex.Source, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, helpdex.Errorf(helpdex.EINTERNAL, "failed to read index directory: %v", err)
	}

	var sources []helpdex.Source
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".db") {
			continue
		}
		source, err := helpdex.ParseSource(strings.TrimSuffix(name, ".db"))
		if err != nil {
			continue
		}
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources, nil
}
