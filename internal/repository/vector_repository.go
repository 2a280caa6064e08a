package repository

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/sayu/sayu-backend/internal/apperr"
	"github.com/sayu/sayu-backend/internal/model"
	"github.com/sayu/sayu-backend/internal/personality"
	"github.com/sayu/sayu-backend/internal/vector"
)

// VectorRepository is the pgvector-backed vector.Store. Archetype vectors live in
// archetype_vectors, content vectors (with their metadata) in content_vectors.
// Nearest orders by cosine distance (<=>), so similarity = 1 - distance.
type VectorRepository struct {
	pool *pgxpool.Pool
	dim  int
}

// NewVectorRepository creates a new VectorRepository for vectors of dim dimensions.
func NewVectorRepository(pool *pgxpool.Pool, dim int) *VectorRepository {
	if dim <= 0 {
		dim = vector.DefaultDim
	}
	return &VectorRepository{pool: pool, dim: dim}
}

var _ vector.Store = (*VectorRepository)(nil)

// Get retrieves one vector by key.
func (r *VectorRepository) Get(ctx context.Context, key vector.Key) (vector.Vector, error) {
	kind, id, err := key.Split()
	if err != nil {
		return nil, err
	}

	var v pgvector.Vector
	switch kind {
	case vector.KindArchetype:
		err = r.pool.QueryRow(ctx,
			`SELECT embedding FROM archetype_vectors WHERE type_code = $1`, id).Scan(&v)
	default:
		err = r.pool.QueryRow(ctx,
			`SELECT embedding FROM content_vectors WHERE item_id = $1`, id).Scan(&v)
	}
	if err != nil {
		return nil, storeErr("get vector", "vector", key, err)
	}
	return v.Slice(), nil
}

// Upsert writes a vector, overwriting any previous value. New content rows are
// created as artworks with empty metadata; use UpsertContent to set both.
func (r *VectorRepository) Upsert(ctx context.Context, key vector.Key, v vector.Vector) error {
	kind, id, err := key.Split()
	if err != nil {
		return err
	}
	if err := vector.CheckDim(v, r.dim); err != nil {
		return err
	}

	switch kind {
	case vector.KindArchetype:
		_, err = r.pool.Exec(ctx,
			`INSERT INTO archetype_vectors (type_code, embedding)
			 VALUES ($1, $2)
			 ON CONFLICT (type_code) DO UPDATE
			 SET embedding = EXCLUDED.embedding, updated_at = NOW()`,
			id, pgvector.NewVector(v))
	default:
		_, err = r.pool.Exec(ctx,
			`INSERT INTO content_vectors (item_id, kind, embedding)
			 VALUES ($1, 'artwork', $2)
			 ON CONFLICT (item_id) DO UPDATE
			 SET embedding = EXCLUDED.embedding, updated_at = NOW()`,
			id, pgvector.NewVector(v))
	}
	return apperr.Unavailable("upsert vector", err)
}

// UpsertContent writes a content item's vector together with its kind and metadata.
func (r *VectorRepository) UpsertContent(ctx context.Context, c *model.ContentVector) error {
	if err := vector.CheckDim(c.Vector, r.dim); err != nil {
		return err
	}
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO content_vectors (item_id, kind, embedding, metadata)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (item_id) DO UPDATE
		 SET kind = EXCLUDED.kind,
		     embedding = EXCLUDED.embedding,
		     metadata = EXCLUDED.metadata,
		     updated_at = NOW()`,
		c.ItemID, string(c.Kind), pgvector.NewVector(c.Vector), meta)
	return apperr.Unavailable("upsert content vector", err)
}

// Nearest returns the limit vectors of kind closest to query by cosine distance.
func (r *VectorRepository) Nearest(ctx context.Context, kind vector.Kind, query vector.Vector, limit int) ([]vector.Match, error) {
	if err := vector.CheckDim(query, r.dim); err != nil {
		return nil, err
	}

	var sql string
	switch kind {
	case vector.KindArchetype:
		sql = `SELECT type_code, embedding, 1 - (embedding <=> $1) AS similarity
		       FROM archetype_vectors
		       ORDER BY embedding <=> $1, type_code
		       LIMIT $2`
	case vector.KindContent:
		sql = `SELECT item_id, embedding, 1 - (embedding <=> $1) AS similarity
		       FROM content_vectors
		       ORDER BY embedding <=> $1, item_id
		       LIMIT $2`
	default:
		return nil, apperr.Invalid("unknown vector kind %q", kind)
	}

	rows, err := r.pool.Query(ctx, sql, pgvector.NewVector(query), limitOrAll(limit))
	if err != nil {
		return nil, apperr.Unavailable("nearest vectors", err)
	}
	defer rows.Close()

	var matches []vector.Match
	for rows.Next() {
		var (
			id  string
			v   pgvector.Vector
			sim float64
		)
		if err := rows.Scan(&id, &v, &sim); err != nil {
			return nil, err
		}
		key := vector.ContentKey(id)
		if kind == vector.KindArchetype {
			key = vector.ArchetypeKey(personality.TypeCode(id))
		}
		matches = append(matches, vector.Match{Key: key, Vector: v.Slice(), Similarity: sim})
	}
	return matches, rows.Err()
}

// NearestContent returns up to limit content items of one kind closest to query,
// with metadata, ordered by cosine distance.
func (r *VectorRepository) NearestContent(ctx context.Context, kind model.ContentKind, query vector.Vector, limit int) ([]model.ContentVector, error) {
	if err := vector.CheckDim(query, r.dim); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT item_id, kind, embedding, metadata
		 FROM content_vectors
		 WHERE kind = $2
		 ORDER BY embedding <=> $1, item_id
		 LIMIT $3`,
		pgvector.NewVector(query), string(kind), limitOrAll(limit))
	if err != nil {
		return nil, apperr.Unavailable("nearest content", err)
	}
	defer rows.Close()

	var items []model.ContentVector
	for rows.Next() {
		var (
			c    model.ContentVector
			v    pgvector.Vector
			meta []byte
		)
		if err := rows.Scan(&c.ItemID, &c.Kind, &v, &meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, err
		}
		c.Vector = v.Slice()
		items = append(items, c)
	}
	return items, rows.Err()
}

// limitOrAll turns a non-positive limit into SQL's LIMIT ALL.
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
