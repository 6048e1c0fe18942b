// Package persistence stores scene snapshots in SQLite.
package persistence

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/talgya/relief/internal/engine"
	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/lighting"
	"github.com/talgya/relief/internal/noise"
	"github.com/talgya/relief/internal/world"
)

// ErrNotFound is returned for unknown scene ids and meta keys.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection holding stored scenes.
type DB struct {
	conn *sqlx.DB
	log  *zap.Logger
}

// SceneRow is the summary of one stored scene.
type SceneRow struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"-" json:"created_at"`
	Created   int64     `db:"created_at" json:"-"` // Unix milliseconds
	Width     int       `db:"width" json:"width"`
	Height    int       `db:"height" json:"height"`
	Seed      int64     `db:"seed" json:"seed"`
	Backend   string    `db:"backend" json:"backend"`
	Anchor    string    `db:"anchor" json:"anchor"`
	LightX    float64   `db:"light_x" json:"light_x"`
	LightY    float64   `db:"light_y" json:"light_y"`
	LightZ    float64   `db:"light_z" json:"light_z"`
}

type sceneRecord struct {
	SceneRow
	Intensity float64 `db:"light_intensity"`
	Layers    string  `db:"layers_json"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, log: log}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		backend TEXT NOT NULL,
		anchor TEXT NOT NULL,
		light_x REAL NOT NULL,
		light_y REAL NOT NULL,
		light_z REAL NOT NULL,
		light_intensity REAL NOT NULL,
		layers_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scene_layers (
		scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (scene_id, name)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenes_created ON scenes(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// layerParams is the JSON form of the base method and the three layer settings.
type layerParams struct {
	Method          string      `json:"method,omitempty"`
	Base            world.Layer `json:"base"`
	Continentalness world.Layer `json:"continentalness"`
	Erosion         world.Layer `json:"erosion"`
}

// SaveScene stores a snapshot under a new id and returns it. The snapshot's
// ID field is set as well.
func (db *DB) SaveScene(snap *engine.Snapshot) (string, error) {
	if snap == nil || snap.Terrain == nil {
		return "", errors.New("save scene: snapshot has no terrain")
	}
	id := uuid.NewString()
	created := snap.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	params, err := json.Marshal(layerParams{
		Method:          snap.Gen.Method.String(),
		Base:            snap.Gen.Base,
		Continentalness: snap.Gen.Continentalness,
		Erosion:         snap.Gen.Erosion,
	})
	if err != nil {
		return "", fmt.Errorf("save scene: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO scenes
		(id, label, created_at, width, height, seed, backend, anchor,
		 light_x, light_y, light_z, light_intensity, layers_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, snap.Label, created.UnixMilli(),
		snap.Terrain.Width(), snap.Terrain.Height(), snap.Gen.Seed,
		snap.Gen.Backend.String(), snap.Anchor.String(),
		snap.Light.X, snap.Light.Y, snap.Light.Z, snap.Light.Intensity,
		string(params),
	)
	if err != nil {
		return "", fmt.Errorf("insert scene: %w", err)
	}

	stmt, err := tx.Preparex("INSERT INTO scene_layers (scene_id, name, data) VALUES (?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	var total int
	for name, g := range snap.Layers() {
		blob := EncodeCells(g.Cells())
		total += len(blob)
		if _, err := stmt.Exec(id, name, blob); err != nil {
			return "", fmt.Errorf("insert layer %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	snap.ID = id
	db.log.Info("scene saved", zap.String("id", id), zap.Int("bytes", total))
	return id, nil
}

// LoadScene reads a stored scene.
func (db *DB) LoadScene(id string) (*engine.Snapshot, error) {
	var rec sceneRecord
	err := db.conn.Get(&rec, `SELECT id, label, created_at, width, height, seed, backend, anchor,
		light_x, light_y, light_z, light_intensity, layers_json
		FROM scenes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load scene %s: %w", id, err)
	}

	backend, err := noise.ParseBackend(rec.Backend)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}
	anchor, err := lighting.ParseAnchor(rec.Anchor)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}
	var params layerParams
	if err := json.Unmarshal([]byte(rec.Layers), &params); err != nil {
		return nil, fmt.Errorf("scene %s: layer params: %w", id, err)
	}
	method, err := world.ParseMethod(params.Method)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}

	var layers []struct {
		Name string `db:"name"`
		Data []byte `db:"data"`
	}
	if err := db.conn.Select(&layers, "SELECT name, data FROM scene_layers WHERE scene_id = ?", id); err != nil {
		return nil, fmt.Errorf("load layers %s: %w", id, err)
	}

	grids := make(map[string]*grid.Grid, len(layers))
	for _, l := range layers {
		cells, err := DecodeCells(l.Data)
		if err != nil {
			return nil, fmt.Errorf("scene %s layer %s: %w", id, l.Name, err)
		}
		g, err := grid.FromCells(rec.Width, rec.Height, cells)
		if err != nil {
			return nil, fmt.Errorf("scene %s layer %s: %w", id, l.Name, err)
		}
		grids[l.Name] = g
	}

	terrain, err := world.Assemble(grids)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}

	return &engine.Snapshot{
		ID:        rec.ID,
		Label:     rec.Label,
		CreatedAt: time.UnixMilli(rec.Created).UTC(),
		Gen: world.GenConfig{
			Width:           rec.Width,
			Height:          rec.Height,
			Seed:            rec.Seed,
			Backend:         backend,
			Method:          method,
			Base:            params.Base,
			Continentalness: params.Continentalness,
			Erosion:         params.Erosion,
		},
		Anchor: anchor,
		Light: lighting.Light{
			X: rec.LightX, Y: rec.LightY, Z: rec.LightZ, Intensity: rec.Intensity,
		},
		Terrain:  terrain,
		Lightmap: grids[engine.LayerLightmap],
	}, nil
}

// ListScenes returns the most recent scenes, newest first.
func (db *DB) ListScenes(limit int) ([]SceneRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []SceneRow
	err := db.conn.Select(&rows, `SELECT id, label, created_at, width, height, seed, backend, anchor,
		light_x, light_y, light_z
		FROM scenes ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].CreatedAt = time.UnixMilli(rows[i].Created).UTC()
	}
	return rows, nil
}

// DeleteScene removes a scene and its layers.
func (db *DB) DeleteScene(id string) error {
	res, err := db.conn.Exec("DELETE FROM scenes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete scene %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scene %s: %w", id, ErrNotFound)
	}
	// Layers cascade when foreign keys are on; clear them regardless.
	_, err = db.conn.Exec("DELETE FROM scene_layers WHERE scene_id = ?", id)
	return err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %s: %w", key, ErrNotFound)
	}
	return value, err
}

// EncodeCells packs cells as little-endian float32.
func EncodeCells(cells []float32) []byte {
	buf := make([]byte, 4*len(cells))
	for i, v := range cells {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// DecodeCells unpacks little-endian float32 cells.
func DecodeCells(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cell blob length %d is not a multiple of 4", len(data))
	}
	cells := make([]float32, len(data)/4)
	for i := range cells {
		cells[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return cells, nil
}
