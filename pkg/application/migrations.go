package application

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

const migrationsTable = "logistics_schema_migrations"

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

type MigrationStatus struct {
	Version int64  `json:"version"`
	Source  string `json:"source"`
	Applied bool   `json:"applied"`
}

type migrationManager struct {
	pool    *pgxpool.Pool
	logger  *logrus.Logger
	schemas []*embed.FS
}

func NewMigrationManager(pool *pgxpool.Pool, logger *logrus.Logger) MigrationManager {
	return &migrationManager{pool: pool, logger: logger}
}

func (m *migrationManager) RegisterSchema(fs ...*embed.FS) {
	m.schemas = append(m.schemas, fs...)
}

// collect flattens every registered .sql file into one directory. goose
// versions come from the numeric file name prefix.
func (m *migrationManager) collect() (fstest.MapFS, error) {
	out := fstest.MapFS{}
	for _, schema := range m.schemas {
		err := fs.WalkDir(schema, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(p, ".sql") {
				return err
			}
			name := path.Base(p)
			if _, dup := out[name]; dup {
				return errors.Errorf("duplicate migration file %s", name)
			}
			data, err := schema.ReadFile(p)
			if err != nil {
				return err
			}
			out[name] = &fstest.MapFile{Data: data}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *migrationManager) withGoose(fn func(files fs.FS) error) error {
	if m.pool == nil {
		return errors.New("migrations: no database pool")
	}
	files, err := m.collect()
	if err != nil {
		return errors.Wrap(err, "collect migrations")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)
	goose.SetTableName(migrationsTable)
	goose.SetLogger(m.logger)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(files)
}

func (m *migrationManager) Run(ctx context.Context) error {
	return m.withGoose(func(fs.FS) error {
		db := stdlib.OpenDBFromPool(m.pool)
		defer db.Close()
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return errors.Wrap(err, "apply migrations")
		}
		return nil
	})
}

func (m *migrationManager) Status(ctx context.Context) ([]MigrationStatus, error) {
	var out []MigrationStatus
	err := m.withGoose(func(files fs.FS) error {
		db := stdlib.OpenDBFromPool(m.pool)
		defer db.Close()
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return errors.Wrap(err, "read schema version")
		}
		migrations, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
		if err != nil {
			return errors.Wrap(err, "collect migrations")
		}
		for _, mg := range migrations {
			out = append(out, MigrationStatus{
				Version: mg.Version,
				Source:  path.Base(mg.Source),
				Applied: mg.Version <= current,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, err
}
