package schema

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/sqlserve/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Provider fetches table metadata for a data type.
type Provider interface {
	Tables(ctx context.Context, dataType string) ([]TableMetadata, error)
}

// DomainLister is implemented by providers that can enumerate their data types.
type DomainLister interface {
	Domains(ctx context.Context) ([]string, error)
}

var domainPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidDomain reports whether name is usable as a data type key.
func ValidDomain(name string) bool {
	return domainPattern.MatchString(name)
}

// schemaFile is the on-disk layout of <dir>/<domain>.toml.
type schemaFile struct {
	Tables []TableMetadata `toml:"tables"`
}

// FileProvider reads one TOML file per domain from a directory.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Dir returns the directory schema files are read from.
func (p *FileProvider) Dir() string {
	return p.dir
}

// Path returns the schema file path for dataType.
func (p *FileProvider) Path(dataType string) string {
	return filepath.Join(p.dir, dataType+".toml")
}

// Tables decodes <dir>/<dataType>.toml.
func (p *FileProvider) Tables(ctx context.Context, dataType string) ([]TableMetadata, error) {
	if !ValidDomain(dataType) {
		return nil, errors.Wrapf(ErrUnknownDomain, "invalid domain name %q", dataType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := p.Path(dataType)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrUnknownDomain, "no schema file for %q", dataType)
		}
		return nil, errors.Wrapf(err, "failed to stat schema file %s", path)
	}

	var file schemaFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse schema file %s", path)
	}

	log.Debugf("Loaded %d tables for domain '%s' from %s", len(file.Tables), dataType, path)
	return file.Tables, nil
}

// Domains lists the schema files in the directory.
func (p *FileProvider) Domains(ctx context.Context) ([]string, error) {
	stems, err := utils.ListTOMLStems(p.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list schema dir %s", p.dir)
	}
	domains := stems[:0]
	for _, s := range stems {
		if ValidDomain(s) {
			domains = append(domains, s)
		}
	}
	return domains, nil
}

const schemataQuery = `SELECT schema_name
FROM information_schema.schemata
WHERE schema_name <> 'information_schema' AND schema_name NOT LIKE 'pg\_%'
ORDER BY schema_name`

const columnsQuery = `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`

// DBProvider reads table metadata from information_schema. Each data type
// maps to a database schema of the same name.
type DBProvider struct {
	db *sql.DB
}

// NewDBProvider wraps an open database handle.
func NewDBProvider(db *sql.DB) *DBProvider {
	return &DBProvider{db: db}
}

// Domains lists the non-system database schemas.
func (p *DBProvider) Domains(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, schemataQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query schemata")
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan schema name")
		}
		domains = append(domains, name)
	}
	return domains, errors.Wrap(rows.Err(), "failed to iterate schemata")
}

// Tables lists the columns of every table in the dataType schema.
func (p *DBProvider) Tables(ctx context.Context, dataType string) ([]TableMetadata, error) {
	if !ValidDomain(dataType) {
		return nil, errors.Wrapf(ErrUnknownDomain, "invalid domain name %q", dataType)
	}

	rows, err := p.db.QueryContext(ctx, columnsQuery, dataType)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query columns for schema %s", dataType)
	}
	defer rows.Close()

	var tables []TableMetadata
	for rows.Next() {
		var tableName, columnName, dataTypeName string
		if err := rows.Scan(&tableName, &columnName, &dataTypeName); err != nil {
			return nil, errors.Wrap(err, "failed to scan column row")
		}
		// rows arrive grouped by table
		if n := len(tables); n == 0 || tables[n-1].TableName != tableName {
			tables = append(tables, TableMetadata{TableName: tableName})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, ColumnMetadata{ColumnName: columnName, DataType: dataTypeName})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate column rows")
	}

	if len(tables) == 0 {
		return nil, errors.Wrapf(ErrUnknownDomain, "schema %s has no tables", dataType)
	}
	return tables, nil
}
