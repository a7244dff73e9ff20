// Package session persists entities through database/sql. Entities are added
// to a session and written together when the session commits.
package session

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/conduit-lang/restbind/internal/orm/attachment"
	"github.com/conduit-lang/restbind/internal/orm/schema"
)

// Session is a unit of work over a database connection
type Session struct {
	db       *sql.DB
	dialect  Dialect
	registry *schema.Registry
	logger   *zap.Logger

	mu        sync.Mutex
	pending   []schema.Entity
	persisted map[schema.Entity]struct{}
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a session. Entities are matched to their schema by name
// through registry.
func New(db *sql.DB, dialect Dialect, registry *schema.Registry, opts ...Option) *Session {
	s := &Session{
		db:        db,
		dialect:   dialect,
		registry:  registry,
		logger:    zap.NewNop(),
		persisted: make(map[schema.Entity]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying connection
func (s *Session) DB() *sql.DB {
	return s.db
}

// Dialect returns the session dialect
func (s *Session) Dialect() Dialect {
	return s.dialect
}

// Add schedules e for writing on the next commit. New entities are inserted,
// ones this session already wrote are updated. Adding the same entity twice
// is a no-op.
func (s *Session) Add(e schema.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p == e {
			return
		}
	}
	s.pending = append(s.pending, e)
}

// Pending returns the entities waiting for commit
func (s *Session) Pending() []schema.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.Entity, len(s.pending))
	copy(out, s.pending)
	return out
}

// Rollback discards every pending entity
func (s *Session) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Commit writes all pending entities in one transaction. On success the
// pending list is cleared and generated primary keys are set on the
// entities. On failure nothing is written and the entities stay pending.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	type generated struct {
		entity schema.Entity
		key    string
		value  interface{}
	}
	var keys []generated

	for _, e := range s.pending {
		es, err := s.schemaFor(e)
		if err != nil {
			return err
		}
		if _, ok := s.persisted[e]; ok {
			if err := s.update(ctx, tx, es, e); err != nil {
				return err
			}
			continue
		}
		key, id, err := s.insert(ctx, tx, es, e)
		if err != nil {
			return err
		}
		if key != "" {
			keys = append(keys, generated{entity: e, key: key, value: id})
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", ConvertDBError(err))
	}

	for _, g := range keys {
		g.entity.Set(g.key, g.value)
	}
	for _, e := range s.pending {
		s.persisted[e] = struct{}{}
	}

	s.logger.Info("session committed", zap.Int("entities", len(s.pending)))
	s.pending = nil
	return nil
}

func (s *Session) schemaFor(e schema.Entity) (*schema.EntitySchema, error) {
	es, ok := s.registry.Get(e.EntityName())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredEntity, e.EntityName())
	}
	return es, nil
}

// insert writes one entity. When the primary key is left to the database it
// returns the attribute name and generated value.
func (s *Session) insert(ctx context.Context, tx *sql.Tx, es *schema.EntitySchema, e schema.Entity) (string, interface{}, error) {
	pk, _ := es.PrimaryKey()

	var (
		columns []string
		args    []interface{}
	)
	for _, f := range storedColumns(es) {
		value := e.Get(f.Key)
		if f == pk && value == nil {
			continue
		}
		v, err := columnValue(f, value)
		if err != nil {
			return "", nil, fmt.Errorf("%s.%s: %w", es.Name, f.Key, err)
		}
		columns = append(columns, s.dialect.Quote(f.Key))
		args = append(args, v)
	}

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = s.dialect.Placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.dialect.Quote(es.TableName),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))
	if len(columns) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", s.dialect.Quote(es.TableName))
	}

	generatesKey := pk != nil && e.Get(pk.Key) == nil

	s.logger.Debug("insert", zap.String("entity", es.Name), zap.String("query", query))

	if generatesKey && s.dialect.Returning() {
		query += " RETURNING " + s.dialect.Quote(pk.Key)
		var id interface{}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return "", nil, fmt.Errorf("insert %s: %w", es.Name, ConvertDBError(err))
		}
		return pk.AttributeName(), id, nil
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("insert %s: %w", es.Name, ConvertDBError(err))
	}
	if !generatesKey {
		return "", nil, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, fmt.Errorf("insert %s: last insert id: %w", es.Name, err)
	}
	return pk.AttributeName(), id, nil
}

// update writes every stored column of a persisted entity by primary key
func (s *Session) update(ctx context.Context, tx *sql.Tx, es *schema.EntitySchema, e schema.Entity) error {
	pk, err := es.PrimaryKey()
	if err != nil {
		return err
	}

	var (
		sets []string
		args []interface{}
	)
	for _, f := range storedColumns(es) {
		if f == pk {
			continue
		}
		v, err := columnValue(f, e.Get(f.Key))
		if err != nil {
			return fmt.Errorf("%s.%s: %w", es.Name, f.Key, err)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = %s", s.dialect.Quote(f.Key), s.dialect.Placeholder(len(args))))
	}
	args = append(args, e.Get(pk.Key))

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.dialect.Quote(es.TableName),
		strings.Join(sets, ", "),
		s.dialect.Quote(pk.Key),
		s.dialect.Placeholder(len(args)))

	s.logger.Debug("update", zap.String("entity", es.Name), zap.String("query", query))

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", es.Name, ConvertDBError(err))
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s: %w", es.Name, ErrNotFound)
	}
	return nil
}

// Fetch loads the row with the given primary key into e
func (s *Session) Fetch(ctx context.Context, es *schema.EntitySchema, id interface{}, e schema.Entity) error {
	pk, err := es.PrimaryKey()
	if err != nil {
		return err
	}

	fields := storedColumns(es)
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = s.dialect.Quote(f.Key)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(columns, ", "),
		s.dialect.Quote(es.TableName),
		s.dialect.Quote(pk.Key),
		s.dialect.Placeholder(1))

	values := make([]interface{}, len(fields))
	dest := make([]interface{}, len(fields))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := s.db.QueryRowContext(ctx, query, id).Scan(dest...); err != nil {
		return ConvertDBError(err)
	}

	for i, f := range fields {
		v := values[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if f.Type == schema.TypeBool {
			if n, ok := v.(int64); ok {
				v = n != 0
			}
		}
		if text, ok := v.(string); ok && f.Attachment && text != "" {
			stored := &attachment.StoredFile{}
			if err := stored.Scan(text); err != nil {
				return fmt.Errorf("%s.%s: %w", es.Name, f.Key, err)
			}
			v = stored
		}
		e.Set(f.Key, v)
	}

	s.mu.Lock()
	s.persisted[e] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Count returns the number of rows of es matching every condition. A nil
// map counts all rows; a condition value of Raw is used as SQL verbatim.
func (s *Session) Count(ctx context.Context, es *schema.EntitySchema, conditions map[string]interface{}) (int64, error) {
	keys := make([]string, 0, len(conditions))
	for k := range conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		where []string
		args  []interface{}
	)
	for _, k := range keys {
		if raw, ok := conditions[k].(Raw); ok {
			where = append(where, string(raw))
			continue
		}
		f, err := es.Column(k)
		if err != nil {
			return 0, err
		}
		args = append(args, conditions[k])
		where = append(where, fmt.Sprintf("%s = %s", s.dialect.Quote(f.Key), s.dialect.Placeholder(len(args))))
	}

	query := "SELECT COUNT(*) FROM " + s.dialect.Quote(es.TableName)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, ConvertDBError(err)
	}
	return n, nil
}

// Raw is an SQL predicate passed to Count as is
type Raw string

// CreateTable creates the table for es if it does not exist
func (s *Session) CreateTable(ctx context.Context, es *schema.EntitySchema) error {
	pk, _ := es.PrimaryKey()

	var defs []string
	for _, f := range storedColumns(es) {
		def := s.dialect.Quote(f.Key) + " " + s.dialect.ColumnType(f)
		if f == pk {
			def += " PRIMARY KEY"
			if _, isSQLite := s.dialect.(SQLite); isSQLite && f.Type == schema.TypeInt {
				def += " AUTOINCREMENT"
			}
		} else if !f.Nullable {
			def += " NOT NULL"
		}
		if _, unique := f.Constraint(schema.ConstraintUnique); unique {
			def += " UNIQUE"
		}
		defs = append(defs, def)
	}
	defs = append(defs, s.foreignKeys(es)...)

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		s.dialect.Quote(es.TableName), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", es.TableName, err)
	}
	return nil
}

// foreignKeys declares a reference for every to-one relationship whose
// target is registered. The target table must exist first on postgres; see
// schema.Registry.CreationOrder.
func (s *Session) foreignKeys(es *schema.EntitySchema) []string {
	if s.registry == nil {
		return nil
	}

	var defs []string
	for _, f := range es.IterColumns(schema.IterOptions{Relationships: true}) {
		if f.Kind != schema.KindRelationship || f.Uselist || f.ForeignKey == "" {
			continue
		}
		target, ok := s.registry.Get(f.Target)
		if !ok {
			continue
		}
		pk, err := target.PrimaryKey()
		if err != nil {
			continue
		}
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			s.dialect.Quote(f.ForeignKey), s.dialect.Quote(target.TableName), s.dialect.Quote(pk.Key)))
	}
	return defs
}

func storedColumns(es *schema.EntitySchema) []*schema.Field {
	var out []*schema.Field
	for _, f := range es.IterColumns(schema.IterOptions{}) {
		if f.Kind == schema.KindColumn {
			out = append(out, f)
		}
	}
	return out
}

// columnValue converts an attribute value into a driver argument. Values
// implementing driver.Valuer are passed through; sets and JSON columns are
// stored as JSON text.
func columnValue(f *schema.Field, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if v, ok := value.(driver.Valuer); ok {
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil, nil
		}
		return v.Value()
	}

	switch f.Type {
	case schema.TypeJSON:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	case schema.TypeSet:
		data, err := json.Marshal(setMembers(value))
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	return value, nil
}

func setMembers(value interface{}) interface{} {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return value
	}
	members := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		if iter.Value().Kind() == reflect.Bool && !iter.Value().Bool() {
			continue
		}
		members = append(members, fmt.Sprint(iter.Key().Interface()))
	}
	sort.Strings(members)
	return members
}
