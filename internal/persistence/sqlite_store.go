package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/petrijr/flowgate/pkg/engine"
)

// SQLiteStore implements the engine read stores on top of SQLite, plus the
// write methods an engine adapter uses to mirror its state into the tables.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the driver,
// e.g.:
//
//	import _ "modernc.org/sqlite"
//
// Definitions and tokens are stored as JSON blobs; the columns used by
// filters are broken out so queries stay index-friendly.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements the engine read interfaces.
var _ engine.DefinitionStore = (*SQLiteStore)(nil)

var _ engine.InstanceStore = (*SQLiteStore)(nil)

var _ engine.FlowNodeStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS process_definitions (
			id TEXT PRIMARY KEY,
			model_key TEXT NOT NULL,
			name TEXT NOT NULL,
			executable INTEGER NOT NULL,
			model BLOB
		);
		CREATE TABLE IF NOT EXISTS process_instances (
			id TEXT PRIMARY KEY,
			process_model_id TEXT NOT NULL,
			correlation_id TEXT NOT NULL,
			caller_id TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS flow_node_instances (
			id TEXT PRIMARY KEY,
			flow_node_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			state TEXT NOT NULL,
			process_instance_id TEXT NOT NULL,
			process_model_id TEXT NOT NULL,
			correlation_id TEXT NOT NULL,
			token BLOB
		);`,
	)
	return err
}

// SaveProcessDefinition inserts or replaces a definition by id.
func (s *SQLiteStore) SaveProcessDefinition(ctx context.Context, def *engine.ProcessDefinition) error {
	model, err := EncodeValue(def)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO process_definitions (id, model_key, name, executable, model)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET model_key = excluded.model_key,
			name = excluded.name, executable = excluded.executable,
			model = excluded.model`,
		def.ID,
		def.Key,
		def.Name,
		boolToInt(def.Executable),
		model,
	)
	return err
}

// SaveProcessInstance inserts or replaces a process instance by id.
func (s *SQLiteStore) SaveProcessInstance(ctx context.Context, inst *engine.ProcessInstance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO process_instances (id, process_model_id, correlation_id, caller_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET process_model_id = excluded.process_model_id,
			correlation_id = excluded.correlation_id, caller_id = excluded.caller_id`,
		inst.ID,
		inst.ProcessModelID,
		inst.CorrelationID,
		inst.CallerID,
	)
	return err
}

// SaveFlowNodeInstance inserts or replaces a flow node instance by id.
func (s *SQLiteStore) SaveFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error {
	token, err := EncodeValue(fni.Token)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flow_node_instances (id, flow_node_id, kind, state, process_instance_id, process_model_id, correlation_id, token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET flow_node_id = excluded.flow_node_id,
			kind = excluded.kind, state = excluded.state,
			process_instance_id = excluded.process_instance_id,
			process_model_id = excluded.process_model_id,
			correlation_id = excluded.correlation_id, token = excluded.token`,
		fni.ID,
		fni.FlowNodeID,
		string(fni.Kind),
		string(fni.State),
		fni.ProcessInstanceID,
		fni.ProcessModelID,
		fni.CorrelationID,
		token,
	)
	return err
}

// UpdateFlowNodeInstance replaces the mutable parts of an existing flow node
// instance (state and token).
func (s *SQLiteStore) UpdateFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error {
	token, err := EncodeValue(fni.Token)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE flow_node_instances
		SET state = ?, token = ?
		WHERE id = ?`,
		string(fni.State),
		token,
		fni.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return engine.ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) ProcessDefinitionByID(ctx context.Context, id string) (*engine.ProcessDefinition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT model FROM process_definitions WHERE id = ?`,
		id,
	)
	return scanDefinition(row)
}

func (s *SQLiteStore) ProcessDefinitionByKey(ctx context.Context, key string) (*engine.ProcessDefinition, error) {
	// Newest deployment under the key wins; rowid follows insert order.
	row := s.db.QueryRowContext(ctx, `
		SELECT model FROM process_definitions
		WHERE model_key = ?
		ORDER BY rowid DESC
		LIMIT 1`,
		key,
	)
	return scanDefinition(row)
}

func (s *SQLiteStore) ProcessDefinitions(ctx context.Context) ([]*engine.ProcessDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model FROM process_definitions ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []*engine.ProcessDefinition
	for rows.Next() {
		var model []byte
		if err := rows.Scan(&model); err != nil {
			return nil, err
		}
		def, err := DecodeValue[*engine.ProcessDefinition](model)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return defs, nil
}

func (s *SQLiteStore) ProcessInstances(ctx context.Context, filter engine.InstanceFilter) ([]*engine.ProcessInstance, error) {
	query := `
		SELECT id, process_model_id, correlation_id, caller_id
		FROM process_instances`
	var args []any
	var clauses []string

	if filter.CorrelationID != "" {
		clauses = append(clauses, "correlation_id = ?")
		args = append(args, filter.CorrelationID)
	}
	if filter.ProcessModelID != "" {
		clauses = append(clauses, "process_model_id = ?")
		args = append(args, filter.ProcessModelID)
	}
	if filter.OnlyMain {
		clauses = append(clauses, "caller_id = ''")
	}
	if len(filter.CallerIDs) > 0 {
		placeholders := make([]string, len(filter.CallerIDs))
		for i, id := range filter.CallerIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		clauses = append(clauses, "caller_id IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query = query + " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*engine.ProcessInstance
	for rows.Next() {
		var inst engine.ProcessInstance
		if err := rows.Scan(&inst.ID, &inst.ProcessModelID, &inst.CorrelationID, &inst.CallerID); err != nil {
			return nil, err
		}
		copied := inst
		instances = append(instances, &copied)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *SQLiteStore) FlowNodeInstances(ctx context.Context, filter engine.FlowNodeFilter) ([]*engine.FlowNodeInstance, error) {
	query := `
		SELECT id, flow_node_id, kind, state, process_instance_id, process_model_id, correlation_id, token
		FROM flow_node_instances`
	var args []any
	var clauses []string

	if filter.CorrelationID != "" {
		clauses = append(clauses, "correlation_id = ?")
		args = append(args, filter.CorrelationID)
	}
	if filter.ProcessModelID != "" {
		clauses = append(clauses, "process_model_id = ?")
		args = append(args, filter.ProcessModelID)
	}
	if filter.ProcessInstanceID != "" {
		clauses = append(clauses, "process_instance_id = ?")
		args = append(args, filter.ProcessInstanceID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, string(filter.State))
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query = query + " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*engine.FlowNodeInstance
	for rows.Next() {
		fni, err := scanFlowNodeInstance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, fni)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row *sql.Row) (*engine.ProcessDefinition, error) {
	var model []byte
	if err := row.Scan(&model); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return DecodeValue[*engine.ProcessDefinition](model)
}

func scanFlowNodeInstance(row rowScanner) (*engine.FlowNodeInstance, error) {
	var fni engine.FlowNodeInstance
	var kind, state string
	var token []byte

	if err := row.Scan(&fni.ID, &fni.FlowNodeID, &kind, &state, &fni.ProcessInstanceID, &fni.ProcessModelID, &fni.CorrelationID, &token); err != nil {
		return nil, err
	}

	fni.Kind = engine.FlowNodeKind(kind)
	fni.State = engine.FlowNodeState(state)

	tok, err := DecodeValue[engine.Token](token)
	if err != nil {
		return nil, err
	}
	fni.Token = tok

	return &fni, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
