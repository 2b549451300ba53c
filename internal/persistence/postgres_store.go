package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/petrijr/flowgate/pkg/engine"
)

// PostgresStore implements the engine read stores on top of PostgreSQL, plus
// the write methods an engine adapter uses to mirror its state into the
// tables.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib" or "github.com/lib/pq").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresStore struct {
	db *sql.DB
}

// Ensure PostgresStore implements the engine read interfaces.
var _ engine.DefinitionStore = (*PostgresStore)(nil)

var _ engine.InstanceStore = (*PostgresStore)(nil)

var _ engine.FlowNodeStore = (*PostgresStore)(nil)

// NewPostgresStore initializes the required schema in the given database and
// returns a new PostgresStore.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS process_definitions (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			model_key TEXT NOT NULL,
			name TEXT NOT NULL,
			executable BOOLEAN NOT NULL,
			model BYTEA
		);
		CREATE TABLE IF NOT EXISTS process_instances (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			process_model_id TEXT NOT NULL,
			correlation_id TEXT NOT NULL,
			caller_id TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS flow_node_instances (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			flow_node_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			state TEXT NOT NULL,
			process_instance_id TEXT NOT NULL,
			process_model_id TEXT NOT NULL,
			correlation_id TEXT NOT NULL,
			token BYTEA
		);
	`)
	return err
}

// SaveProcessDefinition inserts or replaces a definition by id.
func (s *PostgresStore) SaveProcessDefinition(ctx context.Context, def *engine.ProcessDefinition) error {
	model, err := EncodeValue(def)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO process_definitions (id, model_key, name, executable, model)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET model_key = EXCLUDED.model_key,
			name = EXCLUDED.name, executable = EXCLUDED.executable,
			model = EXCLUDED.model
	`,
		def.ID,
		def.Key,
		def.Name,
		def.Executable,
		model,
	)
	return err
}

// SaveProcessInstance inserts or replaces a process instance by id.
func (s *PostgresStore) SaveProcessInstance(ctx context.Context, inst *engine.ProcessInstance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO process_instances (id, process_model_id, correlation_id, caller_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET process_model_id = EXCLUDED.process_model_id,
			correlation_id = EXCLUDED.correlation_id, caller_id = EXCLUDED.caller_id
	`,
		inst.ID,
		inst.ProcessModelID,
		inst.CorrelationID,
		inst.CallerID,
	)
	return err
}

// SaveFlowNodeInstance inserts or replaces a flow node instance by id.
func (s *PostgresStore) SaveFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error {
	token, err := EncodeValue(fni.Token)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flow_node_instances (id, flow_node_id, kind, state, process_instance_id, process_model_id, correlation_id, token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET flow_node_id = EXCLUDED.flow_node_id,
			kind = EXCLUDED.kind, state = EXCLUDED.state,
			process_instance_id = EXCLUDED.process_instance_id,
			process_model_id = EXCLUDED.process_model_id,
			correlation_id = EXCLUDED.correlation_id, token = EXCLUDED.token
	`,
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
func (s *PostgresStore) UpdateFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error {
	token, err := EncodeValue(fni.Token)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE flow_node_instances
		SET state = $1,
		    token = $2
		WHERE id = $3
	`,
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

func (s *PostgresStore) ProcessDefinitionByID(ctx context.Context, id string) (*engine.ProcessDefinition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT model FROM process_definitions WHERE id = $1
	`,
		id,
	)
	return scanDefinition(row)
}

func (s *PostgresStore) ProcessDefinitionByKey(ctx context.Context, key string) (*engine.ProcessDefinition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT model FROM process_definitions
		WHERE model_key = $1
		ORDER BY seq DESC
		LIMIT 1
	`,
		key,
	)
	return scanDefinition(row)
}

func (s *PostgresStore) ProcessDefinitions(ctx context.Context) ([]*engine.ProcessDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model FROM process_definitions ORDER BY seq
	`)
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

func (s *PostgresStore) ProcessInstances(ctx context.Context, filter engine.InstanceFilter) ([]*engine.ProcessInstance, error) {
	query := `
		SELECT id, process_model_id, correlation_id, caller_id
		FROM process_instances`
	var args []any
	var clauses []string

	if filter.CorrelationID != "" {
		clauses = append(clauses, fmt.Sprintf("correlation_id = $%d", len(args)+1))
		args = append(args, filter.CorrelationID)
	}
	if filter.ProcessModelID != "" {
		clauses = append(clauses, fmt.Sprintf("process_model_id = $%d", len(args)+1))
		args = append(args, filter.ProcessModelID)
	}
	if filter.OnlyMain {
		clauses = append(clauses, "caller_id = ''")
	}
	if len(filter.CallerIDs) > 0 {
		placeholders := make([]string, len(filter.CallerIDs))
		for i, id := range filter.CallerIDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		clauses = append(clauses, "caller_id IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query = query + " ORDER BY seq"

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

func (s *PostgresStore) FlowNodeInstances(ctx context.Context, filter engine.FlowNodeFilter) ([]*engine.FlowNodeInstance, error) {
	query := `
		SELECT id, flow_node_id, kind, state, process_instance_id, process_model_id, correlation_id, token
		FROM flow_node_instances`
	var args []any
	var clauses []string

	if filter.CorrelationID != "" {
		clauses = append(clauses, fmt.Sprintf("correlation_id = $%d", len(args)+1))
		args = append(args, filter.CorrelationID)
	}
	if filter.ProcessModelID != "" {
		clauses = append(clauses, fmt.Sprintf("process_model_id = $%d", len(args)+1))
		args = append(args, filter.ProcessModelID)
	}
	if filter.ProcessInstanceID != "" {
		clauses = append(clauses, fmt.Sprintf("process_instance_id = $%d", len(args)+1))
		args = append(args, filter.ProcessInstanceID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, string(filter.Kind))
	}
	if filter.State != "" {
		clauses = append(clauses, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, string(filter.State))
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query = query + " ORDER BY seq"

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
