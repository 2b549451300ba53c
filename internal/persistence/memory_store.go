package persistence

import (
	"context"
	"sync"

	"github.com/petrijr/flowgate/pkg/engine"
)

// MemoryStore is a goroutine-safe implementation of the engine read stores
// backed by maps, plus the write methods an engine adapter uses to populate
// them.
//
// Listings are returned in insertion order, so discovery order and result
// order stay deterministic across runs.
type MemoryStore struct {
	mu sync.RWMutex

	definitions     map[string]*engine.ProcessDefinition
	definitionOrder []string

	instances     map[string]*engine.ProcessInstance
	instanceOrder []string

	flowNodes     map[string]*engine.FlowNodeInstance
	flowNodeOrder []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		definitions: make(map[string]*engine.ProcessDefinition),
		instances:   make(map[string]*engine.ProcessInstance),
		flowNodes:   make(map[string]*engine.FlowNodeInstance),
	}
}

// Ensure MemoryStore implements the engine read interfaces.
var _ engine.DefinitionStore = (*MemoryStore)(nil)

var _ engine.InstanceStore = (*MemoryStore)(nil)

var _ engine.FlowNodeStore = (*MemoryStore)(nil)

// SaveProcessDefinition inserts or replaces a definition by id.
func (s *MemoryStore) SaveProcessDefinition(ctx context.Context, def *engine.ProcessDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.definitions[def.ID]; !ok {
		s.definitionOrder = append(s.definitionOrder, def.ID)
	}
	s.definitions[def.ID] = def
	return nil
}

// SaveProcessInstance inserts or replaces a process instance by id.
func (s *MemoryStore) SaveProcessInstance(ctx context.Context, inst *engine.ProcessInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[inst.ID]; !ok {
		s.instanceOrder = append(s.instanceOrder, inst.ID)
	}
	s.instances[inst.ID] = inst
	return nil
}

// SaveFlowNodeInstance inserts or replaces a flow node instance by id.
func (s *MemoryStore) SaveFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flowNodes[fni.ID]; !ok {
		s.flowNodeOrder = append(s.flowNodeOrder, fni.ID)
	}
	s.flowNodes[fni.ID] = fni
	return nil
}

// UpdateFlowNodeInstance replaces the mutable parts of an existing flow node
// instance (state and token).
func (s *MemoryStore) UpdateFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.flowNodes[fni.ID]
	if !ok {
		return engine.ErrNotFound
	}
	updated := *existing
	updated.State = fni.State
	updated.Token = fni.Token
	s.flowNodes[fni.ID] = &updated
	return nil
}

func (s *MemoryStore) ProcessDefinitionByID(ctx context.Context, id string) (*engine.ProcessDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return def, nil
}

func (s *MemoryStore) ProcessDefinitionByKey(ctx context.Context, key string) (*engine.ProcessDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest deployment under the key wins.
	for i := len(s.definitionOrder) - 1; i >= 0; i-- {
		def := s.definitions[s.definitionOrder[i]]
		if def.Key == key {
			return def, nil
		}
	}
	return nil, engine.ErrNotFound
}

func (s *MemoryStore) ProcessDefinitions(ctx context.Context) ([]*engine.ProcessDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*engine.ProcessDefinition, 0, len(s.definitionOrder))
	for _, id := range s.definitionOrder {
		result = append(result, s.definitions[id])
	}
	return result, nil
}

func (s *MemoryStore) ProcessInstances(ctx context.Context, filter engine.InstanceFilter) ([]*engine.ProcessInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*engine.ProcessInstance
	for _, id := range s.instanceOrder {
		inst := s.instances[id]
		if filter.CorrelationID != "" && inst.CorrelationID != filter.CorrelationID {
			continue
		}
		if filter.ProcessModelID != "" && inst.ProcessModelID != filter.ProcessModelID {
			continue
		}
		if filter.OnlyMain && inst.CallerID != "" {
			continue
		}
		if len(filter.CallerIDs) > 0 && !containsString(filter.CallerIDs, inst.CallerID) {
			continue
		}
		result = append(result, inst)
	}
	return result, nil
}

func (s *MemoryStore) FlowNodeInstances(ctx context.Context, filter engine.FlowNodeFilter) ([]*engine.FlowNodeInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*engine.FlowNodeInstance
	for _, id := range s.flowNodeOrder {
		fni := s.flowNodes[id]
		if filter.CorrelationID != "" && fni.CorrelationID != filter.CorrelationID {
			continue
		}
		if filter.ProcessModelID != "" && fni.ProcessModelID != filter.ProcessModelID {
			continue
		}
		if filter.ProcessInstanceID != "" && fni.ProcessInstanceID != filter.ProcessInstanceID {
			continue
		}
		if filter.Kind != "" && fni.Kind != filter.Kind {
			continue
		}
		if filter.State != "" && fni.State != filter.State {
			continue
		}
		result = append(result, fni)
	}
	return result, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
