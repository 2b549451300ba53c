package persistence

import (
	"github.com/petrijr/flowgate/pkg/engine"
)

func (s *MongoStoreTestSuite) TestDefinitionRoundTripAndKeyLookup() {
	first := &engine.ProcessDefinition{
		ID:         "def-a1",
		Key:        "alpha",
		Name:       "Alpha v1",
		Executable: true,
		FlowNodes: []engine.FlowNode{
			{ID: "a-start", Name: "Started", Kind: engine.KindStartEvent},
			{ID: "a-task", Name: "Do it", Kind: engine.KindUserTask, FormFields: []engine.FormField{
				{ID: "done", Label: "Done with ${item}?", Type: "boolean", DefaultValue: "false"},
			}},
			{ID: "a-end", Name: "Finished", Kind: engine.KindEndEvent},
		},
		Lanes: &engine.LaneSet{Lanes: []engine.Lane{
			{ID: "lane-a", Name: "alpha-team", FlowNodeIDs: []string{"a-start", "a-task", "a-end"}},
		}},
	}
	second := &engine.ProcessDefinition{ID: "def-a2", Key: "alpha", Name: "Alpha v2", Executable: true}
	other := &engine.ProcessDefinition{ID: "def-b", Key: "beta", Name: "Beta"}

	s.Require().NoError(s.store.SaveProcessDefinition(s.ctx, first))
	s.Require().NoError(s.store.SaveProcessDefinition(s.ctx, second))
	s.Require().NoError(s.store.SaveProcessDefinition(s.ctx, other))

	got, err := s.store.ProcessDefinitionByID(s.ctx, "def-a1")
	s.Require().NoError(err)
	s.Equal(first, got, "definition must survive the round trip intact")

	newest, err := s.store.ProcessDefinitionByKey(s.ctx, "alpha")
	s.Require().NoError(err)
	s.Equal("def-a2", newest.ID, "newest deployment under the key wins")

	all, err := s.store.ProcessDefinitions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("def-a1", all[0].ID)
	s.Equal("def-a2", all[1].ID)
	s.Equal("def-b", all[2].ID)

	_, err = s.store.ProcessDefinitionByID(s.ctx, "missing")
	s.Require().ErrorIs(err, engine.ErrNotFound)
	_, err = s.store.ProcessDefinitionByKey(s.ctx, "missing")
	s.Require().ErrorIs(err, engine.ErrNotFound)
}

func (s *MongoStoreTestSuite) TestInstanceFilters() {
	seed := []*engine.ProcessInstance{
		{ID: "pi-1", ProcessModelID: "def-x", CorrelationID: "corr-1"},
		{ID: "pi-2", ProcessModelID: "def-y", CorrelationID: "corr-1", CallerID: "fni-ca-1"},
		{ID: "pi-3", ProcessModelID: "def-x", CorrelationID: "corr-2"},
		{ID: "pi-4", ProcessModelID: "def-y", CorrelationID: "corr-2", CallerID: "fni-ca-2"},
	}
	for _, inst := range seed {
		s.Require().NoError(s.store.SaveProcessInstance(s.ctx, inst))
	}

	byCorr, err := s.store.ProcessInstances(s.ctx, engine.InstanceFilter{CorrelationID: "corr-1"})
	s.Require().NoError(err)
	s.Require().Len(byCorr, 2)
	s.Equal("pi-1", byCorr[0].ID, "insertion order is preserved")
	s.Equal("pi-2", byCorr[1].ID)

	mains, err := s.store.ProcessInstances(s.ctx, engine.InstanceFilter{OnlyMain: true})
	s.Require().NoError(err)
	s.Require().Len(mains, 2)
	s.Equal("pi-1", mains[0].ID)
	s.Equal("pi-3", mains[1].ID)

	spawned, err := s.store.ProcessInstances(s.ctx, engine.InstanceFilter{CallerIDs: []string{"fni-ca-1", "fni-ca-2"}})
	s.Require().NoError(err)
	s.Require().Len(spawned, 2)

	combined, err := s.store.ProcessInstances(s.ctx, engine.InstanceFilter{
		CorrelationID:  "corr-2",
		ProcessModelID: "def-y",
	})
	s.Require().NoError(err)
	s.Require().Len(combined, 1)
	s.Equal("pi-4", combined[0].ID)

	none, err := s.store.ProcessInstances(s.ctx, engine.InstanceFilter{CorrelationID: "corr-9"})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *MongoStoreTestSuite) TestFlowNodeLifecycle() {
	task := &engine.FlowNodeInstance{
		ID:                "fni-1",
		FlowNodeID:        "approve",
		Kind:              engine.KindUserTask,
		State:             engine.StateSuspended,
		ProcessInstanceID: "pi-1",
		ProcessModelID:    "def-x",
		CorrelationID:     "corr-1",
		Token:             engine.Token{Payload: map[string]any{"amount": 120.5, "urgent": true}},
	}
	end := &engine.FlowNodeInstance{
		ID:                "fni-2",
		FlowNodeID:        "done",
		Kind:              engine.KindEndEvent,
		State:             engine.StateFinished,
		ProcessInstanceID: "pi-1",
		ProcessModelID:    "def-x",
		CorrelationID:     "corr-1",
		Token:             engine.Token{Payload: map[string]any{"ok": true}, Caller: "fni-ca-1"},
	}
	s.Require().NoError(s.store.SaveFlowNodeInstance(s.ctx, task))
	s.Require().NoError(s.store.SaveFlowNodeInstance(s.ctx, end))

	suspended, err := s.store.FlowNodeInstances(s.ctx, engine.FlowNodeFilter{
		CorrelationID: "corr-1",
		Kind:          engine.KindUserTask,
		State:         engine.StateSuspended,
	})
	s.Require().NoError(err)
	s.Require().Len(suspended, 1)
	s.Equal(task, suspended[0], "flow node instance must survive the round trip intact")

	// Finishing mutates state and token only.
	task.State = engine.StateFinished
	task.Token.Payload["approved"] = true
	s.Require().NoError(s.store.UpdateFlowNodeInstance(s.ctx, task))

	// A full re-save must keep the original insertion position.
	s.Require().NoError(s.store.SaveFlowNodeInstance(s.ctx, task))

	finished, err := s.store.FlowNodeInstances(s.ctx, engine.FlowNodeFilter{
		CorrelationID: "corr-1",
		State:         engine.StateFinished,
	})
	s.Require().NoError(err)
	s.Require().Len(finished, 2)
	s.Equal("fni-1", finished[0].ID, "re-saving must not move an entity in insertion order")
	s.Equal(true, finished[0].Token.Payload["approved"])
	s.Equal("fni-ca-1", finished[1].Token.Caller)

	err = s.store.UpdateFlowNodeInstance(s.ctx, &engine.FlowNodeInstance{ID: "missing"})
	s.Require().ErrorIs(err, engine.ErrNotFound)
}
