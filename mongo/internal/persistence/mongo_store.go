package persistence

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	corep "github.com/petrijr/flowgate/internal/persistence"
	"github.com/petrijr/flowgate/pkg/engine"
)

// MongoStore implements the engine read stores on top of MongoDB, plus the
// write methods an engine adapter uses to mirror its state into the
// collections.
//
// Definitions and tokens are stored as JSON blobs like in the SQL-backed
// stores, so payload values keep their JSON types across all backends. The
// seq field preserves insertion order; ObjectIDs generated by one process
// are strictly increasing.
type MongoStore struct {
	definitions *mongo.Collection
	instances   *mongo.Collection
	flowNodes   *mongo.Collection
}

// Ensure MongoStore implements the engine read interfaces.
var _ engine.DefinitionStore = (*MongoStore)(nil)

var _ engine.InstanceStore = (*MongoStore)(nil)

var _ engine.FlowNodeStore = (*MongoStore)(nil)

// NewMongoStore creates a Mongo-backed store.
// dbName defaults to "flowgate" if empty.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	if dbName == "" {
		dbName = "flowgate"
	}

	db := client.Database(dbName)
	return &MongoStore{
		definitions: db.Collection("process_definitions"),
		instances:   db.Collection("process_instances"),
		flowNodes:   db.Collection("flow_node_instances"),
	}
}

type definitionDoc struct {
	ID         string             `bson:"_id"`
	Key        string             `bson:"model_key"`
	Name       string             `bson:"name"`
	Executable bool               `bson:"executable"`
	Model      []byte             `bson:"model"`
	Seq        primitive.ObjectID `bson:"seq"`
}

type instanceDoc struct {
	ID             string             `bson:"_id"`
	ProcessModelID string             `bson:"process_model_id"`
	CorrelationID  string             `bson:"correlation_id"`
	CallerID       string             `bson:"caller_id"`
	Seq            primitive.ObjectID `bson:"seq"`
}

type flowNodeDoc struct {
	ID                string             `bson:"_id"`
	FlowNodeID        string             `bson:"flow_node_id"`
	Kind              string             `bson:"kind"`
	State             string             `bson:"state"`
	ProcessInstanceID string             `bson:"process_instance_id"`
	ProcessModelID    string             `bson:"process_model_id"`
	CorrelationID     string             `bson:"correlation_id"`
	Token             []byte             `bson:"token"`
	Seq               primitive.ObjectID `bson:"seq"`
}

// upsert inserts or replaces a document by id, keeping the original seq so
// re-saving an entity does not move it in insertion order.
func upsert(ctx context.Context, coll *mongo.Collection, id string, fields bson.M) error {
	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"seq": primitive.NewObjectID()},
	}
	_, err := coll.UpdateByID(ctx, id, update, options.Update().SetUpsert(true))
	return err
}

// SaveProcessDefinition inserts or replaces a definition by id.
func (s *MongoStore) SaveProcessDefinition(ctx context.Context, def *engine.ProcessDefinition) error {
	model, err := corep.EncodeValue(def)
	if err != nil {
		return err
	}

	return upsert(ctx, s.definitions, def.ID, bson.M{
		"model_key":  def.Key,
		"name":       def.Name,
		"executable": def.Executable,
		"model":      model,
	})
}

// SaveProcessInstance inserts or replaces a process instance by id.
func (s *MongoStore) SaveProcessInstance(ctx context.Context, inst *engine.ProcessInstance) error {
	return upsert(ctx, s.instances, inst.ID, bson.M{
		"process_model_id": inst.ProcessModelID,
		"correlation_id":   inst.CorrelationID,
		"caller_id":        inst.CallerID,
	})
}

// SaveFlowNodeInstance inserts or replaces a flow node instance by id.
func (s *MongoStore) SaveFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error {
	token, err := corep.EncodeValue(fni.Token)
	if err != nil {
		return err
	}

	return upsert(ctx, s.flowNodes, fni.ID, bson.M{
		"flow_node_id":        fni.FlowNodeID,
		"kind":                string(fni.Kind),
		"state":               string(fni.State),
		"process_instance_id": fni.ProcessInstanceID,
		"process_model_id":    fni.ProcessModelID,
		"correlation_id":      fni.CorrelationID,
		"token":               token,
	})
}

// UpdateFlowNodeInstance replaces the mutable parts of an existing flow node
// instance (state and token).
func (s *MongoStore) UpdateFlowNodeInstance(ctx context.Context, fni *engine.FlowNodeInstance) error {
	token, err := corep.EncodeValue(fni.Token)
	if err != nil {
		return err
	}

	res, err := s.flowNodes.UpdateByID(ctx, fni.ID, bson.M{
		"$set": bson.M{
			"state": string(fni.State),
			"token": token,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *MongoStore) ProcessDefinitionByID(ctx context.Context, id string) (*engine.ProcessDefinition, error) {
	var doc definitionDoc
	err := s.definitions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return corep.DecodeValue[*engine.ProcessDefinition](doc.Model)
}

func (s *MongoStore) ProcessDefinitionByKey(ctx context.Context, key string) (*engine.ProcessDefinition, error) {
	// Newest deployment under the key wins.
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})

	var doc definitionDoc
	err := s.definitions.FindOne(ctx, bson.M{"model_key": key}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	return corep.DecodeValue[*engine.ProcessDefinition](doc.Model)
}

func (s *MongoStore) ProcessDefinitions(ctx context.Context) ([]*engine.ProcessDefinition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cur, err := s.definitions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var defs []*engine.ProcessDefinition
	for cur.Next(ctx) {
		var doc definitionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		def, err := corep.DecodeValue[*engine.ProcessDefinition](doc.Model)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}
	return defs, nil
}

func (s *MongoStore) ProcessInstances(ctx context.Context, filter engine.InstanceFilter) ([]*engine.ProcessInstance, error) {
	var conds []bson.M
	if filter.CorrelationID != "" {
		conds = append(conds, bson.M{"correlation_id": filter.CorrelationID})
	}
	if filter.ProcessModelID != "" {
		conds = append(conds, bson.M{"process_model_id": filter.ProcessModelID})
	}
	if filter.OnlyMain {
		conds = append(conds, bson.M{"caller_id": ""})
	}
	if len(filter.CallerIDs) > 0 {
		conds = append(conds, bson.M{"caller_id": bson.M{"$in": filter.CallerIDs}})
	}

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cur, err := s.instances.Find(ctx, combine(conds), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var instances []*engine.ProcessInstance
	for cur.Next(ctx) {
		var doc instanceDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		instances = append(instances, &engine.ProcessInstance{
			ID:             doc.ID,
			ProcessModelID: doc.ProcessModelID,
			CorrelationID:  doc.CorrelationID,
			CallerID:       doc.CallerID,
		})
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *MongoStore) FlowNodeInstances(ctx context.Context, filter engine.FlowNodeFilter) ([]*engine.FlowNodeInstance, error) {
	var conds []bson.M
	if filter.CorrelationID != "" {
		conds = append(conds, bson.M{"correlation_id": filter.CorrelationID})
	}
	if filter.ProcessModelID != "" {
		conds = append(conds, bson.M{"process_model_id": filter.ProcessModelID})
	}
	if filter.ProcessInstanceID != "" {
		conds = append(conds, bson.M{"process_instance_id": filter.ProcessInstanceID})
	}
	if filter.Kind != "" {
		conds = append(conds, bson.M{"kind": string(filter.Kind)})
	}
	if filter.State != "" {
		conds = append(conds, bson.M{"state": string(filter.State)})
	}

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cur, err := s.flowNodes.Find(ctx, combine(conds), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var result []*engine.FlowNodeInstance
	for cur.Next(ctx) {
		var doc flowNodeDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}

		token, err := corep.DecodeValue[engine.Token](doc.Token)
		if err != nil {
			return nil, err
		}

		result = append(result, &engine.FlowNodeInstance{
			ID:                doc.ID,
			FlowNodeID:        doc.FlowNodeID,
			Kind:              engine.FlowNodeKind(doc.Kind),
			State:             engine.FlowNodeState(doc.State),
			ProcessInstanceID: doc.ProcessInstanceID,
			ProcessModelID:    doc.ProcessModelID,
			CorrelationID:     doc.CorrelationID,
			Token:             token,
		})
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// combine turns the collected conditions into a single filter document.
func combine(conds []bson.M) bson.M {
	switch len(conds) {
	case 0:
		return bson.M{}
	case 1:
		return conds[0]
	default:
		return bson.M{"$and": conds}
	}
}
