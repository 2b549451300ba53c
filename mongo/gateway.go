// Package mongo wires the gate to engine state kept in MongoDB.
package mongo

import (
	"go.mongodb.org/mongo-driver/mongo"

	mstore "github.com/petrijr/flowgate/mongo/internal/persistence"
	"github.com/petrijr/flowgate/pkg/engine"
)

// NewGateway combines MongoDB-backed read stores with the given runtime and
// bus. dbName defaults to "flowgate" when empty.
func NewGateway(client *mongo.Client, dbName string, runtime engine.Runtime, bus engine.Bus) engine.Gateway {
	store := mstore.NewMongoStore(client, dbName)
	return engine.Gateway{
		Definitions: store,
		Instances:   store,
		FlowNodes:   store,
		Runtime:     runtime,
		Bus:         bus,
	}
}
