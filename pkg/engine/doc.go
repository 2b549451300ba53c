// Package engine defines the surface flowgate consumes from an external
// process engine: the entity model (definitions, lanes, instances, flow node
// instances, tokens), narrow read interfaces over the engine's data, the
// Runtime write interface, and the notification Bus with its channel naming
// scheme.
//
// flowgate never owns this data. The stores are read models over state the
// engine maintains; the only writes the gate performs are Runtime calls and
// Bus publishes. Implementations of these interfaces adapt a concrete engine
// deployment: the persistence bindings and the enginetest stub are two
// examples, and the redis submodule provides a Bus for engines reachable only
// through Redis pub/sub.
//
// A caller assembles the collaborators into a Gateway and hands it to the
// flowgate constructors.
package engine
