// Package flowgate provides a consumer-facing access gate for an external
// BPMN-style process engine.
//
// The engine executes processes; flowgate decides what a caller may see and
// do. It resolves lane-based access from an identity's claims, aggregates
// work across a correlation's call-activity tree, and turns the engine's
// asynchronous completion notifications into ordinary blocking Go calls.
//
// # Core Concepts
//
// The flowgate model is small:
//
//  1. Client
//  2. Identity
//  3. Gateway
//  4. Correlation
//  5. Observer
//
// # Client
//
// The Client is the whole public surface: list process models, start
// instances, list and finish user tasks, list and trigger events, and read
// correlation results. Every method takes an Identity and returns only what
// that identity's claims allow. Create one with New:
//
//	client, err := flowgate.New(gateway, flowgate.Config{})
//
// # Identity and lanes
//
// Process definitions partition their flow nodes into lanes, and a lane's
// name is the claim an identity must hold to access it. Lanes nest; the
// innermost lane containing a flow node decides its visibility, and a claim
// on an inner lane works even when the enclosing lane is off limits. A lane
// without a name is treated as misconfigured and is never accessible.
//
// Identities are plain values, not sessions; nothing is cached between calls
// on their behalf.
//
// # Gateway
//
// The engine stays external. A Gateway bundles what flowgate consumes from
// it: read stores for definitions, process instances and flow node instances,
// a Runtime to start instances, and a notification Bus. Assemble one from the
// provided bindings:
//
//	db, _ := sql.Open("sqlite", "engine.db")
//	gateway, err := flowgate.NewSQLiteGateway(db, runtime, flowgate.NewInProcessBus())
//
// or implement the pkg/engine interfaces against your engine directly.
// Package enginetest provides a scriptable in-process engine for tests.
//
// # Correlation
//
// A correlation groups one main process instance with every instance
// transitively spawned from it through call activities. Listing work for a
// correlation walks that tree breadth-first; sub-processes whose definitions
// offer the identity no accessible lane contribute nothing rather than
// failing the whole listing.
//
// # Waiting operations
//
// FinishUserTask and StartProcessInstance with StartCallbackOnEndEventReached
// block until the engine reports the outcome on the bus. Neither imposes a
// timeout; cancel the context to stop waiting. The completion subscription is
// always registered before the triggering message is published, so an engine
// answering synchronously cannot be missed.
//
// # Observer
//
// An Observer receives lifecycle callbacks: processes started and ended,
// tasks finished (with the rendezvous wait), events triggered, and denied
// scopes. LoggingObserver writes them to slog, BasicMetrics counts them, and
// NewCompositeObserver combines several.
//
// # Errors
//
// Every operation returns *Error values classified by ErrorKind: bad_request,
// forbidden, not_found, unprocessable_entity and internal_server_error.
// Branch with the IsXxx helpers or KindOf rather than matching messages.
// Engine-side failure detail is logged, never put in caller-facing messages.
//
// For runnable demos, see the /examples directory.
package flowgate
