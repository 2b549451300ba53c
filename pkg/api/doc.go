// Package api contains the public contract of the flowgate consumer gate:
// the data types callers receive, the Client interface they call, the
// identity/claims model that gates visibility, and the error taxonomy.
//
// Most users interact with the higher-level flowgate package, which
// re-exports selected types and helpers from this package and provides the
// Client constructors. The api package is intended for callers that embed the
// contract into their own transport layer or write custom Client decorators.
//
// # Identities and lanes
//
// Every Client method runs on behalf of an Identity carrying claim names.
// Process definitions partition their flow nodes into lanes; a lane is
// accessible when its name equals one of the identity's claims. What a caller
// sees of a process model, its user tasks, and its events is always the slice
// covered by accessible lanes.
//
// # Scopes
//
// Operations address one of two scopes: a process model (everything deployed
// under one definition) or a correlation (one business transaction: a main
// process instance plus every sub-process instance transitively spawned from
// it through call activities). A scope whose accessible-lane set is empty
// fails with a Forbidden error; during correlation aggregation, individual
// sub-processes the identity may not see are silently skipped instead.
//
// # Errors
//
// All errors returned by a Client are *Error values classified by ErrorKind.
// Callers branch with the IsXxx helpers or KindOf:
//
//	err := client.FinishUserTask(ctx, id, modelID, corrID, taskID, result)
//	switch {
//	case api.IsNotFound(err):
//		// task invisible or gone
//	case api.IsBadRequest(err):
//		// empty result payload
//	}
//
// # Observability
//
// The Observer interface receives lifecycle callbacks (process started/ended,
// task finished, event triggered, access denied). Ready-made implementations
// cover logging via log/slog and basic in-memory metrics, and
// NewCompositeObserver combines several observers into one.
package api
