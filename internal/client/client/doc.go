// Package client contains the GophTasks backend contract and its gRPC
// implementation.
//
// # Overview
//
// The package provides:
//  1. The narrow backend interfaces the task client depends on: Auth
//     (sign-up, sign-in, sign-out, persisted session, auth-state listeners),
//     Store (select/insert/update/delete tasks by equality filter) and Feed
//     (change subscriptions with event and status callbacks).
//  2. GRPCClient, which implements all three over the TaskService. It
//     injects the access token into every call, refreshes an expired token
//     once and retries, and persists the session in the local metadata
//     store.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite file and applying embedded goose migrations.
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors that callers match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound,
// ErrInvalidArgument, ErrAlreadyExists.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. Feed callbacks run on the
// subscription's reader goroutine.
package client
