// Package common contains shared constants and sentinel errors used across
// GophTasks components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// TasksTable is the logical table name used by the record store and the
// change feed.
const TasksTable = "tasks"
