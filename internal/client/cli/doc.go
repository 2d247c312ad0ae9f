// Package cli provides the interactive GophTasks terminal client.
//
// It wires the session manager, the route guard and the task controller to
// a line-oriented REPL. The REPL shows one of three screens:
//
//   - login   sign in with email and password
//   - signup  create an account
//   - tasks   list, add, complete and delete tasks of the signed-in user
//
// The route guard moves between screens as the session changes, so a sign in
// lands on the tasks screen and a sign out (or a rejected token refresh)
// returns to login. Errors reported by the controller are rendered as
// "[title] message" notices.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
