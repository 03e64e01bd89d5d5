// Package command implements the command dispatcher of the operator console.
//
// The dispatcher consumes commands produced by the input loop and runs each one in its own
// goroutine against the vehicle controller. Failures stay local to the command that caused
// them: they are turned into a status line, logged and appended to the audit trail, and the
// dispatcher keeps accepting commands. The quit command performs no action; it only closes
// the channel returned by Quit so the session can unwind.
package command
