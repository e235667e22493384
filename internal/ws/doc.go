// Package ws provides the WebSocket transport and connection registry of the
// chat relay.
//
// The package implements:
//   - Client: one open channel with a buffered outbound queue
//   - Hub: the concurrent-safe set of registered clients and broadcast fan-out
//   - Handler: upgrades HTTP requests, runs the read/write pumps and dispatches
//     connect, message and disconnect events to an EventHandler
//
// The Handler carries no chat logic; frames are passed through untouched.
package ws
