// Package rpcwire is the wire protocol and narrow transport trait for one
// debug session, per spec.md §6 ("Wire protocol of a debug session") and
// §9 Design Notes ("define a narrow trait for 'open context to root with
// this endpoint name and these args'").
//
// There is no .proto/protoc step: every message on the wire is a
// *wrapperspb.StringValue, exactly the pattern the example RPC layer's own
// hand-written test service uses. The client's first message carries the
// requesting actor's identity ([actorid.ID.Encode]); every later message
// carries one of the four sentinel strings the spec defines ("Locked",
// "pdb_lock_blocked", "pdb_unlock", "pdb_unlock_complete").
package rpcwire

import (
	"google.golang.org/grpc"
)

// Sentinel wire values, spec §6.
const (
	ValueLocked         = "Locked"
	ValueBlocked        = "pdb_lock_blocked"
	ValueUnlock         = "pdb_unlock"
	ValueUnlockComplete = "pdb_unlock_complete"
)

// ServiceName is the logical gRPC service name for the debug lock.
const ServiceName = "actorlock.DebugLock"

// LockTTYForChildMethod is the full method name used to open the stream.
const LockTTYForChildMethod = "/" + ServiceName + "/LockTTYForChild"

// LockServer is implemented by the root lease task (package leaseserver).
// It is the HandlerType for [ServiceDesc].
type LockServer interface {
	// LockTTYForChild serves one debug session end to end: it receives the
	// requesting actor's identity as the stream's first message, then
	// drives the rest of the protocol described in spec §4.3.
	LockTTYForChild(stream grpc.ServerStream) error
}

// lockTTYHandler adapts a [grpc.ServiceRegistrar] stream dispatch into a
// [LockServer] call — the same shape protoc-gen-go-grpc would generate.
func lockTTYHandler(srv any, stream grpc.ServerStream) error {
	return srv.(LockServer).LockTTYForChild(stream)
}

// ServiceDesc describes the DebugLock service for registration against any
// [grpc.ServiceRegistrar] (the in-process channel in package actorsim, or a
// real grpc.Server).
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LockServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "LockTTYForChild",
			Handler:       lockTTYHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "actorlock/rpcwire",
}
