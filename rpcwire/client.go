package rpcwire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// stringStream is the typed client-stream wrapper protoc-gen-go-grpc would
// normally generate for a bidi-streaming RPC whose messages are
// *wrapperspb.StringValue. It satisfies [fangrpcstream.Client].
type stringStream struct {
	grpc.ClientStream
}

func (x *stringStream) Send(m *wrapperspb.StringValue) error {
	return x.ClientStream.SendMsg(m)
}

func (x *stringStream) Recv() (*wrapperspb.StringValue, error) {
	m := new(wrapperspb.StringValue)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// dialLockTTYForChild opens the LockTTYForChild stream on conn and returns
// the typed client-side handle. It is the [fangrpcstream.Factory] passed to
// [fangrpcstream.New] by Portal.OpenLock.
func dialLockTTYForChild(conn grpc.ClientConnInterface) func(ctx context.Context, opts ...grpc.CallOption) (*stringStream, error) {
	return func(ctx context.Context, opts ...grpc.CallOption) (*stringStream, error) {
		stream, err := conn.NewStream(ctx, &grpc.StreamDesc{
			StreamName:    "LockTTYForChild",
			ServerStreams: true,
			ClientStreams: true,
		}, LockTTYForChildMethod, opts...)
		if err != nil {
			return nil, err
		}
		return &stringStream{ClientStream: stream}, nil
	}
}
