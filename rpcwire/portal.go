package rpcwire

import (
	"context"
	"fmt"
	"io"

	fangrpcstream "github.com/joeycumines/go-fangrpcstream"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joeycumines/go-actorlock/actorid"
)

// Portal is the narrow "open context to root" trait spec.md's Design Notes
// call for: it knows how to reach one gRPC-shaped endpoint (in-process or
// remote) and open a debug-lock session against it, without knowing
// anything about actor spawning, discovery, or transport.
type Portal struct {
	Conn grpc.ClientConnInterface
}

// NewPortal wraps conn (an in-process [inprocgrpc.Channel] or any real
// [grpc.ClientConn]) as a Portal.
func NewPortal(conn grpc.ClientConnInterface) Portal {
	return Portal{Conn: conn}
}

// OpenLock opens the LockTTYForChild stream (spec §6 wire table, rows 1–3)
// and sends subactorUID as the opening message, encoded with
// [actorid.ID.Encode] so Name and Instance both survive the round trip
// (spec §6 takes the full identity, not just its display name — a bare
// Name would collide with the blocklist and peer registry, which key on
// the whole ID). The returned Session exposes the rest of the protocol
// (Started, SendUnlock, Result).
func (p Portal) OpenLock(ctx context.Context, subactorUID actorid.ID) (*Session, error) {
	stream, err := fangrpcstream.New[*stringStream, *wrapperspb.StringValue, *wrapperspb.StringValue](
		ctx, dialLockTTYForChild(p.Conn),
	)
	if err != nil {
		return nil, fmt.Errorf("rpcwire: open lock context: %w", err)
	}

	ch := make(chan *wrapperspb.StringValue, 4)
	cancelSub := stream.Subscribe(ctx, ch)

	if err := stream.Send(ctx, &wrapperspb.StringValue{Value: subactorUID.Encode()}); err != nil {
		cancelSub()
		_ = stream.Close()
		return nil, fmt.Errorf("rpcwire: send subactor identity: %w", err)
	}

	return &Session{stream: stream, ch: ch, cancelSub: cancelSub}, nil
}

// Session is the per-debug-session bidirectional stream described in
// spec.md's Lease Contract (§3) and wire table (§6).
type Session struct {
	stream    *fangrpcstream.Stream[*stringStream, *wrapperspb.StringValue, *wrapperspb.StringValue]
	ch        chan *wrapperspb.StringValue
	cancelSub context.CancelFunc
}

// Started awaits the server's "started" value (row 2 of the wire table):
// [ValueLocked] or the terminal [ValueBlocked].
func (s *Session) Started(ctx context.Context) (string, error) {
	return s.recv(ctx)
}

// SendUnlock sends the single release message a session ever sends
// (row 4 of the wire table).
func (s *Session) SendUnlock(ctx context.Context) error {
	return s.stream.Send(ctx, &wrapperspb.StringValue{Value: ValueUnlock})
}

// Result awaits the context's terminal result (row 5 of the wire table):
// [ValueUnlockComplete].
func (s *Session) Result(ctx context.Context) (string, error) {
	return s.recv(ctx)
}

func (s *Session) recv(ctx context.Context) (string, error) {
	select {
	case v, ok := <-s.ch:
		if !ok {
			if err := s.stream.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return v.GetValue(), nil
	case <-s.stream.Done():
		if err := s.stream.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close tears down the underlying stream and unsubscribes. Safe to call
// after the session has already completed normally.
func (s *Session) Close() error {
	s.cancelSub()
	return s.stream.Close()
}
