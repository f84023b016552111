// Package leaseserver implements the Root Lease Task, spec.md §4.3
// ("lock_tty_for_child"): the root-side RPC-served endpoint that a child's
// requester opens once per breakpoint.
package leaseserver

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joeycumines/go-actorlock/actorid"
	"github.com/joeycumines/go-actorlock/actorlog"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
	"github.com/joeycumines/go-actorlock/rpcwire"
	"github.com/joeycumines/go-actorlock/sigintshield"
)

// Server serves [rpcwire.ServiceDesc] on the root. It holds no session
// state of its own beyond the shared [lockstate.State] (spec §3: Lock State
// is a root-process singleton).
type Server struct {
	State  *lockstate.State
	Shield *sigintshield.Shield
	Log    actorlog.Logger
}

var _ rpcwire.LockServer = (*Server)(nil)

func (s *Server) log() actorlog.Logger {
	if s.Log == nil {
		return actorlog.Nop
	}
	return s.Log
}

// LockTTYForChild implements spec §4.3 steps 1–9.
func (s *Server) LockTTYForChild(stream grpc.ServerStream) (err error) {
	var openMsg wrapperspb.StringValue
	if err := stream.RecvMsg(&openMsg); err != nil {
		return err
	}
	subactorUID, err := actorid.ParseID(openMsg.GetValue())
	if err != nil {
		return err
	}

	// Step 1: blocklist check. The mutex is never touched.
	if s.State.IsBlocked(subactorUID) {
		s.log().Warn("lease blocked", actorlog.F("subactor", subactorUID.String()))
		if err := stream.SendMsg(&wrapperspb.StringValue{Value: rpcwire.ValueBlocked}); err != nil {
			return err
		}
		return errors.New("leaseserver: subactor is on the blocklist")
	}

	// spec §9 Open Questions item 2: root mid-cancellation at the moment a
	// child requests the lock. The source swallows the start failure; this
	// preserves that swallow (the child just sees the session close without
	// "Locked") but adds a diagnostic log, resolving the ambiguity in favor
	// of observability over a distinct error kind.
	if s.State.IsShuttingDown() {
		s.log().Warn("lease start suppressed: root is shutting down", actorlog.F("subactor", subactorUID.String()))
		return nil
	}

	// Step 2: install the SIGINT shield (process-wide, spec §4.5). Activate
	// registers its own restore callback with s.State, so the deferred
	// Release below (step 7/8) undoes it without leaseserver needing to
	// know anything about signals.
	s.Shield.Activate(s.State)

	// Step 3: shielded cancel scope — published as lease-cancel-handle.
	leaseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 4: acquire the mutex (strict FIFO), record holder.
	s.State.AcquireForLease(leaseCtx, cancel, subactorUID)
	s.log().Info("lease acquired", actorlog.F("subactor", subactorUID.String()))

	defer func() {
		// Step 7: exit the shielded scope — release, clear holder, maybe
		// set drain event. This runs even if the child disconnected
		// (spec §4.3 Failure semantics) or any Recv/Send above failed:
		// the mutex must never be stranded.
		if releaseErr := s.State.Release(""); releaseErr != nil && err == nil {
			err = releaseErr
		}
		s.log().Info("lease released", actorlog.F("subactor", subactorUID.String()))
	}()

	// Step 5: reply started("Locked").
	if err := stream.SendMsg(&wrapperspb.StringValue{Value: rpcwire.ValueLocked}); err != nil {
		return err
	}

	// Step 6: await exactly one inbound "pdb_unlock" message. Cancelling the
	// lease (State.CancelLease) ends the wait early; the deferred Release
	// above still runs.
	var unlockMsg wrapperspb.StringValue
	recvErr := make(chan error, 1)
	go func() { recvErr <- stream.RecvMsg(&unlockMsg) }()
	select {
	case err := <-recvErr:
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log().Warn("child disconnected before unlock", actorlog.F("subactor", subactorUID.String()))
			}
			return err
		}
	case <-leaseCtx.Done():
		s.log().Warn("lease cancelled before unlock", actorlog.F("subactor", subactorUID.String()))
		return leaseCtx.Err()
	}
	if unlockMsg.GetValue() != rpcwire.ValueUnlock {
		return errors.New("leaseserver: expected pdb_unlock message")
	}

	// Step 9: terminal result.
	return stream.SendMsg(&wrapperspb.StringValue{Value: rpcwire.ValueUnlockComplete})
}
