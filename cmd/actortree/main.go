// Command actortree demonstrates the distributed debugger-mutex subsystem
// end to end: a root process and two children, each hitting a breakpoint
// in turn and taking the shared TTY lock.
//
// Run with: go run ./cmd/actortree
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joeycumines/go-actorlock/actoriface"
	"github.com/joeycumines/go-actorlock/actorlog"
	"github.com/joeycumines/go-actorlock/actorsim"
	"github.com/joeycumines/go-actorlock/debuglock"
)

func main() {
	log := actorlog.NewStumpy(os.Stderr)
	tree := actorsim.NewTree(log)
	defer tree.ShutdownAll()

	root := tree.SpawnRoot("root", true)
	childA := tree.Spawn(root, "worker-a", true)
	childB := tree.Spawn(root, "worker-b", true)

	ctx := context.Background()

	run := func(actor *actorsim.Actor, taskName string) {
		err := debuglock.Enter(ctx, actor, actor.State, actor.Shield, log, taskName, func(a actoriface.ActorContext, repl any) error {
			fmt.Printf("%s: breakpoint hit, TTY acquired\n", a.Identity())
			// A real embedded REPL's quit/continue hook would call
			// Release here (spec §4.7); this demo just simulates one.
			return actor.State.ReleaseLocal(taskName)
		})
		if err != nil {
			log.Error("breakpoint entry failed", err, actorlog.F("task", taskName))
		}
	}

	run(childA, "worker-a-task")
	run(childB, "worker-b-task")

	fmt.Println("demo complete")
}
