package sigintshield

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-actorlock/actorid"
	"github.com/joeycumines/go-actorlock/internal/lockstate"
)

func TestDecideRootSwallowsForLiveDescendant(t *testing.T) {
	holder := actorid.NewInstance("child")
	v := decide(input{
		isRoot:     true,
		snap:       lockstate.Snapshot{HasHolder: true, HolderUID: holder},
		holderLive: true,
	})
	require.Equal(t, actionSwallow, v.action)
	require.False(t, v.cancelLease)
}

func TestDecideRootCancelsOnDeadHolder(t *testing.T) {
	holder := actorid.NewInstance("child")
	v := decide(input{
		isRoot:     true,
		snap:       lockstate.Snapshot{HasHolder: true, HolderUID: holder},
		holderLive: false,
	})
	require.Equal(t, actionCancel, v.action)
}

func TestDecideRootSwallowsAndCancelsLeaseForLocalRepl(t *testing.T) {
	v := decide(input{
		isRoot: true,
		snap:   lockstate.Snapshot{HasReplHandle: true, HasLeaseCancel: true},
	})
	require.Equal(t, actionSwallow, v.action)
	require.True(t, v.cancelLease)
}

func TestDecideRootCancelsWhenNoHolderNoRepl(t *testing.T) {
	v := decide(input{isRoot: true})
	require.Equal(t, actionCancel, v.action)
}

func TestDecideChildSwallowsWhenHoldingAndParentAlive(t *testing.T) {
	self := actorid.NewInstance("child")
	v := decide(input{
		isRoot:      false,
		self:        self,
		snap:        lockstate.Snapshot{HasHolder: true, HolderUID: self},
		holderLive:  true,
		parentAlive: true,
	})
	require.Equal(t, actionSwallow, v.action)
}

func TestDecideChildCancelsWhenParentDead(t *testing.T) {
	self := actorid.NewInstance("child")
	v := decide(input{
		isRoot:      false,
		self:        self,
		snap:        lockstate.Snapshot{HasHolder: true, HolderUID: self},
		holderLive:  true,
		parentAlive: false,
	})
	require.Equal(t, actionCancel, v.action)
}

func TestDecideFallsThroughOnDeadHolderRegardlessOfRole(t *testing.T) {
	other := actorid.NewInstance("someone-else")
	v := decide(input{
		isRoot:     false,
		snap:       lockstate.Snapshot{HasHolder: true, HolderUID: other},
		holderLive: false,
	})
	require.Equal(t, actionCancel, v.action)
}
