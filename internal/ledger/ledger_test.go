package ledger

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = mustAddr("0x00000000000000000000000000000000000000aa")
	alice = mustAddr("0x00000000000000000000000000000000000000a1")
	bob   = mustAddr("0x00000000000000000000000000000000000000b0")
	carol = mustAddr("0x00000000000000000000000000000000000000c0")
)

func mustAddr(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func u(n uint64) *uint256.Int { return uint256.NewInt(n) }

func newLedger(t *testing.T) (*Ledger, *MemoryJournal) {
	t.Helper()
	j := &MemoryJournal{}
	l, err := New(owner, j)
	require.NoError(t, err)
	return l, j
}

func TestMintBurnScenario(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	assert.True(t, l.TotalSupply().IsZero())

	_, err := l.Mint(ctx, owner, alice, u(100))
	require.NoError(t, err)
	assert.Equal(t, "100", l.TotalSupply().Dec())

	_, err = l.Mint(ctx, owner, bob, u(50))
	require.NoError(t, err)
	assert.Equal(t, "150", l.TotalSupply().Dec())

	_, err = l.Burn(ctx, alice, u(30))
	require.NoError(t, err)
	assert.Equal(t, "120", l.TotalSupply().Dec())
	assert.Equal(t, "70", l.BalanceOf(alice).Dec())

	_, err = l.Mint(ctx, owner, carol, MaxSupply)
	assert.ErrorIs(t, err, ErrSupplyExceeded)
	assert.Equal(t, "120", l.TotalSupply().Dec())
	assert.True(t, l.BalanceOf(carol).IsZero())
}

func TestMintSupplyCapBoundary(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.Mint(ctx, owner, alice, u(1))
	require.NoError(t, err)

	// exactly up to the cap is allowed
	rest := l.MintableSupply()
	_, err = l.Mint(ctx, owner, bob, rest)
	require.NoError(t, err)
	assert.True(t, l.TotalSupply().Eq(MaxSupply))
	assert.True(t, l.MintableSupply().IsZero())

	_, err = l.Mint(ctx, owner, bob, u(1))
	assert.ErrorIs(t, err, ErrSupplyExceeded)
	assert.Equal(t, "UPX: Max supply exceeded", ErrSupplyExceeded.Error())
}

func TestMintOverflowIsSupplyExceeded(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	_, err := l.Mint(ctx, owner, alice, u(1))
	require.NoError(t, err)

	_, err = l.Mint(ctx, owner, alice, new(uint256.Int).SetAllOne())
	assert.ErrorIs(t, err, ErrSupplyExceeded)
}

func TestOnlyOwnerMintsAndPauses(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.Mint(ctx, alice, alice, u(1))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = l.Pause(ctx, alice)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, l.Paused())

	_, err = l.Pause(ctx, owner)
	require.NoError(t, err)
	_, err = l.Unpause(ctx, bob)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, l.Paused())
}

func TestBurnMoreThanBalanceLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	l, j := newLedger(t)

	_, err := l.Mint(ctx, owner, alice, u(10))
	require.NoError(t, err)
	before := l.Info()

	_, err = l.Burn(ctx, alice, u(11))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, before, l.Info())
	assert.Equal(t, "10", l.BalanceOf(alice).Dec())

	events, _ := j.Load(ctx)
	assert.Len(t, events, 1)
}

func TestPauseScope(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.Mint(ctx, owner, alice, u(100))
	require.NoError(t, err)
	_, err = l.Approve(ctx, alice, bob, u(50))
	require.NoError(t, err)

	_, err = l.Pause(ctx, owner)
	require.NoError(t, err)

	_, err = l.Transfer(ctx, alice, bob, u(1))
	assert.ErrorIs(t, err, ErrPaused)
	_, err = l.TransferFrom(ctx, bob, alice, carol, u(1))
	assert.ErrorIs(t, err, ErrPaused)

	// mint and burn ignore pause
	_, err = l.Mint(ctx, owner, bob, u(5))
	assert.NoError(t, err)
	_, err = l.Burn(ctx, alice, u(5))
	assert.NoError(t, err)

	_, err = l.Unpause(ctx, owner)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, alice, bob, u(1))
	assert.NoError(t, err)
}

func TestPauseToggleRejectsNoOp(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.Unpause(ctx, owner)
	assert.ErrorIs(t, err, ErrNotPaused)

	_, err = l.Pause(ctx, owner)
	require.NoError(t, err)
	_, err = l.Pause(ctx, owner)
	assert.ErrorIs(t, err, ErrAlreadyPaused)
	assert.True(t, l.Paused())
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.Mint(ctx, owner, alice, u(100))
	require.NoError(t, err)
	_, err = l.Approve(ctx, alice, bob, u(40))
	require.NoError(t, err)

	ev, err := l.TransferFrom(ctx, bob, alice, carol, u(30))
	require.NoError(t, err)
	assert.Equal(t, KindTransfer, ev.Kind)
	assert.Equal(t, bob, ev.Operator)
	assert.Equal(t, "10", l.Allowance(alice, bob).Dec())
	assert.Equal(t, "70", l.BalanceOf(alice).Dec())
	assert.Equal(t, "30", l.BalanceOf(carol).Dec())

	_, err = l.TransferFrom(ctx, bob, alice, carol, u(11))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	_, err = l.Approve(ctx, alice, bob, new(uint256.Int).SetAllOne())
	require.NoError(t, err)
	_, err = l.TransferFrom(ctx, bob, alice, carol, u(70))
	require.NoError(t, err)
	assert.True(t, l.Allowance(alice, bob).Eq(new(uint256.Int).SetAllOne()), "unlimited allowance must not decrease")

	_, err = l.TransferFrom(ctx, bob, alice, carol, u(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransferRejectsZeroAddress(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	_, err := l.Mint(ctx, owner, alice, u(10))
	require.NoError(t, err)

	_, err = l.Transfer(ctx, alice, ZeroAddress, u(1))
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = l.Mint(ctx, owner, ZeroAddress, u(1))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestConservationUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	accounts := []Address{owner, alice, bob, carol}
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 2000; i++ {
		from := accounts[r.IntN(len(accounts))]
		to := accounts[r.IntN(len(accounts))]
		amount := u(uint64(r.IntN(1000)))
		switch r.IntN(3) {
		case 0:
			_, _ = l.Mint(ctx, owner, to, amount)
		case 1:
			_, _ = l.Burn(ctx, from, amount)
		case 2:
			_, _ = l.Transfer(ctx, from, to, amount)
		}
		require.NoError(t, l.CheckInvariants(), "after op %d", i)
	}
}

func TestJournalFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	l, j := newLedger(t)

	_, err := l.Mint(ctx, owner, alice, u(100))
	require.NoError(t, err)
	before := l.Info()

	j.Fail = errors.New("disk full")
	_, err = l.Transfer(ctx, alice, bob, u(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, before, l.Info())
	assert.True(t, l.BalanceOf(bob).IsZero())

	j.Fail = nil
	ev, err := l.Transfer(ctx, alice, bob, u(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ev.Seq)
}

func TestRestoreReproducesState(t *testing.T) {
	ctx := context.Background()
	l, j := newLedger(t)

	_, err := l.Mint(ctx, owner, alice, u(100))
	require.NoError(t, err)
	_, err = l.Approve(ctx, alice, bob, u(20))
	require.NoError(t, err)
	_, err = l.TransferFrom(ctx, bob, alice, carol, u(15))
	require.NoError(t, err)
	_, err = l.Burn(ctx, carol, u(5))
	require.NoError(t, err)
	_, err = l.Pause(ctx, owner)
	require.NoError(t, err)

	restored, err := Open(ctx, owner, j, Tokens(100_000_000))
	require.NoError(t, err)

	assert.Equal(t, l.Info(), restored.Info())
	for _, a := range []Address{owner, alice, bob, carol} {
		assert.Equal(t, l.BalanceOf(a).Dec(), restored.BalanceOf(a).Dec(), a)
	}
	assert.Equal(t, "5", restored.Allowance(alice, bob).Dec())
	assert.True(t, restored.Paused())
}

func TestRestoreRejectsGapsAndBadEvents(t *testing.T) {
	l, err := New(owner, nil)
	require.NoError(t, err)
	err = l.Restore([]Event{{Seq: 2, Kind: KindMint, To: alice, Amount: u(1)}})
	assert.ErrorContains(t, err, "journal gap")

	l, err = New(owner, nil)
	require.NoError(t, err)
	err = l.Restore([]Event{{Seq: 1, Kind: KindBurn, From: alice, Amount: u(1)}})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestOpenMintsGenesisOnce(t *testing.T) {
	ctx := context.Background()
	j := &MemoryJournal{}

	l, err := Open(ctx, owner, j, Tokens(100_000_000))
	require.NoError(t, err)
	assert.Equal(t, Tokens(100_000_000).Dec(), l.BalanceOf(owner).Dec())
	assert.Equal(t, Tokens(900_000_000).Dec(), l.MintableSupply().Dec())

	again, err := Open(ctx, owner, j, Tokens(100_000_000))
	require.NoError(t, err)
	assert.Equal(t, l.TotalSupply().Dec(), again.TotalSupply().Dec())
	events, _ := j.Load(ctx)
	assert.Len(t, events, 1)
}

func TestEventsNewestFirst(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	for i := 0; i < 5; i++ {
		_, err := l.Mint(ctx, owner, alice, u(1))
		require.NoError(t, err)
	}
	got := l.Events(2)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(5), got[0].Seq)
	assert.Equal(t, uint64(4), got[1].Seq)
	assert.Len(t, l.Events(0), 5)
}

func TestEventsKeepsOnlyRecent(t *testing.T) {
	ctx := context.Background()
	l, j := newLedger(t)
	l.retain = 3
	for i := 0; i < 10; i++ {
		_, err := l.Mint(ctx, owner, alice, u(1))
		require.NoError(t, err)
	}

	got := l.Events(0)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(10), got[0].Seq)
	assert.Equal(t, uint64(8), got[2].Seq)
	assert.Less(t, len(l.events), 2*l.retain)
	assert.Equal(t, "10", l.BalanceOf(alice).Dec())

	journaled, err := j.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, journaled, 10)

	restored, err := New(owner, nil)
	require.NoError(t, err)
	restored.retain = 3
	require.NoError(t, restored.Restore(journaled))
	assert.Len(t, restored.Events(50), 3)
	assert.Less(t, len(restored.events), 2*restored.retain)
}

func TestInfo(t *testing.T) {
	l, _ := newLedger(t)
	info := l.Info()
	assert.Equal(t, "UnityPay Token", info.Name)
	assert.Equal(t, "UPX", info.Symbol)
	assert.Equal(t, 18, info.Decimals)
	assert.Equal(t, "1000000000000000000000000000", info.MaxSupply)
	assert.Equal(t, owner, info.Owner)
}

func TestCode(t *testing.T) {
	assert.Equal(t, "SupplyExceeded", Code(CanMint(MintContext{Caller: owner, Owner: owner, To: alice, Amount: MaxSupply, TotalSupply: u(1)}).Error()))
	assert.Equal(t, "", Code(errors.New("other")))
}
