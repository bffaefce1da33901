// internal/arena/store_test.go
package arena

import (
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testPuzzle = "53..7....6..195....98....6.8...6...34..8.3..17...2...6.6....28....419..5....8..79"

func TestCreateAssignsSixDigitToken(t *testing.T) {
	s := NewRoomStore()
	creator := uuid.New()

	room, _, err := s.Create(testPuzzle, testPuzzle, creator)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), room.ID)
	require.Equal(t, []uuid.UUID{creator}, room.Participants)
	require.Equal(t, 1, s.Len())

	got, ok := s.RoomOf(creator)
	require.True(t, ok)
	require.Equal(t, room.ID, got)
}

func TestCreateRetriesOnCollision(t *testing.T) {
	s := NewRoomStore()
	ids := []string{"111111", "111111", "222222"}
	s.idFn = func() string {
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id
	}

	first, _, err := s.Create(testPuzzle, testPuzzle, uuid.New())
	require.NoError(t, err)
	require.Equal(t, "111111", first.ID)

	second, _, err := s.Create(testPuzzle, testPuzzle, uuid.New())
	require.NoError(t, err)
	require.Equal(t, "222222", second.ID)
}

func TestCreateExhaustsRetries(t *testing.T) {
	s := NewRoomStore()
	s.idFn = func() string { return "111111" }

	_, _, err := s.Create(testPuzzle, testPuzzle, uuid.New())
	require.NoError(t, err)

	_, _, err = s.Create(testPuzzle, testPuzzle, uuid.New())
	require.ErrorIs(t, err, ErrCapacityExhausted)
	require.Equal(t, 1, s.Len())
}

func TestJoinFillsSecondSlot(t *testing.T) {
	s := NewRoomStore()
	creator, joiner := uuid.New(), uuid.New()
	room, _, err := s.Create(testPuzzle, testPuzzle, creator)
	require.NoError(t, err)

	snap, recipients, _, err := s.Join(room.ID, joiner)
	require.NoError(t, err)
	require.Equal(t, testPuzzle, snap.Puzzle)
	require.Equal(t, room.ID, snap.RoomID)
	require.Equal(t, []uuid.UUID{creator, joiner}, recipients)

	got, ok := s.Get(room.ID)
	require.True(t, ok)
	require.Equal(t, []uuid.UUID{creator, joiner}, got.Participants)
}

func TestJoinMissingRoom(t *testing.T) {
	s := NewRoomStore()
	_, _, _, err := s.Join("000000", uuid.New())
	require.ErrorIs(t, err, ErrRoomNotFound)
	require.Equal(t, 0, s.Len())
}

func TestJoinFullRoom(t *testing.T) {
	s := NewRoomStore()
	room, _, err := s.Create(testPuzzle, testPuzzle, uuid.New())
	require.NoError(t, err)
	_, _, _, err = s.Join(room.ID, uuid.New())
	require.NoError(t, err)

	third := uuid.New()
	_, _, _, err = s.Join(room.ID, third)
	require.ErrorIs(t, err, ErrRoomFull)

	got, _ := s.Get(room.ID)
	require.Len(t, got.Participants, MaxParticipants)
	_, ok := s.RoomOf(third)
	require.False(t, ok)
}

// Two concurrent joiners racing for the last slot: exactly one wins.
func TestConcurrentJoinAdmitsExactlyOne(t *testing.T) {
	s := NewRoomStore()
	room, _, err := s.Create(testPuzzle, testPuzzle, uuid.New())
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _, errs[i] = s.Join(room.ID, uuid.New())
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
		} else {
			require.ErrorIs(t, err, ErrRoomFull)
		}
	}
	require.Equal(t, 1, admitted)

	got, _ := s.Get(room.ID)
	require.Len(t, got.Participants, MaxParticipants)
}

func TestRemoveDeletesEmptyRoomSynchronously(t *testing.T) {
	s := NewRoomStore()
	creator := uuid.New()
	room, _, err := s.Create(testPuzzle, testPuzzle, creator)
	require.NoError(t, err)

	remaining, removed := s.Remove(room.ID, creator)
	require.True(t, removed)
	require.Empty(t, remaining)
	require.Equal(t, 0, s.Len())
	_, ok := s.RoomOf(creator)
	require.False(t, ok)
}

func TestRemoveNotifiesRemaining(t *testing.T) {
	s := NewRoomStore()
	creator, joiner := uuid.New(), uuid.New()
	room, _, _ := s.Create(testPuzzle, testPuzzle, creator)
	_, _, _, err := s.Join(room.ID, joiner)
	require.NoError(t, err)

	remaining, removed := s.Remove(room.ID, creator)
	require.True(t, removed)
	require.Equal(t, []uuid.UUID{joiner}, remaining)
	require.Equal(t, 1, s.Len())
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := NewRoomStore()
	creator := uuid.New()
	room, _, _ := s.Create(testPuzzle, testPuzzle, creator)

	_, removed := s.Remove(room.ID, creator)
	require.True(t, removed)
	_, removed = s.Remove(room.ID, creator)
	require.False(t, removed)
}

func TestRemoveConnUsesReverseIndex(t *testing.T) {
	s := NewRoomStore()
	creator, joiner := uuid.New(), uuid.New()
	room, _, _ := s.Create(testPuzzle, testPuzzle, creator)
	_, _, _, err := s.Join(room.ID, joiner)
	require.NoError(t, err)

	roomID, remaining, removed := s.RemoveConn(joiner)
	require.True(t, removed)
	require.Equal(t, room.ID, roomID)
	require.Equal(t, []uuid.UUID{creator}, remaining)

	// Unknown connection is a no-op.
	_, _, removed = s.RemoveConn(uuid.New())
	require.False(t, removed)
}

// A rejected join must not mutate anything, including the room the joiner
// already occupies.
func TestFailedJoinLeavesMembershipIntact(t *testing.T) {
	s := NewRoomStore()
	creator, joiner := uuid.New(), uuid.New()
	room, _, _ := s.Create(testPuzzle, testPuzzle, creator)
	_, _, _, err := s.Join(room.ID, joiner)
	require.NoError(t, err)

	_, _, _, err = s.Join("000000", joiner)
	require.ErrorIs(t, err, ErrRoomNotFound)

	got, ok := s.Get(room.ID)
	require.True(t, ok)
	require.Equal(t, []uuid.UUID{creator, joiner}, got.Participants)
	cur, ok := s.RoomOf(joiner)
	require.True(t, ok)
	require.Equal(t, room.ID, cur)
}

func TestJoinMovesConnFromPreviousRoom(t *testing.T) {
	s := NewRoomStore()
	a, b := uuid.New(), uuid.New()
	first, _, _ := s.Create(testPuzzle, testPuzzle, a)
	second, _, _ := s.Create(testPuzzle, testPuzzle, b)

	_, _, dep, err := s.Join(first.ID, b)
	require.NoError(t, err)
	require.True(t, dep.Left)
	require.Equal(t, second.ID, dep.RoomID)
	require.Empty(t, dep.Remaining)

	// b's old empty room is gone; the new one holds both.
	require.Equal(t, 1, s.Len())
	got, _ := s.Get(first.ID)
	require.Equal(t, []uuid.UUID{a, b}, got.Participants)
}

func TestJoinOwnRoomRejected(t *testing.T) {
	s := NewRoomStore()
	creator := uuid.New()
	room, _, _ := s.Create(testPuzzle, testPuzzle, creator)

	_, _, _, err := s.Join(room.ID, creator)
	require.ErrorIs(t, err, ErrRoomFull)

	got, ok := s.Get(room.ID)
	require.True(t, ok)
	require.Equal(t, []uuid.UUID{creator}, got.Participants)
}

func TestOthersExcludesSender(t *testing.T) {
	s := NewRoomStore()
	creator, joiner := uuid.New(), uuid.New()
	room, _, _ := s.Create(testPuzzle, testPuzzle, creator)
	_, _, _, err := s.Join(room.ID, joiner)
	require.NoError(t, err)

	others, ok := s.Others(room.ID, creator)
	require.True(t, ok)
	require.Equal(t, []uuid.UUID{joiner}, others)

	_, ok = s.Others("000000", creator)
	require.False(t, ok)
}
