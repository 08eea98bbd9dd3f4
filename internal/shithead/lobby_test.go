package shithead

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shithead-server/internal/cards"
)

// recordingSink collects every event sent to one client. Timer goroutines
// broadcast concurrently with test assertions, hence the mutex.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Send(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) ofType(eventType string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// loopbackTimeouts routes timer expirations straight back into the lobby,
// standing in for the server side registry.
type loopbackTimeouts struct {
	mu    sync.Mutex
	lobby *Lobby
}

func (h *loopbackTimeouts) target() *Lobby {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lobby
}

func (h *loopbackTimeouts) setTarget(l *Lobby) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lobby = l
}

func (h *loopbackTimeouts) TurnTimeout(lobbyID LobbyID, turnSerial uint64) {
	if l := h.target(); l != nil {
		l.TurnTimeout(turnSerial)
	}
}

func (h *loopbackTimeouts) SelectionTimeout(lobbyID LobbyID, serial uint64) {
	if l := h.target(); l != nil {
		l.SelectionTimeout(serial)
	}
}

func testRules() Rules {
	return Rules{
		MaxPlayers:        6,
		InitialHandSize:   6,
		TurnDuration:      time.Hour,
		SelectionDuration: time.Hour,
	}
}

// newTestLobby builds a lobby with the given number of members. Client ids
// count up from 0, sinks are indexed the same way.
func newTestLobby(t *testing.T, members int, rules Rules) (*Lobby, []*recordingSink) {
	t.Helper()
	require.GreaterOrEqual(t, members, 1)

	sinks := make([]*recordingSink, members)
	for i := range sinks {
		sinks[i] = &recordingSink{}
	}

	timeouts := &loopbackTimeouts{}
	lobby := NewLobby(1, "test lobby", 0, "player-0", sinks[0], rules, timeouts, zap.NewNop())
	timeouts.setTarget(lobby)

	for i := 1; i < members; i++ {
		_, err := lobby.AddPlayer(ClientID(i), "player", sinks[i])
		require.NoError(t, err)
	}
	return lobby, sinks
}

// chooseThreeUp moves the first three hand cards of a player to the face up
// pile.
func chooseThreeUp(t *testing.T, lobby *Lobby, id ClientID) {
	t.Helper()
	for i := 0; i < 3; i++ {
		err := lobby.ClickCard(id, ClickedCard{Location: LocationHand, CardIndex: 0})
		require.NoError(t, err)
	}
}

func TestAddPlayerReturnsPreJoinRoster(t *testing.T) {
	lobby, sinks := newTestLobby(t, 1, testRules())

	joinerSink := &recordingSink{}
	existing, err := lobby.AddPlayer(1, "joiner", joinerSink)
	require.NoError(t, err)

	// the confirmation lists only the members that were already there
	require.Len(t, existing, 1)
	assert.Equal(t, ClientID(0), existing[0].ID)

	// the owner hears about the join, the joiner does not hear about itself
	require.Len(t, sinks[0].ofType(EventPlayerJoined), 1)
	assert.Empty(t, joinerSink.ofType(EventPlayerJoined))
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
	rules := testRules()
	rules.MaxPlayers = 2
	lobby, _ := newTestLobby(t, 2, rules)

	_, err := lobby.AddPlayer(2, "late", &recordingSink{})
	assert.ErrorIs(t, err, ErrLobbyFull)
}

func TestAddPlayerRejectsAfterStart(t *testing.T) {
	lobby, _ := newTestLobby(t, 2, testRules())
	require.NoError(t, lobby.StartGame(0))

	_, err := lobby.AddPlayer(2, "late", &recordingSink{})
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
}

func TestStartGameOnlyOwner(t *testing.T) {
	lobby, _ := newTestLobby(t, 2, testRules())

	assert.ErrorIs(t, lobby.StartGame(1), ErrNotOwner)
	require.NoError(t, lobby.StartGame(0))
	assert.ErrorIs(t, lobby.StartGame(0), ErrGameAlreadyStarted)
}

func TestStartGameDealsHandsAndDownCards(t *testing.T) {
	lobby, sinks := newTestLobby(t, 3, testRules())
	require.NoError(t, lobby.StartGame(0))

	for id := ClientID(0); id < 3; id++ {
		player := lobby.PlayerSnapshot(id)
		require.NotNil(t, player)
		assert.Len(t, player.Hand, 6)
		assert.Len(t, player.ThreeDown, 3)
		assert.Empty(t, player.ThreeUp)
	}

	// everyone hears the start, everyone gets exactly their own deal
	for i, sink := range sinks {
		require.Len(t, sink.ofType(EventGameStarted), 1, "sink %d", i)
		deals := sink.ofType(EventDeal)
		require.Len(t, deals, 1, "sink %d", i)
		payload := deals[0].Payload.(DealPayload)
		assert.Len(t, payload.Hand, 6)
		assert.Equal(t, 3, payload.DownCardCount)
	}
}

func TestSelectionMovesCardsBothWays(t *testing.T) {
	lobby, sinks := newTestLobby(t, 2, testRules())
	require.NoError(t, lobby.StartGame(0))

	require.NoError(t, lobby.ClickCard(0, ClickedCard{Location: LocationHand, CardIndex: 2}))
	player := lobby.PlayerSnapshot(0)
	assert.Len(t, player.Hand, 5)
	assert.Len(t, player.ThreeUp, 1)
	require.Len(t, sinks[1].ofType(EventCardHandToUp), 1)

	require.NoError(t, lobby.ClickCard(0, ClickedCard{Location: LocationThreeUp, CardIndex: 0}))
	player = lobby.PlayerSnapshot(0)
	assert.Len(t, player.Hand, 6)
	assert.Empty(t, player.ThreeUp)
	require.Len(t, sinks[1].ofType(EventCardUpToHand), 1)
}

func TestSelectionRejectsBadClicks(t *testing.T) {
	lobby, _ := newTestLobby(t, 2, testRules())
	require.NoError(t, lobby.StartGame(0))

	assert.ErrorIs(t, lobby.ClickCard(0, ClickedCard{Location: LocationHand, CardIndex: 99}), ErrNoSuchCard)
	assert.ErrorIs(t, lobby.ClickCard(0, ClickedCard{Location: LocationThreeUp, CardIndex: 0}), ErrNoSuchCard)
	assert.ErrorIs(t, lobby.ClickCard(99, ClickedCard{Location: LocationHand, CardIndex: 0}), ErrNotInLobby)

	chooseThreeUp(t, lobby, 0)
	assert.ErrorIs(t, lobby.ClickCard(0, ClickedCard{Location: LocationHand, CardIndex: 0}), ErrThreeUpFull)
}

func TestSelectionEndsEarlyWhenEveryoneChose(t *testing.T) {
	lobby, sinks := newTestLobby(t, 2, testRules())
	require.NoError(t, lobby.StartGame(0))

	chooseThreeUp(t, lobby, 1)
	_, inGame := lobby.CurrentTurn()
	assert.False(t, inGame, "selection must not end while a player is still choosing")

	chooseThreeUp(t, lobby, 0)

	current, inGame := lobby.CurrentTurn()
	require.True(t, inGame)
	assert.Equal(t, ClientID(0), current, "first turn goes to the first player in join order")

	for i, sink := range sinks {
		done := sink.ofType(EventSelectionDone)
		require.Len(t, done, 1, "sink %d", i)
		assert.Empty(t, done[0].Payload.(SelectionDonePayload).AutoCompleted)
		require.Len(t, sink.ofType(EventTurn), 1, "sink %d", i)
	}
}

func TestSelectionTimeoutAutoCompletes(t *testing.T) {
	rules := testRules()
	rules.SelectionDuration = 20 * time.Millisecond
	lobby, sinks := newTestLobby(t, 2, rules)
	require.NoError(t, lobby.StartGame(0))

	// player 0 picks one card, player 1 picks nothing
	require.NoError(t, lobby.ClickCard(0, ClickedCard{Location: LocationHand, CardIndex: 0}))

	require.Eventually(t, func() bool {
		_, inGame := lobby.CurrentTurn()
		return inGame
	}, time.Second, 5*time.Millisecond)

	for id := ClientID(0); id < 2; id++ {
		player := lobby.PlayerSnapshot(id)
		assert.Len(t, player.ThreeUp, 3)
		assert.Len(t, player.Hand, 3)
	}

	done := sinks[0].ofType(EventSelectionDone)
	require.Len(t, done, 1)
	autoCompleted := done[0].Payload.(SelectionDonePayload).AutoCompleted
	assert.Len(t, autoCompleted[0], 3)
	assert.Len(t, autoCompleted[1], 3)
}

func TestInGameClickChecks(t *testing.T) {
	lobby, _ := newTestLobby(t, 2, testRules())

	assert.ErrorIs(t, lobby.ClickCard(0, ClickedCard{Location: LocationTrash}), ErrGameNotStarted)

	require.NoError(t, lobby.StartGame(0))
	chooseThreeUp(t, lobby, 0)
	chooseThreeUp(t, lobby, 1)

	assert.ErrorIs(t, lobby.ClickCard(1, ClickedCard{Location: LocationTrash}), ErrNotYourTurn)
	assert.ErrorIs(t, lobby.ClickCard(0, ClickedCard{Location: LocationHand, CardIndex: 0}), ErrUnsupportedAction)

	// the trash is empty and its fallback rank is a two, which any hand of
	// three cards can beat, so claiming it is refused
	assert.ErrorIs(t, lobby.ClickCard(0, ClickedCard{Location: LocationTrash}), ErrCardsCanBePlayed)
}

func TestTurnTimeoutGivesTrashAndAdvances(t *testing.T) {
	rules := testRules()
	rules.TurnDuration = 20 * time.Millisecond
	lobby, sinks := newTestLobby(t, 2, rules)
	require.NoError(t, lobby.StartGame(0))
	chooseThreeUp(t, lobby, 0)
	chooseThreeUp(t, lobby, 1)

	require.Eventually(t, func() bool {
		current, inGame := lobby.CurrentTurn()
		return inGame && current == 1
	}, time.Second, 5*time.Millisecond)

	trashed := sinks[0].ofType(EventGiveTrash)
	require.NotEmpty(t, trashed)
	assert.Equal(t, ClientID(0), trashed[0].Payload.(GiveTrashPayload).PlayerID)
}

func TestRemoveTurnHolderAdvancesFirst(t *testing.T) {
	lobby, sinks := newTestLobby(t, 3, testRules())
	require.NoError(t, lobby.StartGame(0))
	for id := ClientID(0); id < 3; id++ {
		chooseThreeUp(t, lobby, id)
	}

	current, inGame := lobby.CurrentTurn()
	require.True(t, inGame)
	require.Equal(t, ClientID(0), current)

	result, newOwner := lobby.RemovePlayer(0)
	assert.Equal(t, RemovedNewOwner, result)
	assert.Equal(t, ClientID(1), newOwner)

	current, inGame = lobby.CurrentTurn()
	require.True(t, inGame)
	assert.Equal(t, ClientID(1), current)

	require.Len(t, sinks[1].ofType(EventPlayerLeft), 1)
	require.Len(t, sinks[1].ofType(EventOwnerChanged), 1)
}

func TestRemoveSecondToLastStopsGame(t *testing.T) {
	lobby, sinks := newTestLobby(t, 2, testRules())
	require.NoError(t, lobby.StartGame(0))
	chooseThreeUp(t, lobby, 0)
	chooseThreeUp(t, lobby, 1)

	result, _ := lobby.RemovePlayer(1)
	assert.Equal(t, RemovedOK, result)

	assert.True(t, lobby.IsWaiting(), "a single remaining player cannot keep playing")
	require.Len(t, sinks[0].ofType(EventGameStopped), 1)
}

func TestRemoveLastPlayerReportsEmpty(t *testing.T) {
	lobby, _ := newTestLobby(t, 1, testRules())

	result, _ := lobby.RemovePlayer(0)
	assert.Equal(t, RemovedLobbyNowEmpty, result)

	result, _ = lobby.RemovePlayer(0)
	assert.Equal(t, RemovedNotInLobby, result)
}

func TestStaleTimeoutIsDiscarded(t *testing.T) {
	lobby, _ := newTestLobby(t, 2, testRules())
	require.NoError(t, lobby.StartGame(0))
	chooseThreeUp(t, lobby, 0)
	chooseThreeUp(t, lobby, 1)

	current, inGame := lobby.CurrentTurn()
	require.True(t, inGame)

	// a timeout carrying a serial from a turn long gone must change nothing
	lobby.TurnTimeout(0)

	after, stillInGame := lobby.CurrentTurn()
	require.True(t, stillInGame)
	assert.Equal(t, current, after)
}

func TestPlayerSnapshotIsACopy(t *testing.T) {
	lobby, _ := newTestLobby(t, 2, testRules())
	require.NoError(t, lobby.StartGame(0))

	snapshot := lobby.PlayerSnapshot(0)
	require.NotNil(t, snapshot)
	snapshot.Hand[0] = cards.CardID(53)
	snapshot.Hand = snapshot.Hand[:1]

	fresh := lobby.PlayerSnapshot(0)
	assert.Len(t, fresh.Hand, 6)
}
