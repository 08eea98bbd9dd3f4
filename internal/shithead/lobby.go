package shithead

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"shithead-server/internal/cards"
)

// threeUpTarget is how many face up cards each player ends the selection
// phase with. The down pile is dealt the same amount.
const threeUpTarget = 3

// Rules carries the process boundary constants the lobby depends on. They
// come from configuration, not from this package.
type Rules struct {
	MaxPlayers        int
	InitialHandSize   int
	TurnDuration      time.Duration
	SelectionDuration time.Duration
}

// TimeoutHandler receives timer expirations. Timers hold the lobby id by
// value and re-resolve the lobby through the registry at fire time, so a
// timer never keeps a lobby alive or calls into a stale one.
type TimeoutHandler interface {
	TurnTimeout(lobbyID LobbyID, turnSerial uint64)
	SelectionTimeout(lobbyID LobbyID, serial uint64)
}

// CardLocation is where a clicked card sits from the clicking player's point
// of view.
type CardLocation int

const (
	LocationTrash CardLocation = iota
	LocationHand
	LocationThreeUp
	LocationThreeDown
)

// ClickedCard describes one card click. CardIndex is only meaningful for
// the pile locations, not for the trash.
type ClickedCard struct {
	Location  CardLocation
	CardIndex int
}

// RemoveResult tells the caller what removing a player did to the lobby.
type RemoveResult int

const (
	RemovedOK RemoveResult = iota
	RemovedNewOwner
	RemovedLobbyNowEmpty
	RemovedNotInLobby
)

// Lobby phase variants. Every phase dependent operation type-switches on the
// current variant and rejects calls that don't apply.
type lobbyState interface {
	isLobbyState()
}

type waitingState struct{}

// choosingState is the pre-game selection phase: players arrange their
// three face up cards while the rest of the deck waits.
type choosingState struct {
	deck   *cards.Deck
	timer  *countdownTimer
	serial uint64
}

// inGameState holds active play: draw deck, trash pile and the live turn.
type inGameState struct {
	deck  *cards.Deck
	trash *cards.Deck
	turn  *Turn
}

func (waitingState) isLobbyState()   {}
func (*choosingState) isLobbyState() {}
func (*inGameState) isLobbyState()   {}

// Lobby is one game room. All mutation is linearized through its mutex:
// client operations and timer callbacks alike take it before touching
// anything, so no two operations ever interleave.
type Lobby struct {
	mu sync.Mutex

	id      LobbyID
	name    string
	ownerID ClientID
	players *Roster
	state   lobbyState

	subscribers map[ClientID]EventSink

	// timerSerial numbers every timer the lobby starts, so late firings can
	// be told apart from the current one.
	timerSerial uint64

	rules    Rules
	timeouts TimeoutHandler
	logger   *zap.Logger
}

// NewLobby creates a lobby in the waiting phase with the owner as its sole
// member. A lobby never exists with an empty roster: the owner is inserted
// here, and the registry destroys the lobby the moment it empties.
func NewLobby(id LobbyID, name string, ownerID ClientID, ownerName string, ownerSink EventSink, rules Rules, timeouts TimeoutHandler, logger *zap.Logger) *Lobby {
	players := NewRoster()
	players.Insert(ownerID, NewPlayer(ownerName))

	return &Lobby{
		id:          id,
		name:        name,
		ownerID:     ownerID,
		players:     players,
		state:       waitingState{},
		subscribers: map[ClientID]EventSink{ownerID: ownerSink},
		rules:       rules,
		timeouts:    timeouts,
		logger:      logger.With(zap.Int("lobbyId", int(id))),
	}
}

func (l *Lobby) ID() LobbyID {
	return l.id
}

func (l *Lobby) Name() string {
	return l.name
}

func (l *Lobby) OwnerID() ClientID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ownerID
}

func (l *Lobby) PlayerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.players.Len()
}

// IsWaiting reports whether the lobby is in the waiting phase.
func (l *Lobby) IsWaiting() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.state.(waitingState)
	return ok
}

// Players returns the lobby members in turn order.
func (l *Lobby) Players() []PlayerInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playerInfosLocked()
}

// CurrentTurn returns the player holding the live turn, if the lobby is in
// active play.
func (l *Lobby) CurrentTurn() (ClientID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.state.(*inGameState); ok {
		return st.turn.PlayerID, true
	}
	return 0, false
}

// PlayerSnapshot returns a copy of a member's piles, or nil if the id is not
// in the lobby.
func (l *Lobby) PlayerSnapshot(id ClientID) *Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	player := l.players.Get(id)
	if player == nil {
		return nil
	}
	snapshot := &Player{
		Username:  player.Username,
		Hand:      append([]cards.CardID(nil), player.Hand...),
		ThreeUp:   append([]cards.CardID(nil), player.ThreeUp...),
		ThreeDown: append([]cards.CardID(nil), player.ThreeDown...),
	}
	return snapshot
}

// AddPlayer admits a new member. Only valid while the lobby waits and has
// room. It returns the roster as it was before the join, which is what the
// joiner's confirmation shows; existing members get the join broadcast.
func (l *Lobby) AddPlayer(id ClientID, username string, sink EventSink) ([]PlayerInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.state.(waitingState); !ok {
		return nil, ErrGameAlreadyStarted
	}
	if l.players.Len() >= l.rules.MaxPlayers {
		return nil, ErrLobbyFull
	}

	existing := l.playerInfosLocked()

	l.broadcastLocked(Event{Type: EventPlayerJoined, Payload: PlayerJoinedPayload{
		Player: PlayerInfo{ID: id, Username: username},
	}})

	l.players.Insert(id, NewPlayer(username))
	l.subscribers[id] = sink

	return existing, nil
}

// RemovePlayer takes a member out of the lobby.
//
// If the leaver holds the live turn, the turn advances first: the state
// machine must never hold a turn for a departed player, and the next-player
// computation needs the leaver still in the turn order. Removal that leaves
// one player stops the game; removal of the owner hands ownership to the
// first remaining player. An emptied lobby is reported to the caller, which
// owns destruction.
func (l *Lobby) RemovePlayer(id ClientID) (RemoveResult, ClientID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.players.Get(id) == nil {
		return RemovedNotInLobby, 0
	}

	if st, ok := l.state.(*inGameState); ok && st.turn.PlayerID == id {
		l.advanceTurnLocked(st)
	}

	l.players.Remove(id)
	delete(l.subscribers, id)

	if l.players.IsEmpty() {
		l.stopGameLocked(false)
		return RemovedLobbyNowEmpty, 0
	}

	l.broadcastLocked(Event{Type: EventPlayerLeft, Payload: PlayerLeftPayload{PlayerID: id}})

	if l.players.Len() == 1 {
		l.stopGameLocked(true)
	}

	if id == l.ownerID {
		newOwner := l.players.First()
		l.ownerID = newOwner
		l.broadcastLocked(Event{Type: EventOwnerChanged, Payload: OwnerChangedPayload{NewOwnerID: newOwner}})
		return RemovedNewOwner, newOwner
	}

	return RemovedOK, 0
}

// SetUsername updates a member's visible name.
func (l *Lobby) SetUsername(id ClientID, username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if player := l.players.Get(id); player != nil {
		player.Username = username
	}
}

// StartGame deals every member their initial cards and enters the selection
// phase. Only the owner may start, and only from the waiting phase.
func (l *Lobby) StartGame(requester ClientID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if requester != l.ownerID {
		return ErrNotOwner
	}
	if _, ok := l.state.(waitingState); !ok {
		return ErrGameAlreadyStarted
	}

	deck := cards.ShuffledDeck()
	for _, id := range l.players.PlayerIDs() {
		player := l.players.Get(id)
		player.Hand = mustTake(deck, l.rules.InitialHandSize)
		player.ThreeDown = mustTake(deck, threeUpTarget)
	}

	l.broadcastLocked(Event{Type: EventGameStarted, Payload: struct{}{}})
	for _, id := range l.players.PlayerIDs() {
		player := l.players.Get(id)
		hand := append([]cards.CardID(nil), player.Hand...)
		l.unicastLocked(id, Event{Type: EventDeal, Payload: DealPayload{
			Hand:          hand,
			DownCardCount: len(player.ThreeDown),
		}})
	}

	serial := l.nextTimerSerialLocked()
	lobbyID := l.id
	timer := startCountdown(l.rules.SelectionDuration, func() {
		l.timeouts.SelectionTimeout(lobbyID, serial)
	})
	l.state = &choosingState{deck: deck, timer: timer, serial: serial}

	l.logger.Info("game started",
		zap.Int("players", l.players.Len()),
		zap.Int("deckSize", deck.Size()),
	)
	return nil
}

// ClickCard handles a card click, whose meaning depends on the phase. During
// selection, clicks move cards between hand and face up piles. In active
// play, clicking the trash claims it when no card can be played.
func (l *Lobby) ClickCard(id ClientID, click ClickedCard) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch st := l.state.(type) {
	case waitingState:
		return ErrGameNotStarted
	case *choosingState:
		return l.selectionClickLocked(st, id, click)
	case *inGameState:
		return l.inGameClickLocked(st, id, click)
	default:
		return ErrGameNotStarted
	}
}

func (l *Lobby) selectionClickLocked(st *choosingState, id ClientID, click ClickedCard) error {
	player := l.players.Get(id)
	if player == nil {
		return ErrNotInLobby
	}

	switch click.Location {
	case LocationHand:
		if click.CardIndex < 0 || click.CardIndex >= len(player.Hand) {
			return ErrNoSuchCard
		}
		if len(player.ThreeUp) >= threeUpTarget {
			return ErrThreeUpFull
		}
		card := swapRemove(&player.Hand, click.CardIndex)
		player.ThreeUp = append(player.ThreeUp, card)

		l.broadcastLocked(Event{Type: EventCardHandToUp, Payload: CardMovedPayload{
			PlayerID:  id,
			CardIndex: click.CardIndex,
		}})

		if l.allPlayersChoseThreeUpLocked() {
			l.completeSelectionLocked(st)
		}
		return nil

	case LocationThreeUp:
		if click.CardIndex < 0 || click.CardIndex >= len(player.ThreeUp) {
			return ErrNoSuchCard
		}
		card := swapRemove(&player.ThreeUp, click.CardIndex)
		player.Hand = append(player.Hand, card)

		l.broadcastLocked(Event{Type: EventCardUpToHand, Payload: CardMovedPayload{
			PlayerID:  id,
			CardIndex: click.CardIndex,
		}})
		return nil

	default:
		// clicks on the trash or the down pile mean nothing while choosing
		return nil
	}
}

func (l *Lobby) inGameClickLocked(st *inGameState, id ClientID, click ClickedCard) error {
	if st.turn.PlayerID != id {
		return ErrNotYourTurn
	}
	player := l.players.Get(id)
	if player == nil {
		return ErrNotInLobby
	}

	switch click.Location {
	case LocationTrash:
		target := cards.EffectiveTrashRank(st.trash)
		if len(player.PlayableCards(target)) > 0 {
			return ErrCardsCanBePlayed
		}

		l.players.GiveCards(id, st.trash.TakeAll())
		l.broadcastLocked(Event{Type: EventGiveTrash, Payload: GiveTrashPayload{PlayerID: id}})
		l.advanceTurnLocked(st)
		return nil

	default:
		// playing a card from hand/up/down onto the trash is the game's
		// unfinished action; reject it instead of guessing its rules
		return ErrUnsupportedAction
	}
}

// SelectionTimeout is the selection timer's entry point. A serial that no
// longer matches the live selection phase identifies a timer that lost the
// race against cancellation and is dropped.
func (l *Lobby) SelectionTimeout(serial uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.state.(*choosingState)
	if !ok || st.serial != serial {
		return
	}
	l.completeSelectionLocked(st)
}

// TurnTimeout is the turn timer's entry point. The timed out player takes
// the whole trash as the penalty for inaction, then the turn advances.
func (l *Lobby) TurnTimeout(turnSerial uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.state.(*inGameState)
	if !ok || st.turn.serial != turnSerial {
		return
	}

	player := st.turn.PlayerID
	l.players.GiveCards(player, st.trash.TakeAll())
	l.broadcastLocked(Event{Type: EventGiveTrash, Payload: GiveTrashPayload{PlayerID: player}})

	l.logger.Info("turn timed out", zap.Int("playerId", int(player)))

	l.advanceTurnLocked(st)
}

// StopGame aborts any game in progress and returns the lobby to the waiting
// phase.
func (l *Lobby) StopGame() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopGameLocked(true)
}

// completeSelectionLocked ends the selection phase: players short of three
// up cards get cards moved from their hands, everyone learns about the auto
// completed players, and the first turn begins.
func (l *Lobby) completeSelectionLocked(st *choosingState) {
	st.timer.Cancel()

	autoCompleted := make(map[ClientID][]cards.CardID)
	for _, id := range l.players.PlayerIDs() {
		player := l.players.Get(id)
		if len(player.ThreeUp) >= threeUpTarget {
			continue
		}
		for len(player.ThreeUp) < threeUpTarget {
			if len(player.Hand) == 0 {
				panic("cannot auto-complete three up cards: player ran out of hand cards")
			}
			card := player.Hand[len(player.Hand)-1]
			player.Hand = player.Hand[:len(player.Hand)-1]
			player.ThreeUp = append(player.ThreeUp, card)
		}
		autoCompleted[id] = append([]cards.CardID(nil), player.ThreeUp...)
	}

	l.broadcastLocked(Event{Type: EventSelectionDone, Payload: SelectionDonePayload{
		AutoCompleted: autoCompleted,
	}})

	first := l.players.First()
	turn := l.newTurnLocked(first)
	l.broadcastLocked(Event{Type: EventTurn, Payload: TurnPayload{PlayerID: first}})

	l.state = &inGameState{
		deck:  st.deck,
		trash: cards.EmptyDeck(),
		turn:  turn,
	}

	l.logger.Info("selection phase complete",
		zap.Int("autoCompleted", len(autoCompleted)),
		zap.Int("firstTurnPlayerId", int(first)),
	)
}

// advanceTurnLocked is the single choke point every turn transition passes
// through. It cancels the outgoing turn's timer before the new turn becomes
// visible, so at most one live timer exists at any instant.
func (l *Lobby) advanceTurnLocked(st *inGameState) {
	st.turn.Cancel()
	next := l.players.NextAfter(st.turn.PlayerID)
	st.turn = l.newTurnLocked(next)
	l.broadcastLocked(Event{Type: EventTurn, Payload: TurnPayload{PlayerID: next}})
}

func (l *Lobby) newTurnLocked(player ClientID) *Turn {
	serial := l.nextTimerSerialLocked()
	lobbyID := l.id
	timer := startCountdown(l.rules.TurnDuration, func() {
		l.timeouts.TurnTimeout(lobbyID, serial)
	})
	return &Turn{PlayerID: player, serial: serial, timer: timer}
}

func (l *Lobby) stopGameLocked(announce bool) {
	switch st := l.state.(type) {
	case waitingState:
		return
	case *choosingState:
		st.timer.Cancel()
	case *inGameState:
		st.turn.Cancel()
	}
	l.state = waitingState{}
	if announce {
		l.broadcastLocked(Event{Type: EventGameStopped, Payload: struct{}{}})
		l.logger.Info("game stopped early")
	}
}

func (l *Lobby) allPlayersChoseThreeUpLocked() bool {
	for _, id := range l.players.PlayerIDs() {
		if len(l.players.Get(id).ThreeUp) != threeUpTarget {
			return false
		}
	}
	return true
}

func (l *Lobby) playerInfosLocked() []PlayerInfo {
	ids := l.players.PlayerIDs()
	infos := make([]PlayerInfo, 0, len(ids))
	for _, id := range ids {
		infos = append(infos, PlayerInfo{ID: id, Username: l.players.Get(id).Username})
	}
	return infos
}

// broadcastLocked fans an event out to every subscriber. Having nobody to
// tell is fine.
func (l *Lobby) broadcastLocked(event Event) {
	for _, sink := range l.subscribers {
		sink.Send(event)
	}
}

func (l *Lobby) unicastLocked(id ClientID, event Event) {
	if sink, ok := l.subscribers[id]; ok {
		sink.Send(event)
	}
}

func (l *Lobby) nextTimerSerialLocked() uint64 {
	l.timerSerial++
	return l.timerSerial
}

// swapRemove removes the element at index by swapping the last element into
// its place. Pile order carries no meaning, only membership does.
func swapRemove(ids *[]cards.CardID, index int) cards.CardID {
	s := *ids
	card := s[index]
	s[index] = s[len(s)-1]
	*ids = s[:len(s)-1]
	return card
}

func mustTake(deck *cards.Deck, amount int) []cards.CardID {
	taken, err := deck.TakeFromTop(amount)
	if err != nil {
		panic("not enough cards to initialize game")
	}
	return taken
}
