package server

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"shithead-server/internal/shithead"
)

// ErrNoSuchLobby is returned for operations addressing a lobby id that is
// not registered.
var ErrNoSuchLobby = errors.New("NO_SUCH_LOBBY: No such lobby")

// State is the process wide game server state: the lobby and client
// registries plus identifier allocation. It is constructed once at startup
// and shared by every session goroutine.
//
// The registry locks only guard lookup, insert and remove; all game
// mutation happens under the individual lobby's own lock, so unrelated
// lobbies never contend.
type State struct {
	nextClientID atomic.Int64
	nextLobbyID  atomic.Int64

	lobbies   map[shithead.LobbyID]*shithead.Lobby
	lobbiesMu sync.RWMutex

	clients   map[shithead.ClientID]string
	clientsMu sync.RWMutex

	rules  shithead.Rules
	logger *zap.Logger
}

func NewState(rules shithead.Rules, logger *zap.Logger) *State {
	return &State{
		lobbies: make(map[shithead.LobbyID]*shithead.Lobby),
		clients: make(map[shithead.ClientID]string),
		rules:   rules,
		logger:  logger,
	}
}

// NextClientID allocates a client id. Ids are unique for the process
// lifetime and never reused.
func (s *State) NextClientID() shithead.ClientID {
	return shithead.ClientID(s.nextClientID.Add(1) - 1)
}

func (s *State) AddClient(id shithead.ClientID, username string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[id] = username
}

func (s *State) RemoveClient(id shithead.ClientID) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, id)
}

func (s *State) Username(id shithead.ClientID) string {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return s.clients[id]
}

func (s *State) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// SetUsername renames a client in the registry and, when the client is in a
// lobby, in that lobby's roster as well.
func (s *State) SetUsername(id shithead.ClientID, lobbyID *shithead.LobbyID, username string) {
	s.clientsMu.Lock()
	s.clients[id] = username
	s.clientsMu.Unlock()

	if lobbyID != nil {
		if lobby, ok := s.Lobby(*lobbyID); ok {
			lobby.SetUsername(id, username)
		}
	}
}

// CreateLobby allocates a lobby id, builds a waiting lobby owned by the
// caller and registers it.
func (s *State) CreateLobby(name string, owner shithead.ClientID, ownerName string, sink shithead.EventSink) *shithead.Lobby {
	id := shithead.LobbyID(s.nextLobbyID.Add(1) - 1)
	lobby := shithead.NewLobby(id, name, owner, ownerName, sink, s.rules, s, s.logger)

	s.lobbiesMu.Lock()
	s.lobbies[id] = lobby
	s.lobbiesMu.Unlock()

	s.logger.Info("lobby created",
		zap.Int("lobbyId", int(id)),
		zap.String("name", name),
		zap.Int("ownerId", int(owner)),
	)
	return lobby
}

// Lobby resolves a lobby id.
func (s *State) Lobby(id shithead.LobbyID) (*shithead.Lobby, bool) {
	s.lobbiesMu.RLock()
	defer s.lobbiesMu.RUnlock()
	lobby, ok := s.lobbies[id]
	return lobby, ok
}

// JoinLobby adds the client to a lobby, returning the roster as it was
// before the join. The registry read lock is held across the insertion so a
// join can never slip into a lobby that is concurrently being destroyed.
func (s *State) JoinLobby(id shithead.ClientID, lobbyID shithead.LobbyID, username string, sink shithead.EventSink) ([]shithead.PlayerInfo, error) {
	s.lobbiesMu.RLock()
	defer s.lobbiesMu.RUnlock()

	lobby, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, ErrNoSuchLobby
	}
	return lobby.AddPlayer(id, username, sink)
}

// RemovePlayerFromLobby takes the client out of the lobby, dropping the
// lobby from the registry when it empties. Removal holds the registry write
// lock so emptiness and deregistration are observed atomically.
func (s *State) RemovePlayerFromLobby(id shithead.ClientID, lobbyID shithead.LobbyID) {
	s.lobbiesMu.Lock()
	defer s.lobbiesMu.Unlock()

	lobby, ok := s.lobbies[lobbyID]
	if !ok {
		return
	}

	result, newOwner := lobby.RemovePlayer(id)
	switch result {
	case shithead.RemovedLobbyNowEmpty:
		delete(s.lobbies, lobbyID)
		s.logger.Info("lobby destroyed", zap.Int("lobbyId", int(lobbyID)))
	case shithead.RemovedNewOwner:
		s.logger.Info("lobby owner changed",
			zap.Int("lobbyId", int(lobbyID)),
			zap.Int("newOwnerId", int(newOwner)),
		)
	}
}

// StartGame starts the game in the given lobby on behalf of the requester.
func (s *State) StartGame(requester shithead.ClientID, lobbyID shithead.LobbyID) error {
	lobby, ok := s.Lobby(lobbyID)
	if !ok {
		return ErrNoSuchLobby
	}
	return lobby.StartGame(requester)
}

// ClickCard routes a card click to the client's lobby.
func (s *State) ClickCard(id shithead.ClientID, lobbyID shithead.LobbyID, click shithead.ClickedCard) error {
	lobby, ok := s.Lobby(lobbyID)
	if !ok {
		return ErrNoSuchLobby
	}
	return lobby.ClickCard(id, click)
}

// ExposedLobbies returns a snapshot of every lobby's public summary.
func (s *State) ExposedLobbies() []LobbySummary {
	s.lobbiesMu.RLock()
	defer s.lobbiesMu.RUnlock()

	summaries := make([]LobbySummary, 0, len(s.lobbies))
	for id, lobby := range s.lobbies {
		summaries = append(summaries, LobbySummary{
			ID:      id,
			Name:    lobby.Name(),
			OwnerID: lobby.OwnerID(),
			Players: lobby.Players(),
		})
	}
	return summaries
}

// TurnTimeout implements shithead.TimeoutHandler. The timer carried only
// the lobby id; the lobby is re-resolved here, and a lobby destroyed in the
// meantime simply absorbs the event.
func (s *State) TurnTimeout(lobbyID shithead.LobbyID, turnSerial uint64) {
	if lobby, ok := s.Lobby(lobbyID); ok {
		lobby.TurnTimeout(turnSerial)
	}
}

// SelectionTimeout implements shithead.TimeoutHandler.
func (s *State) SelectionTimeout(lobbyID shithead.LobbyID, serial uint64) {
	if lobby, ok := s.Lobby(lobbyID); ok {
		lobby.SelectionTimeout(serial)
	}
}

// StopAll aborts every running game. Used during shutdown.
func (s *State) StopAll() {
	s.lobbiesMu.RLock()
	defer s.lobbiesMu.RUnlock()
	for _, lobby := range s.lobbies {
		lobby.StopGame()
	}
}
