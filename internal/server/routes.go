package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shithead-server/internal/shithead"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.indexHandler)

	mux.HandleFunc("/health", s.healthHandler)

	mux.HandleFunc("/websocket", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(map[string]string{"service": "shithead-server"})
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		s.logger.Warn("failed to write index response", zap.Error(err))
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(map[string]any{
		"status":      "ok",
		"connections": s.connectionManager.Count(),
		"clients":     s.state.ClientCount(),
	})
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		s.logger.Warn("failed to write health response", zap.Error(err))
	}
}

// session is the per-connection state of one client task. It is touched
// only by that connection's handler goroutine.
type session struct {
	server   *Server
	conn     *connection
	clientID shithead.ClientID
	username string

	// lobbyID is set while the client is a member of a lobby
	lobbyID *shithead.LobbyID
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()

	connectionID := uuid.New().String()
	clientID := s.state.NextClientID()
	username := fmt.Sprintf("player-%d", clientID)
	s.state.AddClient(clientID, username)

	conn := newConnection(connectionID, clientID, socket, s.cfg.OutboundBufferSize, s.logger)
	s.connectionManager.Add(conn)
	go conn.writeLoop(ctx)

	s.logger.Info("client connected",
		zap.String("connectionId", connectionID),
		zap.Int("clientId", int(clientID)),
	)

	sess := &session{
		server:   s,
		conn:     conn,
		clientID: clientID,
		username: username,
	}

	// Cleanup must run in this order even when the read loop exits on an
	// error: lobby membership is revoked before the global client record,
	// so no observer ever sees a lobby containing an unregistered client.
	defer func() {
		if sess.lobbyID != nil {
			s.state.RemovePlayerFromLobby(clientID, *sess.lobbyID)
		}
		s.state.RemoveClient(clientID)
		s.connectionManager.Remove(connectionID)
		s.rateLimiter.RemoveConnection(connectionID)
		conn.close()
		s.logger.Info("client disconnected", zap.Int("clientId", int(clientID)))
	}()

	// handshake: the client learns its id and assigned username
	conn.enqueue(ServerMessage{Type: "welcome", Payload: WelcomePayload{
		ClientID: clientID,
		Username: username,
	}})

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			s.logger.Debug("connection read ended", zap.String("connectionId", connectionID), zap.Error(err))
			return
		}

		if msgType != websocket.MessageText {
			s.logger.Warn("non-text frame from client", zap.String("connectionId", connectionID))
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// malformed input terminates only the offending connection
			sess.sendError("Invalid JSON")
			return
		}

		if !s.rateLimiter.Allow(connectionID) {
			sess.sendError("RATE_LIMITED: Too many messages, slow down")
			continue
		}

		switch msg.Type {
		case "ping":
			conn.enqueue(ServerMessage{Type: "pong", Payload: struct{}{}})

		case "set_username":
			sess.handleSetUsername(msg.Payload)

		case "get_lobbies":
			sess.handleGetLobbies()

		case "create_lobby":
			sess.handleCreateLobby(msg.Payload)

		case "join_lobby":
			sess.handleJoinLobby(msg.Payload)

		case "leave_lobby":
			sess.handleLeaveLobby()

		case "start_game":
			sess.handleStartGame()

		case "click_card":
			sess.handleClickCard(msg.Payload)

		default:
			sess.sendError(fmt.Sprintf("Unknown message type: %s", msg.Type))
		}
	}
}

func (sess *session) sendError(message string) {
	sess.conn.enqueue(ServerMessage{Type: "error", Payload: ErrorMessage{Message: message}})
}

func (sess *session) handleSetUsername(payload json.RawMessage) {
	var req SetUsernameRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.sendError("Invalid set_username payload")
		return
	}
	if err := ValidateUsername(req.Username); err != nil {
		sess.sendError(err.Error())
		return
	}

	sess.server.state.SetUsername(sess.clientID, sess.lobbyID, req.Username)
	sess.username = req.Username

	sess.conn.enqueue(ServerMessage{Type: "username_set", Payload: UsernameSetResponse{
		Username: req.Username,
	}})
}

func (sess *session) handleGetLobbies() {
	sess.conn.enqueue(ServerMessage{Type: "lobbies", Payload: LobbiesPayload{
		Lobbies: sess.server.state.ExposedLobbies(),
	}})
}

func (sess *session) handleCreateLobby(payload json.RawMessage) {
	var req CreateLobbyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.sendError("Invalid create_lobby payload")
		return
	}
	if sess.lobbyID != nil {
		sess.sendError("ALREADY_IN_LOBBY: Leave your current lobby first")
		return
	}

	lobby := sess.server.state.CreateLobby(req.LobbyName, sess.clientID, sess.username, sess.conn)
	id := lobby.ID()
	sess.lobbyID = &id

	// the creator is the sole member, so the confirmation lists nobody else
	sess.conn.enqueue(ServerMessage{Type: "join_lobby", Payload: JoinLobbyResponse{
		LobbyID: id,
		Players: []shithead.PlayerInfo{},
	}})
}

func (sess *session) handleJoinLobby(payload json.RawMessage) {
	var req JoinLobbyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.sendError("Invalid join_lobby payload")
		return
	}
	if sess.lobbyID != nil {
		sess.sendError("ALREADY_IN_LOBBY: Leave your current lobby first")
		return
	}

	players, err := sess.server.state.JoinLobby(sess.clientID, req.LobbyID, sess.username, sess.conn)
	if err != nil {
		sess.sendError(err.Error())
		return
	}

	id := req.LobbyID
	sess.lobbyID = &id

	sess.conn.enqueue(ServerMessage{Type: "join_lobby", Payload: JoinLobbyResponse{
		LobbyID: id,
		Players: players,
	}})
}

func (sess *session) handleLeaveLobby() {
	if sess.lobbyID == nil {
		sess.sendError("NOT_IN_LOBBY: You are not in a lobby")
		return
	}

	sess.server.state.RemovePlayerFromLobby(sess.clientID, *sess.lobbyID)
	sess.lobbyID = nil

	sess.conn.enqueue(ServerMessage{Type: "left_lobby", Payload: struct{}{}})
}

func (sess *session) handleStartGame() {
	if sess.lobbyID == nil {
		sess.sendError("NOT_IN_LOBBY: You are not in a lobby")
		return
	}

	if err := sess.server.state.StartGame(sess.clientID, *sess.lobbyID); err != nil {
		sess.sendError(err.Error())
		return
	}
	// success is announced by the lobby's game_started broadcast
}

func (sess *session) handleClickCard(payload json.RawMessage) {
	var req ClickCardRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.sendError("Invalid click_card payload")
		return
	}
	if sess.lobbyID == nil {
		sess.sendError("NOT_IN_LOBBY: You are not in a lobby")
		return
	}

	location, ok := parseCardLocation(req.Location)
	if !ok {
		sess.sendError(fmt.Sprintf("Unknown card location: %s", req.Location))
		return
	}

	click := shithead.ClickedCard{Location: location, CardIndex: req.CardIndex}
	if err := sess.server.state.ClickCard(sess.clientID, *sess.lobbyID, click); err != nil {
		sess.sendError(err.Error())
		return
	}
	// effects are announced through lobby broadcasts
}

func parseCardLocation(location string) (shithead.CardLocation, bool) {
	switch location {
	case "trash":
		return shithead.LocationTrash, true
	case "hand":
		return shithead.LocationHand, true
	case "three_up":
		return shithead.LocationThreeUp, true
	case "three_down":
		return shithead.LocationThreeDown, true
	default:
		return 0, false
	}
}
