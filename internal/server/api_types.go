package server

import "shithead-server/internal/shithead"

// ============================================================================
// ERROR RESPONSES
// ============================================================================

type ErrorMessage struct {
	Message string `json:"message"`
}

// ============================================================================
// HANDSHAKE (welcome)
// ============================================================================

// WelcomePayload is sent once to every new connection before anything else.
type WelcomePayload struct {
	ClientID shithead.ClientID `json:"clientId"`
	Username string            `json:"username"`
}

// ============================================================================
// SET USERNAME (set_username)
// ============================================================================

type SetUsernameRequest struct {
	Username string `json:"username"`
}

type UsernameSetResponse struct {
	Username string `json:"username"`
}

// ============================================================================
// LOBBY DISCOVERY (get_lobbies)
// ============================================================================

// LobbySummary is the publicly visible information about one lobby.
type LobbySummary struct {
	ID      shithead.LobbyID      `json:"id"`
	Name    string                `json:"name"`
	OwnerID shithead.ClientID     `json:"ownerId"`
	Players []shithead.PlayerInfo `json:"players"`
}

type LobbiesPayload struct {
	Lobbies []LobbySummary `json:"lobbies"`
}

// ============================================================================
// CREATE / JOIN LOBBY (create_lobby, join_lobby)
// ============================================================================

type CreateLobbyRequest struct {
	LobbyName string `json:"lobbyName"`
}

type JoinLobbyRequest struct {
	LobbyID shithead.LobbyID `json:"lobbyId"`
}

// JoinLobbyResponse confirms lobby membership. Players lists the members
// that were already in the lobby before the caller joined.
type JoinLobbyResponse struct {
	LobbyID shithead.LobbyID      `json:"lobbyId"`
	Players []shithead.PlayerInfo `json:"players"`
}

// ============================================================================
// CLICK CARD (click_card)
// ============================================================================

// ClickCardRequest carries a card click. Location is one of "trash", "hand",
// "three_up" or "three_down"; cardIndex applies to the pile locations.
type ClickCardRequest struct {
	Location  string `json:"location"`
	CardIndex int    `json:"cardIndex"`
}
