package request

// CreateGuestRequest is the request body for creating a guest user
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	Name string `json:"name"`
}

// JoinGameRequest is the request body for joining a game
type JoinGameRequest struct {
	Player    bool   `json:"player"`
	Spectator bool   `json:"spectator"`
	Special   bool   `json:"special"`
	Team      string `json:"team,omitempty"`
}
