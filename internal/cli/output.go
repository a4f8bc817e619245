package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Game:
		o.printGame(v)
	case GameList:
		o.printGameList(v)
	case LiveGameList:
		o.printLiveGameList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// Role response type
type Role struct {
	Player    bool   `json:"player"`
	Spectator bool   `json:"spectator"`
	Special   bool   `json:"special"`
	Team      string `json:"team,omitempty"`
}

// Game response type
type Game struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Stage     string          `json:"stage"`
	Roles     map[string]Role `json:"roles,omitempty"`
	Factories map[string]int  `json:"factories,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GameList response type
type GameList struct {
	Games []Game `json:"games"`
}

// LiveGame response type
type LiveGame struct {
	ID    string `json:"id"`
	Stage string `json:"stage"`
	Users int    `json:"users"`
}

// LiveGameList response type
type LiveGameList struct {
	Games []LiveGame `json:"games"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u User) {
	guestStr := "no"
	if u.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("User: %s (%s)\n", u.DisplayName, u.ID)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game: %s (%s)\n", g.Name, g.ID)
	fmt.Printf("Stage: %s\n", g.Stage)

	if len(g.Factories) > 0 {
		teams := make([]string, 0, len(g.Factories))
		for team := range g.Factories {
			teams = append(teams, team)
		}
		sort.Strings(teams)
		fmt.Println("Factories:")
		for _, team := range teams {
			fmt.Printf("  %s: %d\n", team, g.Factories[team])
		}
	}

	if len(g.Roles) > 0 {
		ids := make([]string, 0, len(g.Roles))
		for id := range g.Roles {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Printf("Members (%d):\n", len(g.Roles))
		for _, id := range ids {
			fmt.Printf("  - %s - %s\n", id, describeRole(g.Roles[id]))
		}
	}
}

func describeRole(r Role) string {
	switch {
	case r.Player && r.Special:
		return fmt.Sprintf("player/%s [special]", r.Team)
	case r.Player:
		return fmt.Sprintf("player/%s", r.Team)
	case r.Special:
		return "special"
	case r.Spectator:
		return "spectator"
	default:
		return "none"
	}
}

func (o *Output) printGameList(l GameList) {
	if len(l.Games) == 0 {
		fmt.Println("No games")
		return
	}
	for _, g := range l.Games {
		fmt.Printf("%s  %s  %s  (%d members)\n", g.ID, g.Stage, g.Name, len(g.Roles))
	}
}

func (o *Output) printLiveGameList(l LiveGameList) {
	if len(l.Games) == 0 {
		fmt.Println("No live games")
		return
	}
	for _, g := range l.Games {
		fmt.Printf("%s  %s  (%d connected)\n", g.ID, g.Stage, g.Users)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
