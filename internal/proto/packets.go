// Package proto defines the wire packet envelope and payload shapes
// exchanged with clients and spectators (§6).
package proto

import "encoding/json"

// Kind is a packet type tag. The wire encoding (int ordinal or lower-case
// string) is chosen per-connection at handshake and applied by Codec.
type Kind int

const (
	KindPing Kind = iota
	KindPong
	KindGameNotStarted
	KindGameStarting
	KindGameInProgress
	KindGameStart
	KindGameEnded
	KindLobbyData
	KindGameState
	KindGameEnd
	KindMovement
	KindRotation
	KindAbilityUse
	KindInvalidPacketUsageError
)

var kindNames = map[Kind]string{
	KindPing:                    "ping",
	KindPong:                    "pong",
	KindGameNotStarted:          "gameNotStarted",
	KindGameStarting:            "gameStarting",
	KindGameInProgress:          "gameInProgress",
	KindGameStart:               "gameStart",
	KindGameEnded:               "gameEnded",
	KindLobbyData:               "lobbyData",
	KindGameState:               "gameState",
	KindGameEnd:                 "gameEnd",
	KindMovement:                "movement",
	KindRotation:                "rotation",
	KindAbilityUse:              "abilityUse",
	KindInvalidPacketUsageError: "invalidPacketUsageError",
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind resolves either an integer ordinal or a lower-case string into
// a Kind.
func ParseKind(v any) (Kind, bool) {
	switch t := v.(type) {
	case float64:
		k := Kind(int(t))
		if _, ok := kindNames[k]; ok {
			return k, true
		}
	case string:
		if k, ok := namesToKind[t]; ok {
			return k, true
		}
	}
	return 0, false
}

// EnumFormat selects how Kind and other enumerations are encoded on the
// wire for one connection, fixed at handshake time (§4.D, §6).
type EnumFormat int

const (
	EnumAsInt EnumFormat = iota
	EnumAsString
)

// Envelope is the outer `{ type, payload }` packet shape (§6).
type Envelope struct {
	Type    json.RawMessage `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeKind renders k per format: integer ordinal or lower-case string.
func EncodeKind(k Kind, format EnumFormat) any {
	if format == EnumAsString {
		return k.String()
	}
	return int(k)
}

// LobbyPlayer is one entry of LobbyData.players.
type LobbyPlayer struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Color    uint32 `json:"color"`
}

// LobbySettings mirrors the match configuration a client needs before the
// first GameState arrives.
type LobbySettings struct {
	GridDimension     int   `json:"gridDimension"`
	NumberOfPlayers   int   `json:"numberOfPlayers"`
	Seed              uint64 `json:"seed"`
	BroadcastInterval int64 `json:"broadcastInterval"`
	Ticks             int   `json:"ticks"`
	Sandbox           bool  `json:"sandbox"`
	EagerBroadcast    bool  `json:"eagerBroadcast"`
}

// LobbyData is sent once per connection right after the handshake.
type LobbyData struct {
	PlayerID *string       `json:"playerId,omitempty"`
	Players  []LobbyPlayer `json:"players"`
	Settings LobbySettings `json:"settings"`
}

// ZoneView is a zone's current state as rendered to any recipient.
type ZoneView struct {
	ID       string `json:"id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	W        int    `json:"w"`
	H        int    `json:"h"`
	Status   string `json:"status"`
	Holder   string `json:"holder,omitempty"`
	Attacker string `json:"attacker,omitempty"`
	Progress int    `json:"progress"`
}

// PlayerView is one player's score-facing fields, always visible to every
// recipient (§4.D).
type PlayerView struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Color    uint32 `json:"color"`
	Score    int    `json:"score"`
	Kills    int    `json:"kills"`
	Ping     int64  `json:"ping,omitempty"`
}

// EntityView is a single tile's occupants, tagged by kind so heterogeneous
// collections share one wire shape (§9 design note).
type EntityView struct {
	Kind            string  `json:"kind"`
	ID              int     `json:"id,omitempty"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Direction       string  `json:"direction,omitempty"`
	TurretDirection string  `json:"turretDirection,omitempty"`
	OwnerID         string  `json:"ownerId,omitempty"`

	Health        *int    `json:"health,omitempty"`
	SecondaryItem string  `json:"secondaryItem,omitempty"`
	BulletCount   *int    `json:"bulletCount,omitempty"`

	Damage    *int `json:"damage,omitempty"`
	ShooterID string `json:"shooterId,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}

// MapView bundles the tile grid, zones, and (owner-only) visibility mask.
type MapView struct {
	Tiles      [][][]EntityView `json:"tiles"`
	Zones      []ZoneView       `json:"zones"`
	Visibility [][]bool         `json:"visibility,omitempty"`
}

// GameState is the per-tick broadcast payload (§6). ID is present only for
// player recipients (GameState.ForPlayer); spectators get nil.
type GameState struct {
	Tick    int          `json:"tick"`
	ID      *string      `json:"id,omitempty"`
	Players []PlayerView `json:"players"`
	Map     MapView      `json:"map"`
}

// Movement is the forward/backward action payload.
type Movement struct {
	Direction   string `json:"direction"`
	GameStateID string `json:"gameStateId"`
}

// Rotation is the tank/turret rotation payload; either field may be absent.
type Rotation struct {
	TankRotation   *string `json:"tankRotation,omitempty"`
	TurretRotation *string `json:"turretRotation,omitempty"`
	GameStateID    string  `json:"gameStateId"`
}

// AbilityUse is the weapon/item-use action payload.
type AbilityUse struct {
	AbilityType string `json:"abilityType"`
	GameStateID string `json:"gameStateId"`
}

// GameEndPlayer is one ranked entry of GameEnd.players.
type GameEndPlayer struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Kills    int    `json:"kills"`
}

// GameEnd is sent once, right before every connection is closed.
type GameEnd struct {
	Players []GameEndPlayer `json:"players"`
}

// InvalidPacketUsageError is returned in place of an action for decode or
// semantic errors; the connection stays open (§7).
type InvalidPacketUsageError struct {
	Reason string `json:"reason"`
}
