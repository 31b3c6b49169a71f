// Package gamesrv holds the game service's side of the inter-server
// protocol: the persistent link to the account service and the table of
// players handed off to this shard.
package gamesrv

import (
	"fmt"
	"net"
	"time"

	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"github.com/emberfall/server/internal/serialize"
	"go.uber.org/zap"
)

// PendingPlayer is a character the account service announced with
// PLAYER_ENTER, waiting for its client to redeem the token.
type PendingPlayer struct {
	Token       string // 32 raw bytes as map key
	CharacterID int
	Name        string
	Data        *serialize.CharacterData
	Deadline    time.Time
}

// AccountLink is the TCP connection to the account service. Outgoing sends
// may come from the simulation thread only; inbound frames are drained by
// the input system through In.
type AccountLink struct {
	conn net.Conn
	In   chan []byte
	out  chan []byte

	// Pending players by token. Simulation-thread access only.
	Pending map[string]*PendingPlayer

	// RedirectWaiters maps character id to the session that triggered a
	// cross-shard warp, so the redirect response can reach the client.
	RedirectWaiters map[int]uint64

	log *zap.Logger
}

// Dial connects and registers this game server with the account service.
func Dial(addr, advertiseHost string, advertisePort int, password string, mapIDs []int, log *zap.Logger) (*AccountLink, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial account service %s: %w", addr, err)
	}

	l := &AccountLink{
		conn:            conn,
		In:              make(chan []byte, 256),
		out:             make(chan []byte, 256),
		Pending:         make(map[string]*PendingPlayer),
		RedirectWaiters: make(map[int]uint64),
		log:             log.With(zap.String("link", "account")),
	}
	go l.readLoop()
	go l.writeLoop()

	msg := proto.NewMessageOut(proto.GAMsgRegister)
	msg.WriteString(advertiseHost)
	msg.WriteInt16(int16(advertisePort))
	msg.WriteString(password)
	msg.WriteInt16(int16(len(mapIDs)))
	for _, id := range mapIDs {
		msg.WriteInt16(int16(id))
	}
	l.send(msg)
	return l, nil
}

// NewLoopback builds a link with no connection behind it; sends are
// discarded. Tests and single-process setups use it.
func NewLoopback(log *zap.Logger) *AccountLink {
	l := &AccountLink{
		In:              make(chan []byte, 256),
		out:             make(chan []byte, 256),
		Pending:         make(map[string]*PendingPlayer),
		RedirectWaiters: make(map[int]uint64),
		log:             log,
	}
	go func() {
		for range l.out {
		}
	}()
	return l
}

func (l *AccountLink) Close() {
	if l.conn != nil {
		l.conn.Close()
	}
}

func (l *AccountLink) send(msg *proto.MessageOut) {
	select {
	case l.out <- msg.Bytes():
	default:
		l.log.Error("account link send queue full, dropping frame")
	}
}

func (l *AccountLink) readLoop() {
	for {
		payload, err := gonet.ReadFrame(l.conn)
		if err != nil {
			l.log.Error("account link read failed", zap.Error(err))
			close(l.In)
			return
		}
		l.In <- payload
	}
}

func (l *AccountLink) writeLoop() {
	for data := range l.out {
		l.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := gonet.WriteFrame(l.conn, data); err != nil {
			l.log.Error("account link write failed", zap.Error(err))
			return
		}
	}
}

// FlushPlayer sends the full character record to the account service.
func (l *AccountLink) FlushPlayer(characterID int, data *serialize.CharacterData) {
	msg := proto.NewMessageOut(proto.GAMsgPlayerData)
	msg.WriteInt32(int32(characterID))
	data.Write(msg)
	l.send(msg)
}

// SyncOnlineStatus reports a character going on- or offline through the
// incremental sync buffer.
func (l *AccountLink) SyncOnlineStatus(characterID int, online bool) {
	msg := proto.NewMessageOut(proto.GAMsgPlayerSync)
	msg.WriteUint8(proto.SyncOnlineStatus)
	msg.WriteInt32(int32(characterID))
	if online {
		msg.WriteUint8(1)
	} else {
		msg.WriteUint8(0)
	}
	msg.WriteUint8(proto.SyncEndOfBuffer)
	l.send(msg)
}

// SyncPoints reports character/correction point changes.
func (l *AccountLink) SyncPoints(characterID, charPoints, corrPoints int) {
	msg := proto.NewMessageOut(proto.GAMsgPlayerSync)
	msg.WriteUint8(proto.SyncCharacterPoints)
	msg.WriteInt32(int32(characterID))
	msg.WriteInt32(int32(charPoints))
	msg.WriteInt32(int32(corrPoints))
	msg.WriteUint8(proto.SyncEndOfBuffer)
	l.send(msg)
}

// SyncAttribute reports one attribute change.
func (l *AccountLink) SyncAttribute(characterID, attrID int, base, mod float64) {
	msg := proto.NewMessageOut(proto.GAMsgPlayerSync)
	msg.WriteUint8(proto.SyncCharacterAttribute)
	msg.WriteInt32(int32(characterID))
	msg.WriteInt32(int32(attrID))
	msg.WriteFloat64(base)
	msg.WriteFloat64(mod)
	msg.WriteUint8(proto.SyncEndOfBuffer)
	l.send(msg)
}

// Redirect asks the account service to hand the character to the shard
// hosting its (already flushed) current map.
func (l *AccountLink) Redirect(characterID int, sessionID uint64) {
	l.RedirectWaiters[characterID] = sessionID
	msg := proto.NewMessageOut(proto.GAMsgRedirect)
	msg.WriteInt32(int32(characterID))
	l.send(msg)
}

// PlayerReconnect confirms a migrated client arrived with its token.
func (l *AccountLink) PlayerReconnect(characterID int, token []byte) {
	msg := proto.NewMessageOut(proto.GAMsgPlayerReconnect)
	msg.WriteInt32(int32(characterID))
	msg.WriteBytes(token)
	l.send(msg)
}

// SetQuestVar pushes a quest variable to the canonical store.
func (l *AccountLink) SetQuestVar(characterID int, name, value string) {
	msg := proto.NewMessageOut(proto.GAMsgSetQuest)
	msg.WriteInt32(int32(characterID))
	msg.WriteString(name)
	msg.WriteString(value)
	l.send(msg)
}

// GetQuestVar requests a quest variable; the response arrives as
// AGMsgGetQuestResponse.
func (l *AccountLink) GetQuestVar(characterID int, name string) {
	msg := proto.NewMessageOut(proto.GAMsgGetQuest)
	msg.WriteInt32(int32(characterID))
	msg.WriteString(name)
	l.send(msg)
}

// Transaction records an audit-log entry.
func (l *AccountLink) Transaction(characterID, action int, message string) {
	msg := proto.NewMessageOut(proto.GAMsgTransaction)
	msg.WriteInt32(int32(characterID))
	msg.WriteInt32(int32(action))
	msg.WriteString(message)
	l.send(msg)
}

// BanPlayer asks the account service to ban a character's account.
func (l *AccountLink) BanPlayer(characterID int, duration time.Duration) {
	msg := proto.NewMessageOut(proto.GAMsgBanPlayer)
	msg.WriteInt32(int32(characterID))
	msg.WriteInt16(int16(duration / time.Minute))
	l.send(msg)
}

// AddPending stores a handed-off player until its client shows up.
func (l *AccountLink) AddPending(p *PendingPlayer) {
	l.Pending[p.Token] = p
}

// TakePending redeems a token exactly once.
func (l *AccountLink) TakePending(token string) (*PendingPlayer, bool) {
	p, ok := l.Pending[token]
	if !ok {
		return nil, false
	}
	delete(l.Pending, token)
	if time.Now().After(p.Deadline) {
		return nil, false
	}
	return p, true
}

// ExpirePending drops pending players whose deadline passed and reports
// them logged out.
func (l *AccountLink) ExpirePending(now time.Time) {
	for token, p := range l.Pending {
		if now.After(p.Deadline) {
			delete(l.Pending, token)
			l.SyncOnlineStatus(p.CharacterID, false)
		}
	}
}
