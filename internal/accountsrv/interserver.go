package accountsrv

import (
	"context"
	"time"

	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"github.com/emberfall/server/internal/serialize"
	"go.uber.org/zap"
)

// serveGameServer runs the inter-server side of one link, starting from
// the REGISTER frame already read.
func (s *Service) serveGameServer(sess *gonet.Session, register *proto.MessageIn) {
	host := register.ReadString()
	port := int(register.ReadInt16())
	password := register.ReadString()
	nMaps := int(register.ReadInt16())
	maps := make(map[int]bool, nMaps)
	for i := 0; i < nMaps; i++ {
		maps[int(register.ReadInt16())] = true
	}
	if register.Bad() || password != s.cfg.Account.InterPassword {
		s.log.Warn("game server registration rejected",
			zap.String("host", host), zap.Uint64("session", sess.ID))
		out := proto.NewMessageOut(proto.AGMsgRegisterResponse)
		out.WriteUint8(proto.ErrFailure)
		sess.Send(out.Bytes())
		sess.Close()
		return
	}

	gs := &GameServer{Session: sess, Host: host, Port: port, Maps: maps}
	s.games.Register(gs)
	defer s.games.Unregister(sess.ID)

	out := proto.NewMessageOut(proto.AGMsgRegisterResponse)
	out.WriteUint8(proto.ErrOK)
	sess.Send(out.Bytes())
	for id := range maps {
		active := proto.NewMessageOut(proto.AGMsgActiveMap)
		active.WriteInt16(int16(id))
		sess.Send(active.Bytes())
	}
	s.log.Info("game server registered",
		zap.String("host", host), zap.Int("port", port), zap.Int("maps", len(maps)))

	for {
		select {
		case data := <-sess.InQueue:
			s.handleGameMessage(gs, proto.NewMessageIn(data))
		case <-sess.Done():
			s.log.Warn("game server link lost", zap.String("host", host))
			return
		}
	}
}

func (s *Service) handleGameMessage(gs *GameServer, msg *proto.MessageIn) {
	switch msg.ID() {
	case proto.GAMsgPlayerData:
		s.handlePlayerData(msg)
	case proto.GAMsgPlayerSync:
		s.handlePlayerSync(msg)
	case proto.GAMsgRedirect:
		s.handleRedirect(gs, msg)
	case proto.GAMsgPlayerReconnect:
		s.handlePlayerReconnect(msg)
	case proto.GAMsgSetQuest:
		s.handleSetQuest(msg)
	case proto.GAMsgGetQuest:
		s.handleGetQuest(gs, msg)
	case proto.GAMsgBanPlayer:
		s.handleBanPlayer(msg)
	case proto.GAMsgTransaction:
		s.handleTransaction(msg)
	default:
		s.log.Warn("unknown game server message", zap.Uint16("id", msg.ID()))
	}
}

// handlePlayerData stores a full record flush.
func (s *Service) handlePlayerData(msg *proto.MessageIn) {
	charID := int(msg.ReadInt32())
	record, err := serialize.Read(msg)
	if err != nil {
		s.log.Error("malformed PLAYER_DATA", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := s.Characters.Update(ctx, charID, record.Blob(), nil); err != nil {
		s.log.Error("character flush failed",
			zap.Int("character", charID), zap.Error(err))
	}
}

// handlePlayerSync applies a buffer of incremental sync records.
func (s *Service) handlePlayerSync(msg *proto.MessageIn) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	for {
		tag := msg.ReadUint8()
		if msg.Bad() || tag == proto.SyncEndOfBuffer {
			return
		}
		switch tag {
		case proto.SyncCharacterPoints:
			charID := int(msg.ReadInt32())
			charPoints := int(msg.ReadInt32())
			corrPoints := int(msg.ReadInt32())
			s.patchRecord(ctx, charID, func(r *serialize.CharacterData) {
				r.CharacterPoints = int16(charPoints)
				r.CorrectionPoints = int16(corrPoints)
			})
		case proto.SyncCharacterAttribute:
			charID := int(msg.ReadInt32())
			attrID := int(msg.ReadInt32())
			base := msg.ReadFloat64()
			mod := msg.ReadFloat64()
			s.patchRecord(ctx, charID, func(r *serialize.CharacterData) {
				r.Attributes[int16(attrID)] = serialize.AttributeValue{Base: base, Modified: mod}
			})
		case proto.SyncCharacterSkill:
			charID := int(msg.ReadInt32())
			skillID := int(msg.ReadUint8())
			value := int(msg.ReadInt32())
			s.patchRecord(ctx, charID, func(r *serialize.CharacterData) {
				r.Skills[int16(skillID)] = int32(value)
			})
		case proto.SyncOnlineStatus:
			charID := int(msg.ReadInt32())
			online := msg.ReadUint8() == 1
			if err := s.Characters.SetOnlineStatus(ctx, charID, online); err != nil {
				s.log.Error("set online failed", zap.Error(err))
			}
			if !online {
				// Logged out: any outstanding handoff is void.
				s.tokens.Release(charID)
			}
		default:
			s.log.Error("unknown sync tag; dropping rest of buffer",
				zap.Uint8("tag", tag))
			return
		}
	}
}

// patchRecord loads, mutates and stores one character record.
func (s *Service) patchRecord(ctx context.Context, charID int, mutate func(*serialize.CharacterData)) {
	row, err := s.Characters.GetByID(ctx, charID)
	if err != nil || row == nil {
		s.log.Error("sync for unknown character", zap.Int("character", charID), zap.Error(err))
		return
	}
	record, err := serialize.FromBlob(row.Blob)
	if err != nil {
		s.log.Error("corrupt record during sync", zap.Int("character", charID), zap.Error(err))
		return
	}
	mutate(record)
	if err := s.Characters.Update(ctx, charID, record.Blob(), nil); err != nil {
		s.log.Error("record patch failed", zap.Int("character", charID), zap.Error(err))
	}
}

// handleRedirect runs the account side of a cross-shard migration: mint a
// migration token, stream the record to the target shard, and answer the
// source shard with the client's next address.
func (s *Service) handleRedirect(source *GameServer, msg *proto.MessageIn) {
	charID := int(msg.ReadInt32())
	if msg.Bad() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	row, err := s.Characters.GetByID(ctx, charID)
	if err != nil || row == nil {
		s.log.Error("redirect for unknown character", zap.Int("character", charID))
		return
	}
	record, err := serialize.FromBlob(row.Blob)
	if err != nil {
		s.log.Error("corrupt record on redirect", zap.Int("character", charID))
		return
	}

	target := s.games.ByMap(int(record.MapID))
	if target == nil {
		s.log.Error("no shard hosts redirect target",
			zap.Int("character", charID), zap.Int16("map", record.MapID))
		return
	}

	token, ok := s.tokens.Issue(charID, row.AccountID, true)
	if !ok {
		s.log.Warn("redirect while already in flight", zap.Int("character", charID))
		return
	}

	enter := proto.NewMessageOut(proto.AGMsgPlayerEnter)
	enter.WriteBytes(token)
	enter.WriteInt32(int32(charID))
	enter.WriteString(row.Name)
	record.Write(enter)
	target.Session.Send(enter.Bytes())

	out := proto.NewMessageOut(proto.AGMsgRedirectResponse)
	out.WriteInt32(int32(charID))
	out.WriteBytes(token)
	out.WriteString(target.Host)
	out.WriteInt16(int16(target.Port))
	source.Session.Send(out.Bytes())

	s.log.Info("redirect issued",
		zap.Int("character", charID),
		zap.String("target", target.Host),
	)
}

// handlePlayerReconnect confirms a token reached its shard; the exclusive
// lock releases.
func (s *Service) handlePlayerReconnect(msg *proto.MessageIn) {
	charID := int(msg.ReadInt32())
	token := msg.ReadBytes(proto.TokenLength)
	if msg.Bad() {
		return
	}
	gotChar, _, ok := s.tokens.Redeem(token)
	if !ok || gotChar != charID {
		s.log.Warn("reconnect with invalid token", zap.Int("character", charID))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := s.Characters.SetOnlineStatus(ctx, charID, true); err != nil {
		s.log.Warn("set online failed", zap.Error(err))
	}
}

func (s *Service) handleSetQuest(msg *proto.MessageIn) {
	charID := int(msg.ReadInt32())
	name := msg.ReadString()
	value := msg.ReadString()
	if msg.Bad() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := s.World.SetQuestVar(ctx, charID, name, value); err != nil {
		s.log.Error("set quest var failed", zap.Error(err))
	}
}

func (s *Service) handleGetQuest(gs *GameServer, msg *proto.MessageIn) {
	charID := int(msg.ReadInt32())
	name := msg.ReadString()
	if msg.Bad() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	value, err := s.World.GetQuestVar(ctx, charID, name)
	if err != nil {
		s.log.Error("get quest var failed", zap.Error(err))
		return
	}
	out := proto.NewMessageOut(proto.AGMsgGetQuestResponse)
	out.WriteInt32(int32(charID))
	out.WriteString(name)
	out.WriteString(value)
	gs.Session.Send(out.Bytes())
}

func (s *Service) handleBanPlayer(msg *proto.MessageIn) {
	charID := int(msg.ReadInt32())
	minutes := int(msg.ReadInt16())
	if msg.Bad() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	row, err := s.Characters.GetByID(ctx, charID)
	if err != nil || row == nil {
		return
	}
	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := s.Accounts.Ban(ctx, row.AccountID, until); err != nil {
		s.log.Error("ban failed", zap.Int("account", row.AccountID), zap.Error(err))
	}
}

func (s *Service) handleTransaction(msg *proto.MessageIn) {
	charID := int(msg.ReadInt32())
	action := int(msg.ReadInt32())
	text := msg.ReadString()
	if msg.Bad() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := s.Transactions.Add(ctx, charID, action, text); err != nil {
		s.log.Error("transaction insert failed", zap.Error(err))
	}
}
