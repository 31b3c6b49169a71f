package accountsrv

import (
	"context"
	"time"

	"github.com/emberfall/server/internal/attribute"
	"github.com/emberfall/server/internal/geom"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"github.com/emberfall/server/internal/persist"
	"github.com/emberfall/server/internal/serialize"
	"go.uber.org/zap"
)

// Character creation bounds.
const (
	maxHairStyle      = 19
	maxHairColor      = 11
	maxCharacterSlots = 3
	// Starting attribute points, spread over the six base attributes.
	createAttributes  = 6
	createPointsTotal = 60
	createPointMin    = 1
	createPointMax    = 20
)

// baseAttributeIDs maps the creation form's positions onto attribute ids.
var baseAttributeIDs = [createAttributes]int{
	attribute.Strength,
	attribute.Agility,
	attribute.Dexterity,
	attribute.Vitality,
	attribute.Intelligence,
	attribute.Willpower,
}

// timeNow is a seam for ban-deadline tests.
var timeNow = time.Now

// clientConn is the per-connection state of one player client.
type clientConn struct {
	svc  *Service
	sess *gonet.Session

	account    *persist.AccountRow
	characters []*persist.CharacterRow
}

func (c *clientConn) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func (c *clientConn) reply(id uint16, errCode uint8) {
	msg := proto.NewMessageOut(id)
	msg.WriteUint8(errCode)
	c.sess.Send(msg.Bytes())
}

func (c *clientConn) handle(msg *proto.MessageIn) {
	switch msg.ID() {
	case proto.PAMsgRegister:
		c.handleRegister(msg)
	case proto.PAMsgLogin:
		c.handleLogin(msg)
	case proto.PAMsgLogout:
		c.reply(proto.APMsgLogoutResponse, proto.ErrOK)
		c.onDisconnect()
		c.sess.Close()
	case proto.PAMsgCharCreate:
		c.handleCharCreate(msg)
	case proto.PAMsgCharDelete:
		c.handleCharDelete(msg)
	case proto.PAMsgCharSelect:
		c.handleCharSelect(msg)
	default:
		c.svc.log.Debug("unknown client message",
			zap.Uint16("id", msg.ID()), zap.Uint64("session", c.sess.ID))
	}
}

func (c *clientConn) handleRegister(msg *proto.MessageIn) {
	version := msg.ReadInt32()
	username := NormalizeName(msg.ReadString())
	password := msg.ReadString()
	email := msg.ReadString()
	msg.ReadString() // captcha response; validation is an external concern
	if msg.Bad() {
		c.reply(proto.APMsgRegisterResponse, proto.ErrInvalidArgument)
		return
	}
	if version < proto.ProtocolVersion {
		c.reply(proto.APMsgRegisterResponse, proto.RegisterInvalidVersion)
		return
	}
	if !ValidName(username) || password == "" || email == "" {
		c.reply(proto.APMsgRegisterResponse, proto.ErrInvalidArgument)
		return
	}

	ctx, cancel := c.ctx()
	defer cancel()

	if exists, err := c.svc.Accounts.UserExists(ctx, username); err != nil {
		c.svc.log.Error("user exists check failed", zap.Error(err))
		c.reply(proto.APMsgRegisterResponse, proto.ErrFailure)
		return
	} else if exists {
		c.reply(proto.APMsgRegisterResponse, proto.RegisterExistsUsername)
		return
	}
	if exists, err := c.svc.Accounts.EmailExists(ctx, email); err != nil {
		c.svc.log.Error("email exists check failed", zap.Error(err))
		c.reply(proto.APMsgRegisterResponse, proto.ErrFailure)
		return
	} else if exists {
		c.reply(proto.APMsgRegisterResponse, proto.RegisterExistsEmail)
		return
	}

	id, err := c.svc.Accounts.Add(ctx, username, password, email)
	if err != nil {
		c.svc.log.Error("account insert failed", zap.Error(err))
		c.reply(proto.APMsgRegisterResponse, proto.ErrFailure)
		return
	}
	c.svc.log.Info("account registered",
		zap.String("username", username), zap.Int("account", id))

	out := proto.NewMessageOut(proto.APMsgRegisterResponse)
	out.WriteUint8(proto.ErrOK)
	out.WriteString("") // update host
	out.WriteString("") // client data url
	out.WriteUint8(maxCharacterSlots)
	c.sess.Send(out.Bytes())
}

func (c *clientConn) handleLogin(msg *proto.MessageIn) {
	version := msg.ReadInt32()
	username := NormalizeName(msg.ReadString())
	password := msg.ReadString()
	if msg.Bad() {
		c.reply(proto.APMsgLoginResponse, proto.ErrInvalidArgument)
		return
	}
	if version < proto.ProtocolVersion {
		c.reply(proto.APMsgLoginResponse, proto.LoginInvalidVersion)
		return
	}

	ctx, cancel := c.ctx()
	defer cancel()

	account, err := c.svc.Accounts.GetByName(ctx, username)
	if err != nil {
		c.svc.log.Error("account lookup failed", zap.Error(err))
		c.reply(proto.APMsgLoginResponse, proto.ErrFailure)
		return
	}
	// One code for a bad user or a bad password; the reply must not say
	// which field failed.
	if account == nil || !c.svc.Accounts.ValidatePassword(account.PasswordHash, password) {
		c.reply(proto.APMsgLoginResponse, proto.ErrFailure)
		return
	}
	if account.Banned(timeNow()) {
		c.reply(proto.APMsgLoginResponse, proto.LoginBanned)
		return
	}

	if err := c.svc.Accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		c.svc.log.Warn("update last login failed", zap.Error(err))
	}
	chars, err := c.svc.Characters.ListByAccount(ctx, account.ID)
	if err != nil {
		c.svc.log.Error("character list failed", zap.Error(err))
		c.reply(proto.APMsgLoginResponse, proto.ErrFailure)
		return
	}
	c.account = account
	c.characters = chars
	c.sess.AccountID = account.ID

	out := proto.NewMessageOut(proto.APMsgLoginResponse)
	out.WriteUint8(proto.ErrOK)
	out.WriteString("")
	out.WriteString("")
	out.WriteUint8(maxCharacterSlots)
	c.sess.Send(out.Bytes())

	for _, ch := range chars {
		c.sendCharInfo(ch)
	}
}

func (c *clientConn) sendCharInfo(ch *persist.CharacterRow) {
	record, err := serialize.FromBlob(ch.Blob)
	if err != nil {
		c.svc.log.Error("corrupt character record",
			zap.Int("character", ch.ID), zap.Error(err))
		return
	}
	out := proto.NewMessageOut(proto.APMsgCharInfo)
	out.WriteUint8(uint8(ch.Slot))
	out.WriteString(ch.Name)
	out.WriteInt8(record.Gender)
	out.WriteInt8(record.HairStyle)
	out.WriteInt8(record.HairColor)
	out.WriteInt16(record.Level)
	out.WriteInt16(record.CharacterPoints)
	out.WriteInt16(record.CorrectionPoints)
	out.WriteInt16(int16(len(record.Attributes)))
	for id, av := range record.Attributes {
		out.WriteInt16(id)
		out.WriteFloat64(av.Base)
		out.WriteFloat64(av.Modified)
	}
	c.sess.Send(out.Bytes())
}

func (c *clientConn) handleCharCreate(msg *proto.MessageIn) {
	name := NormalizeName(msg.ReadString())
	hairStyle := int(msg.ReadUint8())
	hairColor := int(msg.ReadUint8())
	gender := int(msg.ReadUint8())
	slot := int(msg.ReadUint8())
	var points [createAttributes]int
	for i := range points {
		points[i] = int(msg.ReadInt16())
	}
	if msg.Bad() {
		c.reply(proto.APMsgCharCreateResponse, proto.ErrInvalidArgument)
		return
	}
	if c.account == nil {
		c.reply(proto.APMsgCharCreateResponse, proto.ErrNoLogin)
		return
	}

	switch {
	case hairStyle > maxHairStyle:
		c.reply(proto.APMsgCharCreateResponse, proto.CreateInvalidHairstyle)
		return
	case hairColor > maxHairColor:
		c.reply(proto.APMsgCharCreateResponse, proto.CreateInvalidHaircolor)
		return
	case gender != 0 && gender != 1:
		c.reply(proto.APMsgCharCreateResponse, proto.CreateInvalidGender)
		return
	case slot < 0 || slot >= maxCharacterSlots:
		c.reply(proto.APMsgCharCreateResponse, proto.CreateInvalidSlot)
		return
	case !ValidName(name):
		c.reply(proto.APMsgCharCreateResponse, proto.ErrInvalidArgument)
		return
	}

	total := 0
	for _, p := range points {
		if p < createPointMin || p > createPointMax {
			c.reply(proto.APMsgCharCreateResponse, proto.CreateAttributesOutOfRange)
			return
		}
		total += p
	}
	if total > createPointsTotal {
		c.reply(proto.APMsgCharCreateResponse, proto.CreateAttributesTooHigh)
		return
	}
	if total < createPointsTotal {
		c.reply(proto.APMsgCharCreateResponse, proto.CreateAttributesTooLow)
		return
	}

	ctx, cancel := c.ctx()
	defer cancel()

	for _, existing := range c.characters {
		if existing.Slot == slot {
			c.reply(proto.APMsgCharCreateResponse, proto.CreateInvalidSlot)
			return
		}
	}
	if len(c.characters) >= maxCharacterSlots {
		c.reply(proto.APMsgCharCreateResponse, proto.CreateTooMuchCharacters)
		return
	}
	if exists, err := c.svc.Characters.NameExists(ctx, name); err != nil {
		c.reply(proto.APMsgCharCreateResponse, proto.ErrFailure)
		return
	} else if exists {
		c.reply(proto.APMsgCharCreateResponse, proto.CreateExistsName)
		return
	}

	record := newCharacterRecord(gender, hairStyle, hairColor, points,
		c.svc.cfg.Game.DefaultMap,
		geom.Point{X: c.svc.cfg.Game.DefaultSpawnX, Y: c.svc.cfg.Game.DefaultSpawnY})

	id, err := c.svc.Characters.Add(ctx, c.account.ID, slot, name, record.Blob())
	if err != nil {
		c.svc.log.Error("character insert failed", zap.Error(err))
		c.reply(proto.APMsgCharCreateResponse, proto.ErrFailure)
		return
	}
	row := &persist.CharacterRow{
		ID: id, AccountID: c.account.ID, Slot: slot, Name: name, Blob: record.Blob(),
	}
	c.characters = append(c.characters, row)
	c.reply(proto.APMsgCharCreateResponse, proto.ErrOK)
	c.sendCharInfo(row)
}

// newCharacterRecord builds the starting record for a fresh character.
func newCharacterRecord(gender, hairStyle, hairColor int, points [createAttributes]int, mapID int, spawn geom.Point) *serialize.CharacterData {
	record := serialize.NewCharacterData()
	record.Gender = int8(gender)
	record.HairStyle = int8(hairStyle)
	record.HairColor = int8(hairColor)
	record.Level = 1
	record.MapID = int16(mapID)
	record.X = int16(spawn.X)
	record.Y = int16(spawn.Y)

	for i, p := range points {
		record.Attributes[int16(baseAttributeIDs[i])] = serialize.AttributeValue{
			Base: float64(p), Modified: float64(p),
		}
	}
	vitality := float64(points[3])
	maxHP := 20 + 4*vitality
	record.Attributes[attribute.MaxHP] = serialize.AttributeValue{Base: maxHP, Modified: maxHP}
	record.Attributes[attribute.HP] = serialize.AttributeValue{Base: maxHP, Modified: maxHP}
	record.Attributes[attribute.HPRegen] = serialize.AttributeValue{Base: vitality / 10, Modified: vitality / 10}
	return record
}

func (c *clientConn) handleCharDelete(msg *proto.MessageIn) {
	slot := int(msg.ReadUint8())
	if msg.Bad() || c.account == nil {
		c.reply(proto.APMsgCharDeleteResponse, proto.ErrNoLogin)
		return
	}
	for i, ch := range c.characters {
		if ch.Slot != slot {
			continue
		}
		if c.svc.tokens.InFlight(ch.ID) {
			c.reply(proto.APMsgCharDeleteResponse, proto.ErrFailure)
			return
		}
		ctx, cancel := c.ctx()
		err := c.svc.Characters.Delete(ctx, ch.ID)
		cancel()
		if err != nil {
			c.svc.log.Error("character delete failed", zap.Error(err))
			c.reply(proto.APMsgCharDeleteResponse, proto.ErrFailure)
			return
		}
		c.characters = append(c.characters[:i], c.characters[i+1:]...)
		c.reply(proto.APMsgCharDeleteResponse, proto.ErrOK)
		return
	}
	c.reply(proto.APMsgCharDeleteResponse, proto.ErrInvalidArgument)
}

func (c *clientConn) handleCharSelect(msg *proto.MessageIn) {
	slot := int(msg.ReadUint8())
	if msg.Bad() {
		c.reply(proto.APMsgCharSelectResponse, proto.ErrInvalidArgument)
		return
	}
	if c.account == nil {
		c.reply(proto.APMsgCharSelectResponse, proto.ErrNoLogin)
		return
	}

	var row *persist.CharacterRow
	for _, ch := range c.characters {
		if ch.Slot == slot {
			row = ch
		}
	}
	if row == nil {
		c.reply(proto.APMsgCharSelectResponse, proto.ErrInvalidArgument)
		return
	}
	record, err := serialize.FromBlob(row.Blob)
	if err != nil {
		c.svc.log.Error("corrupt character record",
			zap.Int("character", row.ID), zap.Error(err))
		c.reply(proto.APMsgCharSelectResponse, proto.ErrFailure)
		return
	}

	gs := c.svc.games.ByMap(int(record.MapID))
	if gs == nil {
		c.reply(proto.APMsgCharSelectResponse, proto.ErrServerFull)
		return
	}

	// The exclusive lock: a character already in flight cannot log in again.
	token, ok := c.svc.tokens.Issue(row.ID, c.account.ID, false)
	if !ok {
		c.reply(proto.APMsgCharSelectResponse, proto.ErrFailure)
		return
	}

	// Stream the record to the shard ahead of the client.
	enter := proto.NewMessageOut(proto.AGMsgPlayerEnter)
	enter.WriteBytes(token)
	enter.WriteInt32(int32(row.ID))
	enter.WriteString(row.Name)
	record.Write(enter)
	gs.Session.Send(enter.Bytes())

	ctx, cancel := c.ctx()
	if err := c.svc.Characters.SetOnlineStatus(ctx, row.ID, true); err != nil {
		c.svc.log.Warn("set online failed", zap.Error(err))
	}
	cancel()

	out := proto.NewMessageOut(proto.APMsgCharSelectResponse)
	out.WriteUint8(proto.ErrOK)
	out.WriteBytes(token)
	out.WriteString(gs.Host)
	out.WriteInt16(int16(gs.Port))
	out.WriteString(c.svc.cfg.Chat.Host)
	out.WriteInt16(int16(c.svc.cfg.Chat.Port))
	c.sess.Send(out.Bytes())

	c.svc.log.Info("character selected",
		zap.String("name", row.Name),
		zap.Int("character", row.ID),
		zap.String("shard", gs.Host),
	)
}

func (c *clientConn) onDisconnect() {
	c.account = nil
	c.characters = nil
}
