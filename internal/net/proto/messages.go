package proto

// Message ids. Ranges: 0x0000–0x00FF account↔client, 0x0100–0x03FF
// game↔client, 0x0400–0x04FF chat↔client, 0x0500–0x05FF inter-server.
const (
	// Account ↔ client.
	PAMsgRegister           uint16 = 0x0000
	APMsgRegisterResponse   uint16 = 0x0002
	PAMsgUnregister         uint16 = 0x0003
	APMsgUnregisterResponse uint16 = 0x0004
	PAMsgLogin              uint16 = 0x0010
	APMsgLoginResponse      uint16 = 0x0012
	PAMsgLogout             uint16 = 0x0013
	APMsgLogoutResponse     uint16 = 0x0014
	PAMsgCharCreate         uint16 = 0x0020
	APMsgCharCreateResponse uint16 = 0x0021
	PAMsgCharDelete         uint16 = 0x0022
	APMsgCharDeleteResponse uint16 = 0x0023
	APMsgCharInfo           uint16 = 0x0024
	PAMsgCharSelect         uint16 = 0x0026
	APMsgCharSelectResponse uint16 = 0x0027

	// Game ↔ client connection handshake.
	PGMsgConnect            uint16 = 0x0050
	GPMsgConnectResponse    uint16 = 0x0051
	PGMsgDisconnect         uint16 = 0x0060
	GPMsgDisconnectResponse uint16 = 0x0061

	// Game ↔ client play.
	GPMsgPlayerMapChange        uint16 = 0x0100
	GPMsgPlayerServerChange     uint16 = 0x0101
	PGMsgPickup                 uint16 = 0x0110
	PGMsgDrop                   uint16 = 0x0111
	PGMsgEquip                  uint16 = 0x0112
	PGMsgUnequip                uint16 = 0x0113
	GPMsgInventory              uint16 = 0x0120
	GPMsgPlayerAttributeChange  uint16 = 0x0130
	GPMsgPlayerExpChange        uint16 = 0x0140
	PGMsgRespawn                uint16 = 0x0180
	GPMsgBeingEnter             uint16 = 0x0200
	GPMsgBeingLeave             uint16 = 0x0201
	GPMsgItemAppear             uint16 = 0x0202
	GPMsgBeingLooksChange       uint16 = 0x0210
	PGMsgWalk                   uint16 = 0x0260
	PGMsgActionChange           uint16 = 0x0270
	GPMsgBeingActionChange      uint16 = 0x0271
	PGMsgDirectionChange        uint16 = 0x0272
	GPMsgBeingDirChange         uint16 = 0x0273
	GPMsgBeingHealthChange      uint16 = 0x0274
	GPMsgBeingsMove             uint16 = 0x0280
	GPMsgItems                  uint16 = 0x0281
	PGMsgAttack                 uint16 = 0x0290
	GPMsgBeingAttack            uint16 = 0x0291
	PGMsgUseAbilityOnBeing      uint16 = 0x0292
	GPMsgAbilityStatus          uint16 = 0x0293
	PGMsgUseAbilityOnPoint      uint16 = 0x0294
	PGMsgSay                    uint16 = 0x02A0
	GPMsgSay                    uint16 = 0x02A1
	GPMsgNPCChoice              uint16 = 0x02B0
	GPMsgNPCMessage             uint16 = 0x02B1
	PGMsgNPCTalk                uint16 = 0x02B2
	PGMsgNPCTalkNext            uint16 = 0x02B3
	PGMsgNPCSelect              uint16 = 0x02B4
	PGMsgNPCNumber              uint16 = 0x02D3
	PGMsgNPCString              uint16 = 0x02D4
	GPMsgNPCNumber              uint16 = 0x02D5
	GPMsgNPCString              uint16 = 0x02D6
	GPMsgNPCClose               uint16 = 0x02B9
	GPMsgBeingsDamage           uint16 = 0x0310

	// Game ↔ account server.
	GAMsgRegister            uint16 = 0x0500
	AGMsgRegisterResponse    uint16 = 0x0501
	AGMsgActiveMap           uint16 = 0x0502
	AGMsgPlayerEnter         uint16 = 0x0510
	GAMsgPlayerData          uint16 = 0x0520
	GAMsgRedirect            uint16 = 0x0530
	AGMsgRedirectResponse    uint16 = 0x0531
	GAMsgPlayerReconnect     uint16 = 0x0532
	GAMsgPlayerSync          uint16 = 0x0533
	GAMsgSetQuest            uint16 = 0x0540
	GAMsgGetQuest            uint16 = 0x0541
	AGMsgGetQuestResponse    uint16 = 0x0542
	GAMsgBanPlayer           uint16 = 0x0550
	GAMsgTransaction         uint16 = 0x0600

	MsgInvalid uint16 = 0x7FFF
)

// Generic error codes.
const (
	ErrOK uint8 = iota
	ErrFailure
	ErrNoLogin
	ErrNoCharacterSelected
	ErrInsufficientRights
	ErrInvalidArgument
	ErrEmailAlreadyExists
	ErrAlreadyTaken
	ErrServerFull
	ErrTimeOut
	ErrLimitReached
	ErrAdministrativeLogoff
)

// Login-specific error codes, from 0x40 up.
const (
	LoginInvalidVersion uint8 = 0x40 + iota
	LoginInvalidTime
	LoginBanned
)

// Registration-specific error codes.
const (
	RegisterInvalidVersion uint8 = 0x40 + iota
	RegisterExistsUsername
	RegisterExistsEmail
	RegisterCaptchaWrong
)

// Character-creation-specific error codes.
const (
	CreateInvalidHairstyle uint8 = 0x40 + iota
	CreateInvalidHaircolor
	CreateInvalidGender
	CreateAttributesTooHigh
	CreateAttributesTooLow
	CreateAttributesOutOfRange
	CreateExistsName
	CreateTooMuchCharacters
	CreateInvalidSlot
)

// Sync buffer record tags for GAMsgPlayerSync.
const (
	SyncCharacterPoints    uint8 = 0x01
	SyncCharacterAttribute uint8 = 0x02
	SyncCharacterSkill     uint8 = 0x03
	SyncOnlineStatus       uint8 = 0x04
	SyncEndOfBuffer        uint8 = 0xFF
)

// TokenLength is the size of the handoff credential.
const TokenLength = 32

// ProtocolVersion is checked on login and register.
const ProtocolVersion = 1
