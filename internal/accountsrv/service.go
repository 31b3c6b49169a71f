package accountsrv

import (
	"context"
	"time"

	"github.com/emberfall/server/internal/config"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"github.com/emberfall/server/internal/persist"
	"go.uber.org/zap"
)

// dbTimeout bounds one storage operation from a connection goroutine.
const dbTimeout = 5 * time.Second

// Service is the account/persistence tier: it authenticates clients, owns
// character records, mints handoff tokens, and serves the inter-server
// link. Unlike the game service it is not tick-driven; each connection is
// handled by its own goroutine over shared, individually locked state.
type Service struct {
	cfg *config.Config
	log *zap.Logger

	Accounts     *persist.AccountRepo
	Characters   *persist.CharacterRepo
	World        *persist.WorldRepo
	Posts        *persist.PostRepo
	Transactions *persist.TransactionRepo
	FloorItems   *persist.FloorItemRepo
	Guilds       *persist.GuildRepo

	tokens *TokenStore
	games  *GameServerRegistry
}

func NewService(cfg *config.Config, db *persist.DB, log *zap.Logger) *Service {
	s := &Service{
		cfg:          cfg,
		log:          log,
		Accounts:     persist.NewAccountRepo(db),
		Characters:   persist.NewCharacterRepo(db),
		World:        persist.NewWorldRepo(db),
		Posts:        persist.NewPostRepo(db, cfg.Mail.MaxLetters, cfg.Mail.MaxAttachments),
		Transactions: persist.NewTransactionRepo(db),
		FloorItems:   persist.NewFloorItemRepo(db),
		Guilds:       persist.NewGuildRepo(db),
		games:        NewGameServerRegistry(),
	}
	s.tokens = NewTokenStore(cfg.Account.TokenTTL.Duration, s.onTokenExpired)
	return s
}

// onTokenExpired reverts an unredeemed handoff: the character is marked
// logged out. For migrations the stored record is the one game service A
// flushed before the redirect, so state reverts to it implicitly.
func (s *Service) onTokenExpired(characterID int, migrating bool) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := s.Characters.SetOnlineStatus(ctx, characterID, false); err != nil {
		s.log.Error("mark offline after token expiry failed",
			zap.Int("character", characterID), zap.Error(err))
	}
	s.log.Info("handoff token expired",
		zap.Int("character", characterID), zap.Bool("migrating", migrating))
}

// Run drives the accept loop and the token sweeper until ctx ends.
func (s *Service) Run(ctx context.Context, server *gonet.Server) error {
	go server.AcceptLoop()

	sweep := time.NewTicker(time.Second)
	defer sweep.Stop()

	for {
		select {
		case sess := <-server.NewSessions():
			go s.handleSession(sess)
		case <-server.DeadSessions():
			// Per-session goroutines notice EOF themselves; the channel
			// only needs draining.
		case <-sweep.C:
			s.tokens.ExpireStale()
		case <-ctx.Done():
			server.Shutdown()
			return ctx.Err()
		}
	}
}

// handleSession serves one connection. The first frame decides whether the
// peer is a game server (inter-server register) or a player client.
func (s *Service) handleSession(sess *gonet.Session) {
	defer sess.Close()

	client := &clientConn{svc: s, sess: sess}
	for {
		select {
		case data := <-sess.InQueue:
			msg := proto.NewMessageIn(data)
			if msg.ID() == proto.GAMsgRegister {
				s.serveGameServer(sess, msg)
				return
			}
			client.handle(msg)
		case <-sess.Done():
			client.onDisconnect()
			return
		}
	}
}
