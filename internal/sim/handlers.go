package sim

import (
	"context"

	"go.uber.org/zap"

	netpkg "github.com/originrealm/worldserver/internal/net"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/wire/packet"
)

// RegisterHandlers binds the tick loop's client-opcode handlers onto a
// Registry (spec.md §4.2, §4.8 "process pending 16-byte commands").
// Most handlers only write into a bound character's Intent fields, with
// resolution left to PhaseResolve; ClTurn sets the character's facing
// directly, ClExit drops the character, and ClAPILogin starts ticket
// validation.
func RegisterHandlers(s *Sim) {
	normal := []int32{int32(netpkg.StateNormal)}
	login := []int32{int32(netpkg.StateHandshake), int32(netpkg.StateInit)}

	s.Registry.Register(packet.ClAPILogin, login, func(raw any, r *packet.Reader) {
		sess := raw.(*netpkg.Session)
		p := packet.DecodeAPILogin(r)
		s.beginLogin(sess, p.Ticket)
	})

	s.Registry.Register(packet.ClMove, normal, func(raw any, r *packet.Reader) {
		sess := raw.(*netpkg.Session)
		p := packet.DecodeMove(r)
		s.withSessionChar(sess, func(ch *repo.Character) {
			ch.Intent.GotoX, ch.Intent.GotoY = p.X, p.Y
		})
	})

	s.Registry.Register(packet.ClAttack, normal, func(raw any, r *packet.Reader) {
		sess := raw.(*netpkg.Session)
		p := packet.DecodeAttack(r)
		s.withSessionChar(sess, func(ch *repo.Character) {
			ch.Intent.AttackCn = repo.CharID(p.TargetID)
		})
	})

	s.Registry.Register(packet.ClTurn, normal, func(raw any, r *packet.Reader) {
		sess := raw.(*netpkg.Session)
		p := packet.DecodeTurn(r)
		s.withSessionChar(sess, func(ch *repo.Character) {
			ch.Dir = p.Dir
		})
	})

	s.Registry.Register(packet.ClUse, normal, func(raw any, r *packet.Reader) {
		sess := raw.(*netpkg.Session)
		p := packet.DecodeUse(r)
		s.withSessionChar(sess, func(ch *repo.Character) {
			ch.Intent.UseNr = int32(p.Slot)
			ch.Intent.MiscTarget1 = repo.CharID(p.Target)
		})
	})

	s.Registry.Register(packet.ClCTick, normal, func(raw any, r *packet.Reader) {
		packet.DecodeCTick(r) // echoed only for client-side smoothing; nothing to store server-side
	})

	s.Registry.Register(packet.ClExit, normal, func(raw any, r *packet.Reader) {
		sess := raw.(*netpkg.Session)
		s.DropCharacter(sess, LogoutExit)
	})
}

// withSessionChar runs fn against the character bound to sess, a no-op if
// none is bound yet (spec.md §7: a command before login completes is
// simply dropped, not an error).
func (s *Sim) withSessionChar(sess *netpkg.Session, fn func(ch *repo.Character)) {
	if sess.CharID == 0 {
		return
	}
	s.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		id := repo.CharID(sess.CharID)
		if int(id) >= repo.MaxChars || chars[id].Used == repo.UseEmpty {
			return
		}
		fn(&chars[id])
	})
}

// beginLogin kicks off asynchronous ticket validation (spec.md §6.1 step
// 3, §6.2). The HTTP round trip runs off the tick loop's goroutine; the
// result is picked up by InputSystem on a later tick via sess.LoginCh.
func (s *Sim) beginLogin(sess *netpkg.Session, ticket uint64) {
	if sess.LoginPending {
		return
	}
	sess.Ticket = ticket
	sess.LoginPending = true
	sess.SetState(netpkg.StateInit)
	go func() {
		t, err := s.Accounts.ValidateTicket(context.Background(), ticket)
		if err != nil {
			sess.LoginCh <- netpkg.LoginResult{Err: err}
			return
		}
		sess.LoginCh <- netpkg.LoginResult{Account: t.Account, Character: t.Character}
	}()
	s.Log.Debug("login ticket submitted for validation", zap.String("session", sess.ID.String()))
}
