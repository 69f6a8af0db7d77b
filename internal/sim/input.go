package sim

import (
	"time"

	"go.uber.org/zap"

	netpkg "github.com/originrealm/worldserver/internal/net"
	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/tick"
	"github.com/originrealm/worldserver/internal/wire/packet"
)

// InputSystem drains each session's queued client frames, drives the
// login state machine, and enforces the idle timeout (spec.md §4.8 step
// 2, §4.10, §6.1).
type InputSystem struct {
	sim         *Sim
	challenged  map[string]bool
}

func NewInputSystem(s *Sim) *InputSystem {
	return &InputSystem{sim: s, challenged: make(map[string]bool)}
}

func (in *InputSystem) Phase() tick.Phase { return tick.PhaseInput }

func (in *InputSystem) Update(dt time.Duration) {
	maxPerTick := in.sim.Cfg.Network.MaxPacketsPerTick
	idleLimit := in.sim.Cfg.Network.IdleTimeoutTicks

	in.sim.Sessions.Range(func(sess *netpkg.Session) {
		if sess.IsClosed() {
			in.sim.Sessions.Remove(sess.ID.String())
			return
		}

		if sess.State() == netpkg.StateHandshake && !in.challenged[sess.ID.String()] {
			sess.Send(packet.NewWriter(packet.SvChallenge).Bytes())
			in.challenged[sess.ID.String()] = true
		}

		in.pollLogin(sess)

		processed := 0
		for processed < maxPerTick {
			select {
			case frame := <-sess.InQueue:
				state := int32(sess.State())
				if err := in.sim.Registry.Dispatch(sess, state, frame); err != nil {
					in.sim.Log.Debug("dispatch error", zap.Error(err))
				}
				processed++
			default:
				processed = maxPerTick // break the for loop, nothing left queued
			}
		}
		if processed > 0 {
			sess.IdleTicks = 0
		} else {
			sess.IdleTicks++
		}

		if sess.State() == netpkg.StateNormal {
			if idleLimit > 0 && sess.IdleTicks > idleLimit {
				in.sim.Log.Info("idle timeout, closing session", zap.String("session", sess.ID.String()))
				in.logout(sess)
				return
			}
			sess.Send(packet.NewWriter(packet.SvTick).Bytes())
		}
	})
}

// pollLogin checks for an async ticket-validation result and, on
// success, binds the session to its character (allocating a fresh
// arena slot on first login, loading the persisted one on return).
func (in *InputSystem) pollLogin(sess *netpkg.Session) {
	if !sess.LoginPending {
		return
	}
	select {
	case res := <-sess.LoginCh:
		sess.LoginPending = false
		if res.Err != nil {
			in.sim.Log.Info("login rejected", zap.String("session", sess.ID.String()), zap.Error(res.Err))
			sess.Send(packet.NewWriter(packet.SvExit).Bytes())
			sess.Close()
			return
		}
		id, err := in.bindCharacter(res.Character)
		if err != nil {
			in.sim.Log.Error("bind character failed", zap.Int32("character", res.Character), zap.Error(err))
			sess.Close()
			return
		}
		sess.CharID = int32(id)
		sess.SetState(netpkg.StateNormal)
		sess.Send(packet.NewWriter(packet.SvLoginOK).Bytes())
	default:
	}
}

// bindCharacter loads a character's file if one exists, or allocates a
// fresh slot seeded from the account-service's character id (spec.md
// §6.3's "on first login there is no file yet").
func (in *InputSystem) bindCharacter(charID int32) (repo.CharID, error) {
	if ch, err := in.sim.CharStore.Load(repo.CharID(charID)); err == nil {
		id, err := in.sim.Repo.AllocCharacter()
		if err != nil {
			return 0, err
		}
		x, y := ch.X, ch.Y
		in.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
			chars[id] = *ch
			chars[id].ID = id
			chars[id].Used = repo.UseActive
			chars[id].Flags |= repo.CfPlayer
		})
		_ = in.sim.Repo.PlaceCharacter(id, x, y)
		return id, nil
	}
	id, err := in.sim.Repo.AllocCharacter()
	if err != nil {
		return 0, err
	}
	in.sim.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Flags |= repo.CfPlayer
		chars[id].Str.Base, chars[id].Str.Max = 10, 100
		chars[id].Dex.Base, chars[id].Dex.Max = 10, 100
		chars[id].Con.Base, chars[id].Con.Max = 10, 100
		chars[id].Wis.Base, chars[id].Wis.Max = 10, 100
		chars[id].Intl.Base, chars[id].Intl.Max = 10, 100
		chars[id].Cha.Base, chars[id].Cha.Max = 10, 100
		for _, t := range []*repo.SixTuple{&chars[id].Str, &chars[id].Dex, &chars[id].Con, &chars[id].Wis, &chars[id].Intl, &chars[id].Cha} {
			t.Recompute()
		}
		chars[id].HP.Base, chars[id].HP.Max = 500, 500
		chars[id].Mana.Base, chars[id].Mana.Max = 200, 200
		chars[id].Endurance.Base, chars[id].Endurance.Max = 100, 100
		chars[id].HP.Recompute()
		chars[id].Mana.Recompute()
		chars[id].Endurance.Recompute()
		chars[id].AHP = chars[id].HP.Total * 1000
		chars[id].AMana = chars[id].Mana.Total * 1000
		chars[id].AEnd = chars[id].Endurance.Total * 1000
	})
	_ = in.sim.Repo.PlaceCharacter(id, 512, 512)
	return id, nil
}

// logout drops a session that timed out waiting for input. See
// Sim.DropCharacter for the body-drop/usurp-recursion/punishment order.
func (in *InputSystem) logout(sess *netpkg.Session) {
	in.sim.DropCharacter(sess, LogoutIdleTooLong)
}
