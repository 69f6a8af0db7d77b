package sim

import (
	"go.uber.org/zap"

	netpkg "github.com/originrealm/worldserver/internal/net"
	"github.com/originrealm/worldserver/internal/repo"
)

// LogoutReason mirrors state.rs::LogoutReason: which of the two
// compensating policies below applies to a dropped body depends on why
// it's being dropped.
type LogoutReason int

const (
	LogoutUnknown LogoutReason = iota
	LogoutExit // quit via the client's exit shortcut
	LogoutIdleTooLong
	LogoutShutdown
)

// dishonorableExitHPFraction and dishonorableExitDeathFloor come from
// state.rs::logout_player's `hp[5] * 800` and `a_hp < 500` constants,
// carried over unchanged. AHP is in milli-units, so HP.Total*800 is 80%
// of max HP and 500 is half a hit point.
const (
	dishonorableExitHPFraction = 800
	dishonorableExitDeathFloor = 500
)

// DropCharacter force-closes sess and marks its bound character
// non-active (spec.md §4.6, §6.3: a body persists until expiry, it isn't
// deleted). Order follows state.rs::logout_player: a usurping session
// clears the usurped body's elevated flags and recursively drops the
// original player's body first, then the normal drop/punishment/
// lag-scroll steps below run for the outer session's own body.
func (s *Sim) DropCharacter(sess *netpkg.Session, reason LogoutReason) {
	var x, y int32
	dropped := false

	s.Repo.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		id := repo.CharID(sess.CharID)
		valid := id > 0 && int(id) < repo.MaxChars && chars[id].Used == repo.UseActive
		if valid && chars[id].Flags&repo.CfUsurp != 0 {
			chars[id].Flags &^= repo.ElevatedFlags
			origID := repo.CharID(sess.OriginalCharID)
			if origID > 0 && int(origID) < repo.MaxChars && chars[origID].Used == repo.UseActive {
				chars[origID].Used = repo.UseNonActive
				chars[origID].Flags &^= repo.ElevatedFlags
			}
		}
		if !valid {
			return
		}

		isPunishablePlayer := chars[id].Flags&repo.CfPlayer != 0 && chars[id].Flags&repo.CfComputerControlledPlayer == 0
		if reason == LogoutExit && isPunishablePlayer && s.Cfg != nil && s.Cfg.Gameplay.DishonorableExitPunishment {
			s.punishDishonorableExit(&chars[id])
		}

		chars[id].Used = repo.UseNonActive
		chars[id].Flags &^= repo.ElevatedFlags
		x, y, dropped = chars[id].X, chars[id].Y, true
	})
	sess.Close()

	if dropped && s.shouldDropLagScroll(reason) {
		s.dropLagScroll(x, y)
	}
}

// DropAllSessions drops every live session with LogoutShutdown, used by
// cmd/worldserver's graceful-shutdown sequence so a departing server
// leaves lag scrolls behind exactly like an idle timeout would, instead
// of silently dropping connections out from under players.
func (s *Sim) DropAllSessions() {
	s.Sessions.Range(func(sess *netpkg.Session) {
		s.DropCharacter(sess, LogoutShutdown)
	})
}

// punishDishonorableExit implements state.rs::logout_player's F12 branch:
// losing the game via the client's exit shortcut instead of logging out
// at a tavern costs 80% of max HP, and — if HP survives the hit — a
// demon snatches whatever non-empty item is in the cursor slot. The
// original also confiscates 10% of carried gold; this spec's repo.Character
// has no currency field to confiscate (see DESIGN.md), so that half of the
// punishment is dropped.
func (s *Sim) punishDishonorableExit(ch *repo.Character) {
	s.Log.Warn("character punished for dishonorable exit", zap.Int32("char", int32(ch.ID)))

	ch.AHP -= ch.HP.Total * dishonorableExitHPFraction
	if ch.AHP < dishonorableExitDeathFloor {
		ch.AHP = 0
		return
	}
	if ch.CItem != 0 {
		_ = s.Repo.FreeItem(ch.CItem)
		ch.CItem = 0
	}
}

// shouldDropLagScroll reports whether reason is one of the
// connection-loss reasons state.rs::logout_player leaves a lag scroll
// for, gated on config so a deployment can disable the compensation
// entirely.
func (s *Sim) shouldDropLagScroll(reason LogoutReason) bool {
	if s.Cfg == nil || !s.Cfg.Gameplay.LagScrollOnLogout {
		return false
	}
	return reason == LogoutIdleTooLong || reason == LogoutShutdown || reason == LogoutUnknown
}

// dropLagScroll instantiates a lag-scroll item and places it on the
// ground at (x, y), skipping tavern tiles and tiles flagged "no lag
// scroll" (state.rs::in_no_lag_scroll_area / is_close_to_temple — this
// spec has no per-character temple binding, see internal/sim/actions.go,
// so the tavern tile itself stands in for "close to a temple").
func (s *Sim) dropLagScroll(x, y int32) {
	if s.ItemTable == nil {
		return
	}
	idx := repo.Index(x, y)
	if idx < 0 {
		return
	}
	skip := false
	s.Repo.Map(func(tiles []repo.Tile) {
		skip = tiles[idx].Flags&(repo.MfTavern|repo.MfNoLag) != 0
	})
	if skip {
		return
	}
	tmpl := s.ItemTable.Get(s.Cfg.Gameplay.LagScrollTemplateID)
	if tmpl == nil {
		return
	}
	id, err := s.Repo.AllocItem()
	if err != nil {
		s.Log.Debug("lag scroll drop skipped, item arena full")
		return
	}
	s.Repo.ItemsMut(func(items *[repo.MaxItems]repo.Item) {
		items[id].TemplateID = tmpl.TemplateID
		items[id].GfxInactive, items[id].GfxActive = tmpl.GfxID, tmpl.GfxID
		items[id].AgeInactiveMax = tmpl.AgeInactiveMax
	})
	if err := s.Repo.DropItem(id, x, y); err != nil {
		s.Log.Debug("lag scroll drop failed", zap.Error(err))
		_ = s.Repo.FreeItem(id)
	}
}
