package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/originrealm/worldserver/internal/repo"
)

// Reply sends one line of text back to the staff session that issued a
// command.
type Reply func(msg string)

// HandleCommand dispatches a "."-prefixed staff command against a bound
// character, recording any economic effect to the ledger. Dispatch shape
// (strip the prefix, split on whitespace, switch on the lowercased verb)
// is grounded on the teacher's internal/handler/gmcommand.go; the
// command set itself is cut down to what this spec's Character model
// actually has fields for (no level/class/clan system here).
func HandleCommand(ctx context.Context, ch *repo.Character, ledger *Ledger, accountID int32, text string, reply Reply) bool {
	if !strings.HasPrefix(text, ".") {
		return false
	}
	parts := strings.Fields(text[1:])
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		gmHelp(reply)
	case "hp":
		gmHP(ch, args, reply)
	case "mp":
		gmMP(ch, args, reply)
	case "heal":
		gmHeal(ch, reply)
	case "stat":
		gmStat(ch, args, reply)
	case "goto":
		gmGoto(ch, args, reply)
	case "grant":
		gmGrant(ctx, ch, ledger, accountID, args, reply)
	default:
		reply(fmt.Sprintf("unknown command: .%s (try .help)", cmd))
	}
	return true
}

func gmHelp(reply Reply) {
	reply(".hp <n>            - set current HP")
	reply(".mp <n>            - set current mana")
	reply(".heal              - restore HP/mana to max")
	reply(".stat <attr> <n>   - set a base attribute (str/dex/con/wis/int/cha)")
	reply(".goto <x> <y>      - teleport to coordinates")
	reply(".grant <amount> [reason] - record a ledger gold grant")
}

func gmHP(ch *repo.Character, args []string, reply Reply) {
	n, ok := parseInt32(args, 0)
	if !ok {
		reply("usage: .hp <n>")
		return
	}
	if n > ch.HP.Total {
		n = ch.HP.Total
	}
	ch.AHP = n * 1000
	reply(fmt.Sprintf("hp set to %d", n))
}

func gmMP(ch *repo.Character, args []string, reply Reply) {
	n, ok := parseInt32(args, 0)
	if !ok {
		reply("usage: .mp <n>")
		return
	}
	if n > ch.Mana.Total {
		n = ch.Mana.Total
	}
	ch.AMana = n * 1000
	reply(fmt.Sprintf("mana set to %d", n))
}

func gmHeal(ch *repo.Character, reply Reply) {
	ch.AHP = ch.HP.Total * 1000
	ch.AMana = ch.Mana.Total * 1000
	ch.AEnd = ch.Endurance.Total * 1000
	reply("healed to full")
}

func gmStat(ch *repo.Character, args []string, reply Reply) {
	if len(args) < 2 {
		reply("usage: .stat <str|dex|con|wis|int|cha> <n>")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		reply("bad value: " + args[1])
		return
	}
	var tuple *repo.SixTuple
	switch strings.ToLower(args[0]) {
	case "str":
		tuple = &ch.Str
	case "dex":
		tuple = &ch.Dex
	case "con":
		tuple = &ch.Con
	case "wis":
		tuple = &ch.Wis
	case "int":
		tuple = &ch.Intl
	case "cha":
		tuple = &ch.Cha
	default:
		reply("unknown attribute: " + args[0])
		return
	}
	tuple.Base = int32(n)
	tuple.Recompute()
	reply(fmt.Sprintf("%s set to %d", args[0], tuple.Total))
}

func gmGoto(ch *repo.Character, args []string, reply Reply) {
	x, okX := parseInt32(args, 0)
	y, okY := parseInt32(args, 1)
	if !okX || !okY {
		reply("usage: .goto <x> <y>")
		return
	}
	ch.X, ch.Y, ch.ToX, ch.ToY = x, y, x, y
	reply(fmt.Sprintf("teleported to (%d, %d)", x, y))
}

func gmGrant(ctx context.Context, ch *repo.Character, ledger *Ledger, accountID int32, args []string, reply Reply) {
	amount, ok := parseInt32(args, 0)
	if !ok {
		reply("usage: .grant <amount> [reason]")
		return
	}
	reason := "gm_grant"
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}
	id, err := ledger.Record(ctx, Entry{
		AccountID:   accountID,
		CharacterID: int32(ch.ID),
		Kind:        KindGMGrant,
		Amount:      int64(amount),
		Reason:      reason,
	})
	if err != nil {
		reply("grant failed: ledger write error")
		return
	}
	reply(fmt.Sprintf("granted %d (ledger entry #%d)", amount, id))
}

func parseInt32(args []string, idx int) (int32, bool) {
	if idx >= len(args) {
		return 0, false
	}
	n, err := strconv.Atoi(args[idx])
	if err != nil {
		return 0, false
	}
	return int32(n), true
}
