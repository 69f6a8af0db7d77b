package event

import "github.com/originrealm/worldserver/internal/repo"

// NPC message-bus event types (spec.md §4.7, Glossary). Drivers fold
// these into their per-NPC scratch state (internal/driver) the tick after
// they're emitted.

// Seen is NT_SEE: another character entered or remained within sight.
type Seen struct {
	Observer repo.CharID
	Target   repo.CharID
	Friend   bool
}

// GotHit is NT_GOTHIT: the character took damage from an attacker.
type GotHit struct {
	Target   repo.CharID
	Attacker repo.CharID
	Damage   int32
}

// GotMissed is NT_GOTMISS: an attack against the character missed.
type GotMissed struct {
	Target   repo.CharID
	Attacker repo.CharID
}

// GotExperience is NT_GOTEXP: the character gained experience, typically
// from a kill.
type GotExperience struct {
	Target repo.CharID
	Amount int32
}
