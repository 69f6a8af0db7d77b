// Package repo implements the process-wide Repository: single-writer typed
// arenas for characters, items, map tiles, and effects (spec.md §4.1).
// Arenas are fixed-capacity slices allocated at startup; there is no
// per-entity locking. All cross-entity invariants (§3.2) are enforced by
// the mutator functions in this package, never by callers reaching into
// the arrays directly.
package repo

// Capacity constants (spec.md §2, §4.1). These are process-wide fixed
// arena sizes, not configuration — resizing requires a restart.
const (
	MaxChars = 4096
	MaxItems = 65536
	MapW     = 1024
	MapH     = 1024
	MaxFx    = 4096

	// LightDist is the Chebyshev/circular propagation radius for light
	// sources (spec.md §4.3, "LIGHTDIST").
	LightDist = 10
)

// UseState is the lifecycle state of an arena slot (spec.md §3.3).
type UseState uint8

const (
	UseEmpty UseState = iota
	UseActive
	UseNonActive // player logged out; body persisted, slot retained until expiry/reuse
)

// CharID identifies a character slot; 0 means "no character". Valid ids
// are 1..MaxChars-1 (index 0 of the arena is an unused sentinel).
type CharID int32

// ItemID identifies an item slot; 0 means "no item" (spec.md §3.1, "item id
// (0 = empty)").
type ItemID int32

// SixTuple is the [base, preset, max, difficulty, dynamic, total] attribute
// layout shared by stats, HP/endurance/mana, and skills (spec.md §9). Total
// is derived; callers must call Recompute after changing any other field.
type SixTuple struct {
	Base       int32
	Preset     int32
	Max        int32
	Difficulty int32
	Dynamic    int32
	Total      int32
}

// Recompute derives Total from the other five fields and stores it. The
// original engine's formula is base + preset + dynamic, clamped to
// [0, Max], with difficulty acting as a percentage scaler on Dynamic.
func (s *SixTuple) Recompute() {
	dyn := s.Dynamic
	if s.Difficulty != 0 {
		dyn = dyn * s.Difficulty / 100
	}
	total := s.Base + s.Preset + dyn
	if s.Max > 0 && total > s.Max {
		total = s.Max
	}
	if total < 0 {
		total = 0
	}
	s.Total = total
}

// Kindred bitmask values (race/faction), spec.md Glossary "Kindred".
type Kindred uint32

const (
	KinTemplar Kindred = 1 << iota
	KinHarakim
	KinMercenary
	KinSeyanDu
	KinMonster
	KinPurple
	KinMale
	KinFemale
)

// CharFlags is the u64 bitmask of ownership/admin flags (spec.md §3.1).
// Kept as a single bitmask type, never split into booleans, because the
// delta protocol and persistence format depend on the bitwise
// representation (spec.md §9).
type CharFlags uint64

const (
	CfPlayer CharFlags = 1 << iota
	CfUsurp
	CfThrall
	CfBody
	CfUpdate
	CfSaveMe
	CfInvisible
	CfComputerControlledPlayer
	CfStaff
	CfGod
	CfImp
	CfCcp
	CfImmortal
)

// ElevatedFlags is the bitmask cleared from a usurped body on logout
// (original_source/server/src/state.rs::logout_player), per SPEC_FULL.md
// "Usurp/logout sequence".
const ElevatedFlags = CfStaff | CfGod | CfImp | CfCcp | CfImmortal | CfUsurp | CfComputerControlledPlayer

// Intent holds a character's pending actions, resolved by the driver in
// priority order use_nr -> skill_nr -> goto -> attack_cn -> misc_action
// (spec.md §4.8).
type Intent struct {
	AttackCn     CharID
	SkillNr      int32
	SkillTarget1 CharID
	SkillTarget2 CharID
	GotoX, GotoY int32
	UseNr        int32
	MiscAction   int32
	MiscTarget1  CharID
	MiscTarget2  CharID
}

const (
	InvSize   = 40
	WornSize  = 20
	SpellSize = 20
	DepotSize = 62
)

// Character is a player or NPC (spec.md §3.1).
type Character struct {
	Used UseState
	ID   CharID

	Name    [40]byte
	Kindred Kindred
	Align   int32

	Str, Dex, Con, Wis, Intl, Cha SixTuple
	HP, Endurance, Mana           SixTuple
	Skill                         [50]SixTuple

	AHP, AEnd, AMana int32 // active pool, fixed-point milli-units

	X, Y       int32
	ToX, ToY   int32
	FrX, FrY   int32
	Dir        uint8 // direction.Direction, stored as byte for the wire layout
	Status     uint8
	Status2    uint8

	Intent Intent

	Carried [InvSize]ItemID
	Worn    [WornSize]ItemID
	Spells  [SpellSize]ItemID
	Depot   [DepotSize]ItemID
	CItem   ItemID

	Flags CharFlags

	EscapeTimer int32
	Stunned     int32
	Retry       int32
	Idle        int32
	LoginDate   int64
	LogoutDate  int64

	Light int32 // light emitted by this character, if any

	Player int32 // bound session/player index, 0 if none; §3.2 invariant

	// Template id this character was instantiated from (0 for direct
	// player characters loaded from a character file).
	TemplateID int32

	// Driver scratch: reserved per-NPC workspace (spec.md §3.1,
	// "data[0..100]"). Slot conventions are per-driver; see
	// internal/driver for the tagged-variant representation built on top
	// of this raw array for wire/persistence compatibility.
	Data [100]int32
}

func (c *Character) NameString() string {
	n := 0
	for n < len(c.Name) && c.Name[n] != 0 {
		n++
	}
	return string(c.Name[:n])
}

func (c *Character) SetName(name string) {
	var buf [40]byte
	copy(buf[:], name)
	c.Name = buf
}

func (c *Character) IsMonster() bool {
	return c.Kindred&KinMonster != 0
}

func (c *Character) IsUsurpOrThrall() bool {
	return c.Flags&(CfUsurp|CfThrall) != 0
}

// ItemPlacement is the worn-slot bitmask (spec.md §3.1).
type ItemPlacement uint32

const (
	PlaceHead ItemPlacement = 1 << iota
	PlaceNeck
	PlaceBody
	PlaceArms
	PlaceHands
	PlaceLegs
	PlaceFeet
	PlaceWeapon
	PlaceShield
	PlaceTwoHanded
	PlaceRing
	PlaceCloak
)

type ItemFlags uint32

const (
	IfMoveBlock ItemFlags = 1 << iota
	IfLight
)

// Item is a carried or world object (spec.md §3.1).
type Item struct {
	Used UseState
	ID   ItemID

	TemplateID int32
	GfxInactive, GfxActive int32
	Placement  ItemPlacement
	Flags      ItemFlags

	Str, Dex, Con, Wis, Intl, Cha SixTuple

	Carried CharID // owning character, 0 if on ground
	X, Y    int32  // valid only if Carried == 0

	AgeInactive, AgeInactiveMax int32
	AgeActive, AgeActiveMax     int32

	Damage int32

	Light int32 // light emitted if IfLight set

	Count int32 // stack count for stackable templates

	Data [8]int32 // small per-instance scratch (enchant level, charges, ...)
}

// MapFlags are per-tile movement/sight/zone attributes (spec.md §3.1).
type MapFlags uint32

const (
	MfMoveBlock MapFlags = 1 << iota
	MfSightBlock
	MfIndoors
	MfUWater
	MfNoMonst
	MfBank
	MfTavern
	MfNoMagic
	MfDeathTrap
	MfNoLag
	MfArena
	MfNoExpire
)

// Tile is one cell of the MapW x MapH grid (spec.md §3.1).
type Tile struct {
	Background int32
	Foreground int32
	Flags      MapFlags

	Ch   CharID // character currently standing here, 0 if none
	ToCh CharID // character reserving this tile mid-step, 0 if none
	It   ItemID // ground item, 0 if none

	Light  uint8 // 0..15 light level, DLight clamped (worldmap re-derives it on every add/remove)
	DLight int32 // dynamic light overlay accumulator (signed contributions)
}

// Index returns the linear tile index for (x, y), or -1 if out of range.
func Index(x, y int32) int {
	if x < 0 || x >= MapW || y < 0 || y >= MapH {
		return -1
	}
	return int(x + y*MapW)
}

// Effect is a timed world effect attached to a tile or character (spec.md
// §3.1).
type Effect struct {
	Used    bool
	Kind    int32
	TargetX, TargetY int32
	TargetCh         CharID
	Expiry           uint64 // tick at which this effect expires
	Scratch          [10]int32
}

// Globals holds process-wide counters (spec.md §4.1, "global counters").
type Globals struct {
	Ticker       uint64
	HourCounter  uint32
	NextItemObjID int32
	MaxOnline    int32
	OnlineTicks  uint64
}
