// Package proto defines the typed notifications the engines emit toward
// clients. The byte-level client codec lives outside this server; the
// session hub delivers these structs as-is.
package proto

import "github.com/l2kgo/server/internal/world"

// Packet is any outbound notification.
type Packet any

// System message IDs shown verbatim by the client.
const (
	MsgNotEnoughArrows    = 112
	MsgNotEnoughAdena     = 279
	MsgNotEnoughMP        = 24
	MsgNotEnoughHP        = 23
	MsgNotEnoughItems     = 1063
	MsgSkillNotReady      = 48
	MsgTargetOutOfRange   = 22
	MsgIncorrectTarget    = 144
	MsgCannotUseOnSelf    = 51
	MsgYouDied            = 551
	MsgEarnedExp          = 1068
	MsgAvoidedAttack      = 2264
	MsgCriticalHit        = 35
	MsgShieldDefended     = 111
	MsgOverhit            = 361
	MsgStoreGone          = 1065
	MsgTooFarFromStore    = 1066
	MsgIncorrectItemCount = 1067
)

// SystemMessage is a client system-channel line. Text carries a
// free-form notice when MessageID is zero.
type SystemMessage struct {
	MessageID int32
	Args      []string
	Text      string
}

type SpawnObject struct {
	ID   int32
	Name string
	Pos  world.Position
}

type DeleteObject struct {
	ID int32
}

type MoveToLocation struct {
	ID   int32
	From world.Position
	Dest world.Position
}

type StopMove struct {
	ID      int32
	Pos     world.Position
	Heading uint16
}

// AttackHit is one resolved sub-hit inside an Attack packet. A dual or
// fist swing carries two, everything else one.
type AttackHit struct {
	TargetID int32
	Damage   int32
	Soulshot bool
	Critical bool
	Blocked  bool
	Missed   bool
}

type Attack struct {
	AttackerID int32
	Hits       []AttackHit
}

type StatusUpdate struct {
	ID    int32
	HP    int32
	MaxHP int32
	MP    int32
	MaxMP int32
	CP    int32
	MaxCP int32
}

type Die struct {
	ID int32
}

type Revive struct {
	ID int32
}

type CastStarted struct {
	CasterID int32
	TargetID int32
	SkillID  int32
	CastMs   int32
}

type CastLaunched struct {
	CasterID int32
	TargetID int32
	SkillID  int32
}

type TargetSelected struct {
	ActorID  int32
	TargetID int32
}

type TargetUnselected struct {
	ActorID int32
}

type ActionFailed struct{}

// Item list delta operations.
const (
	ItemOpAdd = iota
	ItemOpModify
	ItemOpRemove
)

type ItemOp struct {
	Op         int
	ItemID     int32
	TemplateID int32
	Count      int64
}

// ItemUpdate carries every slot change of one transaction in a single
// flush.
type ItemUpdate struct {
	Ops []ItemOp
}

type DropItem struct {
	DropperID int32
	ItemID    int32
	Pos       world.Position
}

type PickUpItem struct {
	ActorID int32
	ItemID  int32
	Pos     world.Position
}

// Private store message shown above the merchant.
type PrivateStoreMsg struct {
	ActorID int32
	Title   string
}

// Private store mode IDs mirror the client protocol.
const (
	StoreModeNone        = 0
	StoreModeSell        = 1
	StoreModeBuy         = 3
	StoreModePackageSell = 8
)

type PrivateStoreMode struct {
	ActorID int32
	Mode    int32
}

type PvpStatus struct {
	ID      int32
	Pvp     bool
	Karma   int32
	PKCount int32
}

type ExpSpGained struct {
	Exp int64
	SP  int64
}

type LevelUp struct {
	ID    int32
	Level int16
}

type ChangePosture struct {
	ID      int32
	Sitting bool
}

type NpcSay struct {
	ID   int32
	Text string
}
