package domain

import "strings"

// Channel identifies the medium a message travelled through.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWeb      Channel = "web"
	ChannelManual   Channel = "manual"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelWhatsApp, ChannelTelegram, ChannelEmail, ChannelSMS, ChannelWeb, ChannelManual:
		return true
	}
	return false
}

// Direction tells whether a message was received from or sent to a subject.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

func (d Direction) String() string { return string(d) }

func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// InsightCategory is the closed set of topics an insight can be filed under.
type InsightCategory string

const (
	InsightCategoryInjury      InsightCategory = "injury"
	InsightCategorySchedule    InsightCategory = "schedule"
	InsightCategoryPerformance InsightCategory = "performance"
	InsightCategoryAdmin       InsightCategory = "admin"
	InsightCategoryNutrition   InsightCategory = "nutrition"
	InsightCategorySleep       InsightCategory = "sleep"
	InsightCategoryPsychology  InsightCategory = "psychology"
	InsightCategoryOther       InsightCategory = "other"
)

// InsightCategories lists every category in display order.
var InsightCategories = []InsightCategory{
	InsightCategoryInjury,
	InsightCategorySchedule,
	InsightCategoryPerformance,
	InsightCategoryAdmin,
	InsightCategoryNutrition,
	InsightCategorySleep,
	InsightCategoryPsychology,
	InsightCategoryOther,
}

func (c InsightCategory) String() string { return string(c) }

func (c InsightCategory) IsValid() bool {
	switch c {
	case InsightCategoryInjury, InsightCategorySchedule, InsightCategoryPerformance,
		InsightCategoryAdmin, InsightCategoryNutrition, InsightCategorySleep,
		InsightCategoryPsychology, InsightCategoryOther:
		return true
	}
	return false
}

// ParseInsightCategory normalizes s and maps anything outside the closed
// set to InsightCategoryOther.
func ParseInsightCategory(s string) InsightCategory {
	c := InsightCategory(strings.ToLower(strings.TrimSpace(s)))
	if c.IsValid() {
		return c
	}
	return InsightCategoryOther
}

// InsightSource records who authored an insight.
type InsightSource string

const (
	InsightSourceAI     InsightSource = "ai"
	InsightSourceManual InsightSource = "manual"
)

func (s InsightSource) String() string { return string(s) }

func (s InsightSource) IsValid() bool {
	return s == InsightSourceAI || s == InsightSourceManual
}

// InsightStatus is the human-review state of an insight.
type InsightStatus string

const (
	InsightStatusSuggested InsightStatus = "suggested"
	InsightStatusAccepted  InsightStatus = "accepted"
	InsightStatusRejected  InsightStatus = "rejected"
)

func (s InsightStatus) String() string { return string(s) }

func (s InsightStatus) IsValid() bool {
	switch s {
	case InsightStatusSuggested, InsightStatusAccepted, InsightStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a review may move an insight from s to next.
// Rejected is terminal; accepted may be re-confirmed but never un-accepted.
func (s InsightStatus) CanTransitionTo(next InsightStatus) bool {
	switch s {
	case InsightStatusSuggested:
		return next == InsightStatusAccepted || next == InsightStatusRejected
	case InsightStatusAccepted:
		return next == InsightStatusAccepted
	}
	return false
}

// ActionStatus is the lifecycle state of a follow-up task.
type ActionStatus string

const (
	ActionStatusOpen       ActionStatus = "open"
	ActionStatusInProgress ActionStatus = "in_progress"
	ActionStatusDone       ActionStatus = "done"
	ActionStatusCancelled  ActionStatus = "cancelled"
)

func (s ActionStatus) String() string { return string(s) }

func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionStatusOpen, ActionStatusInProgress, ActionStatusDone, ActionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s ActionStatus) IsTerminal() bool {
	return s == ActionStatusDone || s == ActionStatusCancelled
}

// CanTransitionTo reports whether an action may move from s to next.
func (s ActionStatus) CanTransitionTo(next ActionStatus) bool {
	if s.IsTerminal() || !next.IsValid() {
		return false
	}
	switch next {
	case ActionStatusCancelled:
		return true
	case ActionStatusInProgress:
		return s == ActionStatusOpen
	case ActionStatusDone:
		return s == ActionStatusOpen || s == ActionStatusInProgress
	}
	return false
}

// ParseActionStatus accepts canonical values and the legacy aliases
// used by older clients ("pending", "completed", ...).
func ParseActionStatus(s string) (ActionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "pending", "backlog":
		return ActionStatusOpen, true
	case "in_progress", "doing":
		return ActionStatusInProgress, true
	case "done", "completed":
		return ActionStatusDone, true
	case "cancelled", "canceled":
		return ActionStatusCancelled, true
	}
	return "", false
}

// ActionPriority orders follow-up tasks.
type ActionPriority string

const (
	ActionPriorityLow    ActionPriority = "low"
	ActionPriorityMedium ActionPriority = "medium"
	ActionPriorityHigh   ActionPriority = "high"
)

func (p ActionPriority) String() string { return string(p) }

func (p ActionPriority) IsValid() bool {
	switch p {
	case ActionPriorityLow, ActionPriorityMedium, ActionPriorityHigh:
		return true
	}
	return false
}

// RiskLevel classifies a composite risk score.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

func (l RiskLevel) String() string { return string(l) }

func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// SignalName identifies one normalized input of the risk aggregator.
type SignalName string

const (
	SignalInactivity       SignalName = "inactivity"
	SignalOverdueActions   SignalName = "overdue"
	SignalNegativeInsights SignalName = "negative_insights"
	SignalSentiment        SignalName = "sentiment"
	SignalPain             SignalName = "pain"
)

// Signals lists every signal in breakdown order.
var Signals = []SignalName{
	SignalInactivity,
	SignalOverdueActions,
	SignalNegativeInsights,
	SignalSentiment,
	SignalPain,
}

func (n SignalName) String() string { return string(n) }
