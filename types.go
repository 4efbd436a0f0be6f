package brainygraph

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NounType enumerates the 31 entity-type variants a noun may carry.
type NounType int

const (
	Person NounType = iota
	Location
	Thing
	Event
	Concept
	Content
	Collection
	Organization
	Document
	Process
	State
	Message
	Media
	File
	Task
	Project
	Skill
	Tag
	Category
	Product
	Service
	Device
	Session
	Conversation
	Comment
	Tool
	Resource
	Goal
	Rule
	Preference
	Unknown
)

var nounTypeNames = [...]string{
	"Person", "Location", "Thing", "Event", "Concept", "Content",
	"Collection", "Organization", "Document", "Process", "State",
	"Message", "Media", "File", "Task", "Project", "Skill", "Tag",
	"Category", "Product", "Service", "Device", "Session", "Conversation",
	"Comment", "Tool", "Resource", "Goal", "Rule", "Preference", "Unknown",
}

// String returns the canonical name of nt.
func (nt NounType) String() string {
	if int(nt) < 0 || int(nt) >= len(nounTypeNames) {
		return "Unknown"
	}
	return nounTypeNames[nt]
}

// ParseNounType resolves a canonical name to its NounType, or an error
// if name is not one of the 31 registered variants.
func ParseNounType(name string) (NounType, error) {
	for i, n := range nounTypeNames {
		if n == name {
			return NounType(i), nil
		}
	}
	return 0, fmt.Errorf("brainygraph: unknown noun type %q", name)
}

// VerbType enumerates the 40 relationship-type variants a verb may carry.
type VerbType int

const (
	RelatedTo VerbType = iota
	Owns
	Creates
	Uses
	Contains
	MemberOf
	ParentOf
	ChildOf
	FollowsAfter
	Precedes
	References
	DependsOn
	Blocks
	Supports
	Contradicts
	Implements
	Extends
	Replaces
	DerivedFrom
	SimilarTo
	OppositeOf
	LocatedAt
	WorksFor
	Manages
	ReportsTo
	Knows
	Likes
	Dislikes
	Trusts
	Mentions
	Tags
	Requests
	Fulfills
	Cancels
	Triggers
	Observes
	Authored
	Reviewed
	Assigned
	Other
)

var verbTypeNames = [...]string{
	"RelatedTo", "Owns", "Creates", "Uses", "Contains", "MemberOf",
	"ParentOf", "ChildOf", "FollowsAfter", "Precedes", "References",
	"DependsOn", "Blocks", "Supports", "Contradicts", "Implements",
	"Extends", "Replaces", "DerivedFrom", "SimilarTo", "OppositeOf",
	"LocatedAt", "WorksFor", "Manages", "ReportsTo", "Knows", "Likes",
	"Dislikes", "Trusts", "Mentions", "Tags", "Requests", "Fulfills",
	"Cancels", "Triggers", "Observes", "Authored", "Reviewed", "Assigned",
	"Other",
}

// String returns the canonical name of vt.
func (vt VerbType) String() string {
	if int(vt) < 0 || int(vt) >= len(verbTypeNames) {
		return "Other"
	}
	return verbTypeNames[vt]
}

// ParseVerbType resolves a canonical name to its VerbType, or an error
// if name is not one of the 40 registered variants.
func ParseVerbType(name string) (VerbType, error) {
	for i, n := range verbTypeNames {
		if n == name {
			return VerbType(i), nil
		}
	}
	return 0, fmt.Errorf("brainygraph: unknown verb type %q", name)
}

// SystemMetadata is the typed view over the reserved _brainy.* metadata
// subtree, kept distinct from the free-form caller metadata it is
// namespaced alongside.
type SystemMetadata struct {
	Deleted        bool
	DeletedAt      *time.Time
	IsPlaceholder  bool
	CreatorService string
}

// Noun is an entity: a vector plus free-form metadata under a type.
type Noun struct {
	ID        uuid.UUID
	Type      NounType
	Vector    []float32
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Verb is a typed, weighted, directed relationship between two nouns.
type Verb struct {
	ID         uuid.UUID
	Type       VerbType
	Source     uuid.UUID
	Target     uuid.UUID
	Weight     float32
	Confidence float32
	Vector     []float32
	Metadata   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
