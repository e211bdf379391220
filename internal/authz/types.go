// Package authz implements the relationship-based authorization core.
//
// Authorization data is a set of (subject, relation, object) tuples. Capabilities
// such as can_view or can_share are never stored; they are derived from the
// primitive relations owner, parent and viewer by the rules of a Model.
//
// A RelationStore answers capability questions. It is either evaluated in
// process over a TupleStore (see Engine) or delegated to an external graph
// engine (see package openfga). Callers only depend on the RelationStore
// interface.
package authz

import (
	"fmt"
	"strings"
)

// ObjectType is the type part of a typed reference.
type ObjectType string

const (
	TypeUser   ObjectType = "user"
	TypeFile   ObjectType = "file"
	TypeFolder ObjectType = "folder"
)

// Relation names an edge type (primitive) or a capability (derived).
type Relation string

// Primitive relations. Only these can be written as tuples.
const (
	RelationOwner  Relation = "owner"
	RelationParent Relation = "parent"
	RelationViewer Relation = "viewer"
)

// Derived capabilities.
const (
	CanView         Relation = "can_view"
	CanShare        Relation = "can_share"
	CanCreateFile   Relation = "can_create_file"
	CanCreateFolder Relation = "can_create_folder"
	IsShared        Relation = "is_shared"
)

// Ref is a typed reference of the form "type:id".
type Ref struct {
	Type ObjectType
	ID   string
}

// User returns a reference to a user subject.
func User(id string) Ref { return Ref{Type: TypeUser, ID: id} }

// File returns a reference to a file object.
func File(id string) Ref { return Ref{Type: TypeFile, ID: id} }

// Folder returns a reference to a folder object.
func Folder(id string) Ref { return Ref{Type: TypeFolder, ID: id} }

// String returns the canonical "type:id" form.
func (r Ref) String() string {
	return string(r.Type) + ":" + r.ID
}

// ParseRef parses a "type:id" reference. Everything after the first colon is
// the id, so ids that contain colons (e.g. "auth0|abc:1") survive.
func ParseRef(s string) (Ref, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok || typ == "" || id == "" {
		return Ref{}, fmt.Errorf("invalid reference %q: want type:id", s)
	}
	return Ref{Type: ObjectType(typ), ID: id}, nil
}

// Tuple is one (subject, relation, object) fact.
type Tuple struct {
	Subject  Ref      `json:"subject"`
	Relation Relation `json:"relation"`
	Object   Ref      `json:"object"`
}

// String returns "subject#relation@object".
func (t Tuple) String() string {
	return t.Subject.String() + "#" + string(t.Relation) + "@" + t.Object.String()
}

// TupleFilter selects tuples. Empty fields match anything.
type TupleFilter struct {
	SubjectType ObjectType
	SubjectID   string
	Relation    Relation
	ObjectType  ObjectType
	ObjectID    string
}

// Matches reports whether t satisfies the filter.
func (f TupleFilter) Matches(t Tuple) bool {
	if f.SubjectType != "" && t.Subject.Type != f.SubjectType {
		return false
	}
	if f.SubjectID != "" && t.Subject.ID != f.SubjectID {
		return false
	}
	if f.Relation != "" && t.Relation != f.Relation {
		return false
	}
	if f.ObjectType != "" && t.Object.Type != f.ObjectType {
		return false
	}
	if f.ObjectID != "" && t.Object.ID != f.ObjectID {
		return false
	}
	return true
}

// CheckRequest asks whether Subject holds Relation on Object.
// CorrelationID links the request to its result; results of a batch may
// arrive in any order.
type CheckRequest struct {
	CorrelationID string
	Subject       Ref
	Relation      Relation
	Object        Ref
}

// CheckResult is the answer to one CheckRequest.
type CheckResult struct {
	CorrelationID string
	Allowed       bool
}
