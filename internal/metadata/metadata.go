// Package metadata is the planner's view of the type system. The
// planner never sees a schema directly; it asks a Resolver for
// per-field metadata and treats everything behind that interface as a
// black box.
package metadata

import (
	"fmt"

	language "github.com/daviddesmet/hotchocolate/internal/language"
)

// FieldMetadata describes how one field behaves during execution.
type FieldMetadata struct {
	Type *TypeRef
	// Serial marks fields that must not run concurrently with their
	// siblings (mutation root fields, or fields declared @serial).
	Serial bool
	// Composite marks fields resolving to an object, interface or
	// union, i.e. fields that carry a sub-selection.
	Composite bool
	// Streamable marks list-typed fields eligible for @stream.
	Streamable bool
	// Deferrable marks fields that may live inside a deferred fragment.
	Deferrable bool
}

// Resolver supplies field metadata during plan construction.
type Resolver interface {
	// ResolveField returns metadata for fieldName on parentType,
	// failing with *UnknownFieldError when either is absent.
	ResolveField(parentType, fieldName string) (FieldMetadata, error)
	// RootType returns the name of the root type serving the given
	// operation kind.
	RootType(op language.OperationType) (string, error)
}

// UnknownFieldError reports a metadata lookup miss.
type UnknownFieldError struct {
	ParentType string
	Field      string
}

func (e *UnknownFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unknown type %q", e.ParentType)
	}
	return fmt.Sprintf("unknown field %q on type %q", e.Field, e.ParentType)
}

// TypeRef is a wrapped type reference (named, list or non-null).
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // for List and NonNull
	Named  string   // for named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the reference is wrapped with Non-Null.
func (t *TypeRef) IsNonNull() bool { return t != nil && t.Kind == TypeRefKindNonNull }

// IsList reports whether the reference is a list, looking through one
// Non-Null wrapper.
func (t *TypeRef) IsList() bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindList {
		return true
	}
	return t.Kind == TypeRefKindNonNull && t.OfType != nil && t.OfType.Kind == TypeRefKindList
}

// Unwrap removes one layer of List or Non-Null wrapping.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

// NamedTypeName returns the innermost named type.
func (t *TypeRef) NamedTypeName() string {
	for cur := t; cur != nil; cur = cur.OfType {
		if cur.Named != "" {
			return cur.Named
		}
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[[Int]!]".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	default:
		return t.Named
	}
}

// ListDepth counts the list nesting of the reference, ignoring
// Non-Null wrappers. Used to validate client-controlled nullability
// bracket depth.
func (t *TypeRef) ListDepth() int {
	depth := 0
	for cur := t; cur != nil; cur = cur.OfType {
		if cur.Kind == TypeRefKindList {
			depth++
		}
	}
	return depth
}
