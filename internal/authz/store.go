package authz

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrDepthExceeded is returned when evaluation recurses deeper than the
// configured limit. It is an error, never an implicit allow.
var ErrDepthExceeded = errors.New("authz: max recursion depth exceeded")

// RelationStore is the capability-check contract used by the rest of the system.
//
// Consistency: writes are not guaranteed to be visible to subsequent reads.
// External engines cache check results for a while (about 20 seconds in the
// reference deployment). A caller that just wrote a tuple must not expect a
// following Check to observe it; UI-facing flows update optimistically instead
// of re-querying.
type RelationStore interface {
	// Check evaluates whether subject holds relation on object, including
	// derived relations. An object with no tuples yields false, not an error.
	Check(ctx context.Context, subject Ref, relation Relation, object Ref) (bool, error)

	// BatchCheck evaluates many checks in one call. Exactly one result is
	// returned per request, identified by its CorrelationID.
	BatchCheck(ctx context.Context, checks []CheckRequest) ([]CheckResult, error)

	// WriteTuples appends tuples. Either all tuples are applied or none is,
	// and the failure is reported as a single error. Writing a tuple that
	// already exists is not an error.
	WriteTuples(ctx context.Context, tuples []Tuple) error

	// ListObjects returns the ids of all objects of the given type on which
	// subject holds relation, including derived relations.
	ListObjects(ctx context.Context, subject Ref, relation Relation, objectType ObjectType) ([]string, error)
}

// TupleStore persists primitive tuples for in-process evaluation.
type TupleStore interface {
	// WriteTuples stores tuples atomically. Existing tuples are skipped.
	WriteTuples(ctx context.Context, tuples []Tuple) error

	// ReadTuples returns all tuples matching the filter.
	ReadTuples(ctx context.Context, filter TupleFilter) ([]Tuple, error)

	// TupleExists checks if a specific tuple exists.
	TupleExists(ctx context.Context, tuple Tuple) (bool, error)
}

var (
	objectTypes        = []interface{}{TypeUser, TypeFile, TypeFolder}
	primitiveRelations = []interface{}{RelationOwner, RelationParent, RelationViewer}
)

// ValidateTuple checks a tuple against the primitive vocabulary.
// Derived capabilities cannot be written.
func ValidateTuple(t Tuple) error {
	err := validation.Errors{
		"subject.type": validation.Validate(t.Subject.Type, validation.Required, validation.In(objectTypes...)),
		"subject.id":   validation.Validate(t.Subject.ID, validation.Required),
		"relation":     validation.Validate(t.Relation, validation.Required, validation.In(primitiveRelations...)),
		"object.type":  validation.Validate(t.Object.Type, validation.Required, validation.In(TypeFile, TypeFolder)),
		"object.id":    validation.Validate(t.Object.ID, validation.Required),
	}.Filter()
	if err != nil {
		return fmt.Errorf("invalid tuple %s: %w", t, err)
	}
	return nil
}

// ValidateTuples validates every tuple. The first invalid tuple fails the batch.
func ValidateTuples(tuples []Tuple) error {
	for _, t := range tuples {
		if err := ValidateTuple(t); err != nil {
			return err
		}
	}
	return nil
}
