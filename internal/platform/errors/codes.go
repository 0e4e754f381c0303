// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeUnknownEventType Code = "UNKNOWN_EVENT_TYPE"
	CodeUnknownCommand   Code = "UNKNOWN_COMMAND"

	// Not-found errors
	CodeContentStreamDoesNotExistYet Code = "CONTENT_STREAM_DOES_NOT_EXIST_YET"
	CodeNodeTypeNotFound             Code = "NODE_TYPE_NOT_FOUND"
	CodeDimensionSpacePointNotFound  Code = "DIMENSION_SPACE_POINT_NOT_FOUND"
	CodeWorkspaceDoesNotExist        Code = "WORKSPACE_DOES_NOT_EXIST"
	CodeBaseWorkspaceDoesNotExist    Code = "BASE_WORKSPACE_DOES_NOT_EXIST"

	// Conflict errors
	CodeNodeAggregateCurrentlyExists               Code = "NODE_AGGREGATE_CURRENTLY_EXISTS"
	CodeNodeAggregateCurrentlyDoesNotExist         Code = "NODE_AGGREGATE_CURRENTLY_DOES_NOT_EXIST"
	CodeNodeNameIsAlreadyOccupied                  Code = "NODE_NAME_IS_ALREADY_OCCUPIED"
	CodeNodeNameIsAlreadyCovered                   Code = "NODE_NAME_IS_ALREADY_COVERED"
	CodeDimensionSpacePointIsAlreadyOccupied       Code = "DIMENSION_SPACE_POINT_IS_ALREADY_OCCUPIED"
	CodeDimensionSpacePointIsNotYetOccupied        Code = "DIMENSION_SPACE_POINT_IS_NOT_YET_OCCUPIED"
	CodeNodeAggregateCurrentlyDisablesPoint        Code = "NODE_AGGREGATE_CURRENTLY_DISABLES_DIMENSION_SPACE_POINT"
	CodeNodeAggregateCurrentlyDoesNotDisablePoint  Code = "NODE_AGGREGATE_CURRENTLY_DOES_NOT_DISABLE_DIMENSION_SPACE_POINT"
	CodeNodeAggregateDoesCurrentlyNotCoverPoint    Code = "NODE_AGGREGATE_DOES_CURRENTLY_NOT_COVER_DIMENSION_SPACE_POINT"
	CodeNodeAggregateDoesCurrentlyNotCoverPointSet Code = "NODE_AGGREGATE_DOES_CURRENTLY_NOT_COVER_DIMENSION_SPACE_POINT_SET"
	CodeNodeAggregateIsRoot                        Code = "NODE_AGGREGATE_IS_ROOT"
	CodeNodeAggregateIsTethered                    Code = "NODE_AGGREGATE_IS_TETHERED"
	CodeNodeAggregateIsDescendant                  Code = "NODE_AGGREGATE_IS_DESCENDANT"
	CodeRootNodeAggregateTypeAlreadyExists         Code = "ROOT_NODE_AGGREGATE_TYPE_ALREADY_EXISTS"
	CodeSubtreeIsAlreadyTagged                     Code = "SUBTREE_IS_ALREADY_TAGGED"
	CodeSubtreeIsNotTagged                         Code = "SUBTREE_IS_NOT_TAGGED"
	CodeContentStreamAlreadyExists                 Code = "CONTENT_STREAM_ALREADY_EXISTS"
	CodeContentStreamIsClosed                      Code = "CONTENT_STREAM_IS_CLOSED"
	CodeContentStreamIsNotClosed                   Code = "CONTENT_STREAM_IS_NOT_CLOSED"
	CodeWorkspaceAlreadyExists                     Code = "WORKSPACE_ALREADY_EXISTS"
	CodeWorkspaceHasNoBase                         Code = "WORKSPACE_HAS_NO_BASE"
	CodeBaseWorkspaceHasBeenModifiedInTheMeantime  Code = "BASE_WORKSPACE_HAS_BEEN_MODIFIED_IN_THE_MEANTIME"
	CodeWorkspaceRebaseConflict                    Code = "WORKSPACE_REBASE_CONFLICT"

	// Schema constraint errors
	CodeNodeConstraintViolation        Code = "NODE_CONSTRAINT_VIOLATION"
	CodeNodeTypeIsAbstract             Code = "NODE_TYPE_IS_ABSTRACT"
	CodeNodeTypeIsOfTypeRoot           Code = "NODE_TYPE_IS_OF_TYPE_ROOT"
	CodeNodeTypeIsNotOfTypeRoot        Code = "NODE_TYPE_IS_NOT_OF_TYPE_ROOT"
	CodeReferenceNotDeclared           Code = "REFERENCE_CANNOT_BE_SET_NOT_DECLARED"
	CodeReferenceConstraintsNotMatched Code = "REFERENCE_CANNOT_BE_SET_CONSTRAINTS_NOT_MATCHED"
	CodeReferencePropertyNotDeclared   Code = "REFERENCE_CANNOT_BE_SET_PROPERTY_NOT_DECLARED"
	CodeReferencePropertyTypeMismatch  Code = "REFERENCE_CANNOT_BE_SET_PROPERTY_TYPE_MISMATCH"
	CodePropertyCannotBeSet            Code = "PROPERTY_CANNOT_BE_SET"
	CodeTetheredNodeTypeMismatch       Code = "TETHERED_NODE_TYPE_MISMATCH"

	// Integrity defects
	CodeNodeAggregatesTypeIsAmbiguous   Code = "NODE_AGGREGATES_TYPE_IS_AMBIGUOUS"
	CodeVariationWeightsIncomparable    Code = "VARIATION_WEIGHTS_INCOMPARABLE"
	CodeInvalidDimensionConfiguration   Code = "INVALID_DIMENSION_CONFIGURATION"
	CodeInvalidNodeTypeConfiguration    Code = "INVALID_NODE_TYPE_CONFIGURATION"
	CodeContentStreamLineageIsCorrupted Code = "CONTENT_STREAM_LINEAGE_IS_CORRUPTED"

	// Concurrency errors
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"
)

// Category groups codes by how a caller is expected to react.
type Category string

const (
	CategoryUnknown          Category = "unknown"
	CategoryInvalidArgument  Category = "invalid_argument"
	CategoryNotFound         Category = "not_found"
	CategoryConflict         Category = "conflict"
	CategorySchemaConstraint Category = "schema_constraint"
	CategoryIntegrityDefect  Category = "integrity_defect"
	CategoryConcurrency      Category = "concurrency"
)

// Category returns the category the code belongs to.
func (c Code) Category() Category {
	switch c {
	case CodeInvalidArgument,
		CodeUnknownEventType,
		CodeUnknownCommand:
		return CategoryInvalidArgument

	case CodeContentStreamDoesNotExistYet,
		CodeNodeTypeNotFound,
		CodeDimensionSpacePointNotFound,
		CodeWorkspaceDoesNotExist,
		CodeBaseWorkspaceDoesNotExist:
		return CategoryNotFound

	case CodeNodeAggregateCurrentlyExists,
		CodeNodeAggregateCurrentlyDoesNotExist,
		CodeNodeNameIsAlreadyOccupied,
		CodeNodeNameIsAlreadyCovered,
		CodeDimensionSpacePointIsAlreadyOccupied,
		CodeDimensionSpacePointIsNotYetOccupied,
		CodeNodeAggregateCurrentlyDisablesPoint,
		CodeNodeAggregateCurrentlyDoesNotDisablePoint,
		CodeNodeAggregateDoesCurrentlyNotCoverPoint,
		CodeNodeAggregateDoesCurrentlyNotCoverPointSet,
		CodeNodeAggregateIsRoot,
		CodeNodeAggregateIsTethered,
		CodeNodeAggregateIsDescendant,
		CodeRootNodeAggregateTypeAlreadyExists,
		CodeSubtreeIsAlreadyTagged,
		CodeSubtreeIsNotTagged,
		CodeContentStreamAlreadyExists,
		CodeContentStreamIsClosed,
		CodeContentStreamIsNotClosed,
		CodeWorkspaceAlreadyExists,
		CodeWorkspaceHasNoBase,
		CodeBaseWorkspaceHasBeenModifiedInTheMeantime,
		CodeWorkspaceRebaseConflict:
		return CategoryConflict

	case CodeNodeConstraintViolation,
		CodeNodeTypeIsAbstract,
		CodeNodeTypeIsOfTypeRoot,
		CodeNodeTypeIsNotOfTypeRoot,
		CodeReferenceNotDeclared,
		CodeReferenceConstraintsNotMatched,
		CodeReferencePropertyNotDeclared,
		CodeReferencePropertyTypeMismatch,
		CodePropertyCannotBeSet,
		CodeTetheredNodeTypeMismatch:
		return CategorySchemaConstraint

	case CodeNodeAggregatesTypeIsAmbiguous,
		CodeVariationWeightsIncomparable,
		CodeInvalidDimensionConfiguration,
		CodeInvalidNodeTypeConfiguration,
		CodeContentStreamLineageIsCorrupted:
		return CategoryIntegrityDefect

	case CodeConcurrencyConflict:
		return CategoryConcurrency

	default:
		return CategoryUnknown
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c.Category() {
	case CategoryInvalidArgument, CategorySchemaConstraint:
		return codes.InvalidArgument
	case CategoryNotFound:
		return codes.NotFound
	case CategoryConflict:
		return codes.FailedPrecondition
	case CategoryConcurrency:
		return codes.Aborted
	default:
		return codes.Internal
	}
}
