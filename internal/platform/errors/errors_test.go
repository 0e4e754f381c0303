package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeCategory(t *testing.T) {
	tests := []struct {
		code     Code
		category Category
		grpc     codes.Code
	}{
		{code: CodeContentStreamDoesNotExistYet, category: CategoryNotFound, grpc: codes.NotFound},
		{code: CodeNodeNameIsAlreadyCovered, category: CategoryConflict, grpc: codes.FailedPrecondition},
		{code: CodeReferenceConstraintsNotMatched, category: CategorySchemaConstraint, grpc: codes.InvalidArgument},
		{code: CodeNodeAggregatesTypeIsAmbiguous, category: CategoryIntegrityDefect, grpc: codes.Internal},
		{code: CodeConcurrencyConflict, category: CategoryConcurrency, grpc: codes.Aborted},
		{code: CodeUnknownCommand, category: CategoryInvalidArgument, grpc: codes.InvalidArgument},
		{code: Code("SOMETHING_ELSE"), category: CategoryUnknown, grpc: codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Category(); got != tt.category {
				t.Fatalf("Category() = %q, want %q", got, tt.category)
			}
			if got := tt.code.GRPCCode(); got != tt.grpc {
				t.Fatalf("GRPCCode() = %v, want %v", got, tt.grpc)
			}
		})
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handle: %w", New(CodeNodeAggregateIsRoot, "root"))
	if !IsCode(err, CodeNodeAggregateIsRoot) {
		t.Fatalf("expected code through wrapping, got %q", GetCode(err))
	}
	if GetCode(errors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := WithMetadata(CodeNodeTypeNotFound, "missing", map[string]string{"NodeTypeName": "Acme:Page"})
	if !errors.Is(err, New(CodeNodeTypeNotFound, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(err, New(CodeNodeTypeIsAbstract, "")) {
		t.Fatal("expected different codes not to match")
	}
	if GetMetadata(err)["NodeTypeName"] != "Acme:Page" {
		t.Fatalf("metadata = %v", GetMetadata(err))
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeUnknown, "append failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestHandleErrorLocalizes(t *testing.T) {
	err := WithMetadata(CodeNodeAggregateCurrentlyExists, "exists", map[string]string{"NodeAggregateID": "sir-david"})
	grpcErr := HandleError(err, "")
	st, ok := status.FromError(grpcErr)
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want FailedPrecondition", st.Code())
	}
	var localized *errdetails.LocalizedMessage
	var info *errdetails.ErrorInfo
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.LocalizedMessage:
			localized = d
		case *errdetails.ErrorInfo:
			info = d
		}
	}
	if info == nil || info.Reason != string(CodeNodeAggregateCurrentlyExists) {
		t.Fatalf("error info = %v", info)
	}
	if localized == nil || localized.Message != "Node aggregate sir-david already exists" {
		t.Fatalf("localized = %v", localized)
	}
}

func TestHandleErrorUnknown(t *testing.T) {
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
	st, _ := status.FromError(HandleError(errors.New("boom"), "en-US"))
	if st.Code() != codes.Internal {
		t.Fatalf("code = %v, want Internal", st.Code())
	}
}
