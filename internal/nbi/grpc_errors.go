package nbi

import (
	"context"
	"errors"

	"github.com/signalsfoundry/commnet-calculator/core"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatusError maps calculator errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, core.ErrUnknownDevice),
		errors.Is(err, core.ErrInvalidCount),
		errors.Is(err, core.ErrInvalidSpecifier),
		errors.Is(err, core.ErrEmptyEndpoint):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, core.ErrCatalogConflict),
		errors.Is(err, core.ErrInvalidDefinition),
		errors.Is(err, core.ErrInvalidBands),
		errors.Is(err, core.ErrInvalidCurve):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
