package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/validator"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// fieldErrorsKey is the trailer that carries validation errors as a JSON object.
const fieldErrorsKey = "x-field-errors"

// toStatus maps err onto a gRPC status. Field errors are attached to the
// call trailer.
func toStatus(ctx context.Context, err error) error {
	var verr *validator.Error
	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &verr):
		if fields, mErr := json.Marshal(verr.Errors); mErr == nil {
			_ = grpc.SetTrailer(ctx, metadata.Pairs(fieldErrorsKey, string(fields)))
		}
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// fromStatus is the client side of toStatus.
func fromStatus(err error, trailer metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return models.ErrRecordNotFound
	case codes.InvalidArgument:
		values := trailer.Get(fieldErrorsKey)
		if len(values) == 0 {
			return err
		}
		var fields map[string]string
		if json.Unmarshal([]byte(values[0]), &fields) != nil || len(fields) == 0 {
			return err
		}
		return &validator.Error{Errors: fields}
	default:
		return err
	}
}
