package nbi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signalsfoundry/commnet-calculator/internal/nbi/types"
	"google.golang.org/protobuf/types/known/structpb"
)

// MaxSpecifiersPerEndpoint bounds a single request.
const MaxSpecifiersPerEndpoint = 256

// ErrInvalidRequest marks a structurally invalid request message.
var ErrInvalidRequest = errors.New("invalid request")

// DecodeRangeRequest decodes and validates a ComputeRange request.
func DecodeRangeRequest(s *structpb.Struct) (types.RangeRequest, error) {
	req, err := types.RangeRequestFromProto(s)
	if err != nil {
		return types.RangeRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := ValidateRangeRequest(req); err != nil {
		return types.RangeRequest{}, err
	}
	return req, nil
}

// ValidateRangeRequest checks list sizes and rejects blank specifiers.
func ValidateRangeRequest(req types.RangeRequest) error {
	for side, specs := range map[string][]string{types.FieldFrom: req.From, types.FieldTo: req.To} {
		if len(specs) > MaxSpecifiersPerEndpoint {
			return fmt.Errorf("%w: %s has %d specifiers, limit is %d", ErrInvalidRequest, side, len(specs), MaxSpecifiersPerEndpoint)
		}
		for i, s := range specs {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%w: %s[%d] is blank", ErrInvalidRequest, side, i)
			}
		}
	}
	return nil
}
