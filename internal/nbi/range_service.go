package nbi

import (
	"context"

	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/internal/nbi/types"
	"github.com/signalsfoundry/commnet-calculator/model"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fully-qualified RangeService method names.
const (
	RangeServiceName                         = "commnet.v1.RangeService"
	RangeService_ComputeRange_FullMethodName = "/commnet.v1.RangeService/ComputeRange"
	RangeService_ListDevices_FullMethodName  = "/commnet.v1.RangeService/ListDevices"
)

// Calculator is the application service the RangeService delegates to.
type Calculator interface {
	Compute(ctx context.Context, from, to []string) (*core.Result, error)
	Devices(ctx context.Context) ([]model.DeviceDefinition, error)
}

// RangeServiceServer is the server API for commnet.v1.RangeService.
type RangeServiceServer interface {
	ComputeRange(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDevices(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RangeService implements RangeServiceServer on top of a Calculator.
type RangeService struct {
	calc Calculator
	log  logging.Logger
}

// NewRangeService wires a RangeService to calc and an optional logger.
func NewRangeService(calc Calculator, log logging.Logger) *RangeService {
	if log == nil {
		log = logging.Noop()
	}
	return &RangeService{calc: calc, log: log}
}

// ComputeRange evaluates the link between the requested endpoints.
func (s *RangeService) ComputeRange(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	req, err := DecodeRangeRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}

	res, err := s.calc.Compute(ctx, req.From, req.To)
	if err != nil {
		s.logger(ctx).Debug(ctx, "ComputeRange rejected", logging.Err(err))
		return nil, ToStatusError(err)
	}

	_, span := StartChildSpan(ctx, "nbi.EncodeResult", attribute.Int("signals", len(res.Signals)))
	defer span.End()
	out, err := types.ResultToProto(res)
	if err != nil {
		span.RecordError(err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ListDevices returns every device visible in the current catalog.
func (s *RangeService) ListDevices(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	defs, err := s.calc.Devices(ctx)
	if err != nil {
		return nil, ToStatusError(err)
	}
	out, err := types.DevicesToProto(defs)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *RangeService) ensureReady() error {
	if s == nil || s.calc == nil {
		return status.Error(codes.Unavailable, "range service not initialised")
	}
	return nil
}

func (s *RangeService) logger(ctx context.Context) logging.Logger {
	return logging.LoggerFromContext(ctx, s.log)
}

// RegisterRangeServiceServer registers srv on s.
func RegisterRangeServiceServer(s grpc.ServiceRegistrar, srv RangeServiceServer) {
	s.RegisterService(&RangeService_ServiceDesc, srv)
}

// RangeService_ServiceDesc describes commnet.v1.RangeService. Messages are
// google.protobuf.Struct / Empty, so no generated code is needed.
var RangeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: RangeServiceName,
	HandlerType: (*RangeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ComputeRange", Handler: rangeServiceComputeRangeHandler},
		{MethodName: "ListDevices", Handler: rangeServiceListDevicesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "commnet/v1/range_service.proto",
}

func rangeServiceComputeRangeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RangeServiceServer).ComputeRange(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RangeService_ComputeRange_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RangeServiceServer).ComputeRange(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func rangeServiceListDevicesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RangeServiceServer).ListDevices(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RangeService_ListDevices_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RangeServiceServer).ListDevices(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// RangeServiceClient is the client API for commnet.v1.RangeService.
type RangeServiceClient interface {
	ComputeRange(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListDevices(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type rangeServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRangeServiceClient returns a client bound to cc.
func NewRangeServiceClient(cc grpc.ClientConnInterface) RangeServiceClient {
	return &rangeServiceClient{cc: cc}
}

func (c *rangeServiceClient) ComputeRange(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RangeService_ComputeRange_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rangeServiceClient) ListDevices(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RangeService_ListDevices_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
