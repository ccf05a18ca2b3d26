package nbi

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/internal/nbi/types"
	"github.com/signalsfoundry/commnet-calculator/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeCalculator struct {
	mu       sync.Mutex
	from, to []string
	runID    string
	calls    int
	result   *core.Result
	err      error
	devices  []model.DeviceDefinition
}

func (f *fakeCalculator) Compute(ctx context.Context, from, to []string) (*core.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.from, f.to = from, to
	f.runID = logging.RunIDFromContext(ctx)
	return f.result, f.err
}

func (f *fakeCalculator) Devices(context.Context) ([]model.DeviceDefinition, error) {
	return f.devices, f.err
}

func sampleResult() *core.Result {
	return &core.Result{
		From:        core.EndpointReport{Kind: core.EndpointKindDSN, Power: 250e9, Devices: []core.DeviceCount{{Name: "DSN Lv.3", Count: 1}}},
		To:          core.EndpointReport{Kind: core.EndpointKindVessel, Power: 5e3, Devices: []core.DeviceCount{{Name: "Command Module", Count: 1}}},
		MaxDistance: 35355339.05932738,
	}
}

func TestComputeRangeDecodesRequest(t *testing.T) {
	calc := &fakeCalculator{result: sampleResult()}
	svc := NewRangeService(calc, nil)

	resp, err := svc.ComputeRange(context.Background(), types.RangeRequestToProto(types.RangeRequest{
		From: []string{"DSN3"},
		To:   []string{"2:HG-55", "C16"},
	}))
	if err != nil {
		t.Fatalf("ComputeRange: %v", err)
	}
	if len(calc.from) != 1 || calc.from[0] != "DSN3" || len(calc.to) != 2 {
		t.Fatalf("calculator saw from=%v to=%v", calc.from, calc.to)
	}
	res, err := types.ResultFromProto(resp)
	if err != nil {
		t.Fatalf("ResultFromProto: %v", err)
	}
	if res.MaxDistance != sampleResult().MaxDistance {
		t.Fatalf("MaxDistance = %v, want %v", res.MaxDistance, sampleResult().MaxDistance)
	}
}

func TestComputeRangeMapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"unknown device", fmt.Errorf("from endpoint: %w: %q", core.ErrUnknownDevice, "Nope"), codes.InvalidArgument},
		{"bad specifier", core.ErrInvalidSpecifier, codes.InvalidArgument},
		{"conflict", core.ErrCatalogConflict, codes.FailedPrecondition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewRangeService(&fakeCalculator{err: tc.err}, logging.Noop())
			_, err := svc.ComputeRange(context.Background(), &structpb.Struct{})
			if code := status.Code(err); code != tc.code {
				t.Fatalf("code = %v, want %v (err %v)", code, tc.code, err)
			}
		})
	}
}

func TestComputeRangeRejectsMalformedRequest(t *testing.T) {
	calc := &fakeCalculator{result: sampleResult()}
	svc := NewRangeService(calc, nil)

	bad, _ := structpb.NewStruct(map[string]any{"from": []any{1.0}})
	if _, err := svc.ComputeRange(context.Background(), bad); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("number specifier err = %v, want InvalidArgument", err)
	}
	blank, _ := structpb.NewStruct(map[string]any{"to": []any{"  "}})
	if _, err := svc.ComputeRange(context.Background(), blank); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("blank specifier err = %v, want InvalidArgument", err)
	}
	if calc.calls != 0 {
		t.Fatalf("calculator called %d times for malformed requests", calc.calls)
	}
}

func TestRangeServiceNotReady(t *testing.T) {
	var svc *RangeService
	if _, err := svc.ComputeRange(context.Background(), nil); status.Code(err) != codes.Unavailable {
		t.Fatalf("nil service err = %v, want Unavailable", err)
	}
	if _, err := NewRangeService(nil, nil).ListDevices(context.Background(), &emptypb.Empty{}); status.Code(err) != codes.Unavailable {
		t.Fatalf("service without calculator err = %v, want Unavailable", err)
	}
}

func TestListDevices(t *testing.T) {
	calc := &fakeCalculator{devices: core.BuiltinDevices()}
	resp, err := NewRangeService(calc, nil).ListDevices(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	defs, err := types.DevicesFromProto(resp)
	if err != nil {
		t.Fatalf("DevicesFromProto: %v", err)
	}
	if len(defs) != len(core.BuiltinDevices()) {
		t.Fatalf("len(devices) = %d, want %d", len(defs), len(core.BuiltinDevices()))
	}
}

func TestRangeServiceOverGRPC(t *testing.T) {
	calc := &fakeCalculator{result: sampleResult()}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RunIDUnaryServerInterceptor(logging.Noop()),
		TracingUnaryServerInterceptor(),
	))
	RegisterRangeServiceServer(server, NewRangeService(calc, nil))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	client := NewRangeServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, requestIDMetadataKey, "run-123")

	resp, err := client.ComputeRange(ctx, types.RangeRequestToProto(types.RangeRequest{From: []string{"DSN3"}}))
	if err != nil {
		t.Fatalf("ComputeRange: %v", err)
	}
	if _, err := types.ResultFromProto(resp); err != nil {
		t.Fatalf("ResultFromProto: %v", err)
	}
	if calc.runID != "run-123" {
		t.Fatalf("run id seen by calculator = %q, want run-123", calc.runID)
	}

	calc.err = core.ErrUnknownDevice
	_, err = client.ComputeRange(ctx, &structpb.Struct{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("ComputeRange err = %v, want InvalidArgument", err)
	}
}
