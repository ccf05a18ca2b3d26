package types

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/model"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

//
// RangeService messages are google.protobuf.Struct values. These keep the
// wire shape in one place:
//
//	ComputeRange request:  {"from": ["DSN3"], "to": ["2:HG-55"]}
//	ComputeRange response: the JSON form of core.Result
//	ListDevices response:  {"devices": [<model.DeviceDefinition>...]}
//

// Request field names.
const (
	FieldFrom    = "from"
	FieldTo      = "to"
	FieldDevices = "devices"
)

// RangeRequest is the decoded ComputeRange request.
type RangeRequest struct {
	From []string `json:"from"`
	To   []string `json:"to"`
}

// RangeRequestToProto encodes a request.
func RangeRequestToProto(req RangeRequest) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldFrom: stringList(req.From),
		FieldTo:   stringList(req.To),
	}}
}

// RangeRequestFromProto decodes a request. Missing or null fields mean an
// empty list; unknown fields and non-string items are errors.
func RangeRequestFromProto(s *structpb.Struct) (RangeRequest, error) {
	var req RangeRequest
	if s == nil {
		return req, nil
	}
	keys := make([]string, 0, len(s.GetFields()))
	for k := range s.GetFields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := s.GetFields()[k]
		var dst *[]string
		switch k {
		case FieldFrom:
			dst = &req.From
		case FieldTo:
			dst = &req.To
		default:
			return RangeRequest{}, fmt.Errorf("unknown field %q", k)
		}
		items, err := decodeStringList(k, v)
		if err != nil {
			return RangeRequest{}, err
		}
		*dst = items
	}
	return req, nil
}

// ResultToProto encodes a calculation result.
func ResultToProto(res *core.Result) (*structpb.Struct, error) {
	if res == nil {
		return nil, fmt.Errorf("nil result")
	}
	return toStruct(res)
}

// ResultFromProto decodes a calculation result.
func ResultFromProto(s *structpb.Struct) (*core.Result, error) {
	var res core.Result
	if err := fromStruct(s, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type deviceList struct {
	Devices []model.DeviceDefinition `json:"devices"`
}

// DevicesToProto encodes a device listing.
func DevicesToProto(defs []model.DeviceDefinition) (*structpb.Struct, error) {
	if defs == nil {
		defs = []model.DeviceDefinition{}
	}
	return toStruct(deviceList{Devices: defs})
}

// DevicesFromProto decodes a device listing.
func DevicesFromProto(s *structpb.Struct) ([]model.DeviceDefinition, error) {
	var list deviceList
	if err := fromStruct(s, &list); err != nil {
		return nil, err
	}
	return list.Devices, nil
}

func stringList(items []string) *structpb.Value {
	values := make([]*structpb.Value, 0, len(items))
	for _, it := range items {
		values = append(values, structpb.NewStringValue(it))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func decodeStringList(field string, v *structpb.Value) ([]string, error) {
	switch kind := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		return []string{kind.StringValue}, nil
	case *structpb.Value_ListValue:
		out := make([]string, 0, len(kind.ListValue.GetValues()))
		for i, item := range kind.ListValue.GetValues() {
			sv, ok := item.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", field, i)
			}
			out = append(out, sv.StringValue)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list of strings", field)
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromStruct(s *structpb.Struct, dst any) error {
	if s == nil {
		return fmt.Errorf("nil message")
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
