package agent

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// Message field names.
const (
	fieldCommand  = "command"
	fieldAdmin    = "admin"
	fieldOutput   = "output"
	fieldError    = "error"
	fieldProvider = "provider"
	fieldVersion  = "version"
	fieldDir      = "dir"
	fieldFiles    = "files"
	fieldNames    = "names"
)

func stringsValue(values []string) *structpb.Value {
	list := make([]*structpb.Value, 0, len(values))
	for _, v := range values {
		list = append(list, structpb.NewStringValue(v))
	}

	return structpb.NewListValue(&structpb.ListValue{Values: list})
}

func stringsField(s *structpb.Struct, name string) []string {
	values := s.GetFields()[name].GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStringValue())
	}

	return out
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func boolField(s *structpb.Struct, name string) bool {
	return s.GetFields()[name].GetBoolValue()
}

func message(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}
