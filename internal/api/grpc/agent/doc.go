// Package agent exposes a Host over gRPC so scenarios can drive a remote
// machine, such as a VM image per provider.
//
// The service is described by hand with google.protobuf.Struct messages, so
// no generated code is needed. Server wraps a Host; Client satisfies the
// same method set and is used by the executor when an agent address is set.
package agent
