// Package gateway exposes the bridge to callers: a gRPC BridgeService and an
// HTTP/JSON facade mirroring the farm platform's API gateway routes.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/pkg/bridgepb"
)

// Service implements BridgeService.
type Service struct {
	bridgepb.UnimplementedBridgeServiceServer

	dispatcher *bridge.Dispatcher
	logger     *zap.Logger
}

func NewService(dispatcher *bridge.Dispatcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{dispatcher: dispatcher, logger: logger}
}

func (s *Service) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	operationID, params, err := bridgepb.InvokeRequestFields(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("authorization"); len(vals) > 0 {
			ctx = bridge.WithBearer(ctx, bearerToken(vals[0]))
		}
	}

	res, err := s.dispatcher.Invoke(ctx, operationID, bridge.Params(params))
	if err != nil {
		kind, msg := classify(err)
		s.logger.Warn("invoke failed", zap.String("operation", operationID), zap.String("kind", string(kind)), zap.Error(err))
		return nil, status.Errorf(grpcCode(kind), "%s: %s", kind, msg)
	}

	value, err := toValue(res.Value)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"operationId": structpb.NewStringValue(res.OperationID),
		"callId":      structpb.NewStringValue(res.CallID),
		"empty":       structpb.NewBoolValue(res.Empty),
		"value":       value,
	}}, nil
}

func (s *Service) ListOperations(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ops := make([]any, 0)
	for _, d := range s.dispatcher.Registry().List() {
		ops = append(ops, describe(d))
	}
	resp, err := structpb.NewStruct(map[string]any{"operations": ops})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode operations: %v", err)
	}
	return resp, nil
}

// describe renders a descriptor for listing. Addresses stay internal.
func describe(d *bridge.OperationDescriptor) map[string]any {
	params := make([]any, 0, len(d.Params))
	for _, p := range d.Params {
		params = append(params, map[string]any{"name": p.Name, "type": string(p.Type)})
	}
	return map[string]any{
		"id":          d.ID,
		"family":      d.Family,
		"description": d.Description,
		"idempotent":  d.Idempotent,
		"params":      params,
	}
}

// toValue converts a domain value through its JSON form.
func toValue(v any) (*structpb.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return structpb.NewValue(generic)
}
