package ledgerv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "ledger.v1.LedgerService"

const (
	LedgerService_AdjustBalance_FullMethodName     = "/ledger.v1.LedgerService/AdjustBalance"
	LedgerService_Transfer_FullMethodName          = "/ledger.v1.LedgerService/Transfer"
	LedgerService_GetBalance_FullMethodName        = "/ledger.v1.LedgerService/GetBalance"
	LedgerService_ListTransactions_FullMethodName  = "/ledger.v1.LedgerService/ListTransactions"
	LedgerService_GetReceipt_FullMethodName        = "/ledger.v1.LedgerService/GetReceipt"
	LedgerService_GetAccountSummary_FullMethodName = "/ledger.v1.LedgerService/GetAccountSummary"
	LedgerService_LookupRecipient_FullMethodName   = "/ledger.v1.LedgerService/LookupRecipient"
)

// LedgerServiceServer is the server API for ledger.v1.LedgerService
type LedgerServiceServer interface {
	AdjustBalance(context.Context, *AdjustBalanceRequest) (*AdjustBalanceResponse, error)
	Transfer(context.Context, *TransferRequest) (*TransferResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
	GetReceipt(context.Context, *GetReceiptRequest) (*GetReceiptResponse, error)
	GetAccountSummary(context.Context, *GetAccountSummaryRequest) (*GetAccountSummaryResponse, error)
	LookupRecipient(context.Context, *LookupRecipientRequest) (*LookupRecipientResponse, error)
	mustEmbedUnimplementedLedgerServiceServer()
}

// UnimplementedLedgerServiceServer must be embedded by every implementation
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) AdjustBalance(context.Context, *AdjustBalanceRequest) (*AdjustBalanceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AdjustBalance not implemented")
}
func (UnimplementedLedgerServiceServer) Transfer(context.Context, *TransferRequest) (*TransferResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Transfer not implemented")
}
func (UnimplementedLedgerServiceServer) GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBalance not implemented")
}
func (UnimplementedLedgerServiceServer) ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListTransactions not implemented")
}
func (UnimplementedLedgerServiceServer) GetReceipt(context.Context, *GetReceiptRequest) (*GetReceiptResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetReceipt not implemented")
}
func (UnimplementedLedgerServiceServer) GetAccountSummary(context.Context, *GetAccountSummaryRequest) (*GetAccountSummaryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetAccountSummary not implemented")
}
func (UnimplementedLedgerServiceServer) LookupRecipient(context.Context, *LookupRecipientRequest) (*LookupRecipientResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method LookupRecipient not implemented")
}
func (UnimplementedLedgerServiceServer) mustEmbedUnimplementedLedgerServiceServer() {}

// RegisterLedgerServiceServer attaches srv to the gRPC server
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

// unary adapts a typed method to a grpc.MethodHandler
func unary[Req any, Resp any](
	fullMethod string,
	call func(LedgerServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerService_ServiceDesc is the grpc.ServiceDesc for ledger.v1.LedgerService
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AdjustBalance",
			Handler:    unary(LedgerService_AdjustBalance_FullMethodName, LedgerServiceServer.AdjustBalance),
		},
		{
			MethodName: "Transfer",
			Handler:    unary(LedgerService_Transfer_FullMethodName, LedgerServiceServer.Transfer),
		},
		{
			MethodName: "GetBalance",
			Handler:    unary(LedgerService_GetBalance_FullMethodName, LedgerServiceServer.GetBalance),
		},
		{
			MethodName: "ListTransactions",
			Handler:    unary(LedgerService_ListTransactions_FullMethodName, LedgerServiceServer.ListTransactions),
		},
		{
			MethodName: "GetReceipt",
			Handler:    unary(LedgerService_GetReceipt_FullMethodName, LedgerServiceServer.GetReceipt),
		},
		{
			MethodName: "GetAccountSummary",
			Handler:    unary(LedgerService_GetAccountSummary_FullMethodName, LedgerServiceServer.GetAccountSummary),
		},
		{
			MethodName: "LookupRecipient",
			Handler:    unary(LedgerService_LookupRecipient_FullMethodName, LedgerServiceServer.LookupRecipient),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger.proto",
}

// LedgerServiceClient is the client API for ledger.v1.LedgerService
type LedgerServiceClient interface {
	AdjustBalance(ctx context.Context, in *AdjustBalanceRequest, opts ...grpc.CallOption) (*AdjustBalanceResponse, error)
	Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*TransferResponse, error)
	GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error)
	ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error)
	GetReceipt(ctx context.Context, in *GetReceiptRequest, opts ...grpc.CallOption) (*GetReceiptResponse, error)
	GetAccountSummary(ctx context.Context, in *GetAccountSummaryRequest, opts ...grpc.CallOption) (*GetAccountSummaryResponse, error)
	LookupRecipient(ctx context.Context, in *LookupRecipientRequest, opts ...grpc.CallOption) (*LookupRecipientResponse, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient returns a client that speaks the JSON codec
func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) AdjustBalance(ctx context.Context, in *AdjustBalanceRequest, opts ...grpc.CallOption) (*AdjustBalanceResponse, error) {
	return invoke[AdjustBalanceResponse](ctx, c.cc, LedgerService_AdjustBalance_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*TransferResponse, error) {
	return invoke[TransferResponse](ctx, c.cc, LedgerService_Transfer_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	return invoke[GetBalanceResponse](ctx, c.cc, LedgerService_GetBalance_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error) {
	return invoke[ListTransactionsResponse](ctx, c.cc, LedgerService_ListTransactions_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) GetReceipt(ctx context.Context, in *GetReceiptRequest, opts ...grpc.CallOption) (*GetReceiptResponse, error) {
	return invoke[GetReceiptResponse](ctx, c.cc, LedgerService_GetReceipt_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) GetAccountSummary(ctx context.Context, in *GetAccountSummaryRequest, opts ...grpc.CallOption) (*GetAccountSummaryResponse, error) {
	return invoke[GetAccountSummaryResponse](ctx, c.cc, LedgerService_GetAccountSummary_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) LookupRecipient(ctx context.Context, in *LookupRecipientRequest, opts ...grpc.CallOption) (*LookupRecipientResponse, error) {
	return invoke[LookupRecipientResponse](ctx, c.cc, LedgerService_LookupRecipient_FullMethodName, in, opts)
}
