// Package rpc is the gRPC contract of the journal service: message types, a
// JSON codec and hand-written client and server bindings. The contract is
// described in api/journal/v1/journal.proto; keep the two in step.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "gokigen.journal.JournalService"

// Full method names.
const (
	MethodRegister      = "/" + ServiceName + "/Register"
	MethodGetSalt       = "/" + ServiceName + "/GetSalt"
	MethodLogin         = "/" + ServiceName + "/Login"
	MethodRefreshToken  = "/" + ServiceName + "/RefreshToken"
	MethodPing          = "/" + ServiceName + "/Ping"
	MethodSaveEntry     = "/" + ServiceName + "/SaveEntry"
	MethodLoadPage      = "/" + ServiceName + "/LoadPage"
	MethodDeleteEntry   = "/" + ServiceName + "/DeleteEntry"
	MethodDeleteAll     = "/" + ServiceName + "/DeleteAll"
	MethodBatchMigrate  = "/" + ServiceName + "/BatchMigrate"
	MethodExportEntries = "/" + ServiceName + "/ExportEntries"
)

// PublicMethods do not require an access token.
var PublicMethods = map[string]bool{
	MethodRegister:     true,
	MethodGetSalt:      true,
	MethodLogin:        true,
	MethodRefreshToken: true,
	MethodPing:         true,
}

type JournalServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	SaveEntry(context.Context, *SaveEntryRequest) (*SaveEntryResponse, error)
	LoadPage(context.Context, *LoadPageRequest) (*LoadPageResponse, error)
	DeleteEntry(context.Context, *DeleteEntryRequest) (*DeleteEntryResponse, error)
	DeleteAll(context.Context, *DeleteAllRequest) (*DeleteAllResponse, error)
	BatchMigrate(context.Context, *BatchMigrateRequest) (*BatchMigrateResponse, error)
	ExportEntries(context.Context, *ExportEntriesRequest) (*ExportEntriesResponse, error)
}

// UnimplementedJournalServiceServer answers every method with
// codes.Unimplemented. Embed it to stay forward compatible.
type UnimplementedJournalServiceServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedJournalServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedJournalServiceServer) GetSalt(context.Context, *GetSaltRequest) (*GetSaltResponse, error) {
	return nil, unimplemented("GetSalt")
}
func (UnimplementedJournalServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedJournalServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, unimplemented("RefreshToken")
}
func (UnimplementedJournalServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, unimplemented("Ping")
}
func (UnimplementedJournalServiceServer) SaveEntry(context.Context, *SaveEntryRequest) (*SaveEntryResponse, error) {
	return nil, unimplemented("SaveEntry")
}
func (UnimplementedJournalServiceServer) LoadPage(context.Context, *LoadPageRequest) (*LoadPageResponse, error) {
	return nil, unimplemented("LoadPage")
}
func (UnimplementedJournalServiceServer) DeleteEntry(context.Context, *DeleteEntryRequest) (*DeleteEntryResponse, error) {
	return nil, unimplemented("DeleteEntry")
}
func (UnimplementedJournalServiceServer) DeleteAll(context.Context, *DeleteAllRequest) (*DeleteAllResponse, error) {
	return nil, unimplemented("DeleteAll")
}
func (UnimplementedJournalServiceServer) BatchMigrate(context.Context, *BatchMigrateRequest) (*BatchMigrateResponse, error) {
	return nil, unimplemented("BatchMigrate")
}
func (UnimplementedJournalServiceServer) ExportEntries(context.Context, *ExportEntriesRequest) (*ExportEntriesResponse, error) {
	return nil, unimplemented("ExportEntries")
}

// handler adapts a typed server method to grpc.MethodHandler.
func handler[Req, Resp any](fullMethod string, call func(JournalServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(JournalServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*Req))
		})
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*JournalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: handler(MethodRegister, JournalServiceServer.Register)},
		{MethodName: "GetSalt", Handler: handler(MethodGetSalt, JournalServiceServer.GetSalt)},
		{MethodName: "Login", Handler: handler(MethodLogin, JournalServiceServer.Login)},
		{MethodName: "RefreshToken", Handler: handler(MethodRefreshToken, JournalServiceServer.RefreshToken)},
		{MethodName: "Ping", Handler: handler(MethodPing, JournalServiceServer.Ping)},
		{MethodName: "SaveEntry", Handler: handler(MethodSaveEntry, JournalServiceServer.SaveEntry)},
		{MethodName: "LoadPage", Handler: handler(MethodLoadPage, JournalServiceServer.LoadPage)},
		{MethodName: "DeleteEntry", Handler: handler(MethodDeleteEntry, JournalServiceServer.DeleteEntry)},
		{MethodName: "DeleteAll", Handler: handler(MethodDeleteAll, JournalServiceServer.DeleteAll)},
		{MethodName: "BatchMigrate", Handler: handler(MethodBatchMigrate, JournalServiceServer.BatchMigrate)},
		{MethodName: "ExportEntries", Handler: handler(MethodExportEntries, JournalServiceServer.ExportEntries)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gokigen/journal",
}

func RegisterJournalServiceServer(s grpc.ServiceRegistrar, srv JournalServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type JournalServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	GetSalt(ctx context.Context, in *GetSaltRequest, opts ...grpc.CallOption) (*GetSaltResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	SaveEntry(ctx context.Context, in *SaveEntryRequest, opts ...grpc.CallOption) (*SaveEntryResponse, error)
	LoadPage(ctx context.Context, in *LoadPageRequest, opts ...grpc.CallOption) (*LoadPageResponse, error)
	DeleteEntry(ctx context.Context, in *DeleteEntryRequest, opts ...grpc.CallOption) (*DeleteEntryResponse, error)
	DeleteAll(ctx context.Context, in *DeleteAllRequest, opts ...grpc.CallOption) (*DeleteAllResponse, error)
	BatchMigrate(ctx context.Context, in *BatchMigrateRequest, opts ...grpc.CallOption) (*BatchMigrateResponse, error)
	ExportEntries(ctx context.Context, in *ExportEntriesRequest, opts ...grpc.CallOption) (*ExportEntriesResponse, error)
}

type journalServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewJournalServiceClient returns a client that always speaks the JSON codec.
func NewJournalServiceClient(cc grpc.ClientConnInterface) JournalServiceClient {
	return &journalServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *journalServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}
func (c *journalServiceClient) GetSalt(ctx context.Context, in *GetSaltRequest, opts ...grpc.CallOption) (*GetSaltResponse, error) {
	return invoke[GetSaltResponse](ctx, c.cc, MethodGetSalt, in, opts)
}
func (c *journalServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}
func (c *journalServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}
func (c *journalServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
func (c *journalServiceClient) SaveEntry(ctx context.Context, in *SaveEntryRequest, opts ...grpc.CallOption) (*SaveEntryResponse, error) {
	return invoke[SaveEntryResponse](ctx, c.cc, MethodSaveEntry, in, opts)
}
func (c *journalServiceClient) LoadPage(ctx context.Context, in *LoadPageRequest, opts ...grpc.CallOption) (*LoadPageResponse, error) {
	return invoke[LoadPageResponse](ctx, c.cc, MethodLoadPage, in, opts)
}
func (c *journalServiceClient) DeleteEntry(ctx context.Context, in *DeleteEntryRequest, opts ...grpc.CallOption) (*DeleteEntryResponse, error) {
	return invoke[DeleteEntryResponse](ctx, c.cc, MethodDeleteEntry, in, opts)
}
func (c *journalServiceClient) DeleteAll(ctx context.Context, in *DeleteAllRequest, opts ...grpc.CallOption) (*DeleteAllResponse, error) {
	return invoke[DeleteAllResponse](ctx, c.cc, MethodDeleteAll, in, opts)
}
func (c *journalServiceClient) BatchMigrate(ctx context.Context, in *BatchMigrateRequest, opts ...grpc.CallOption) (*BatchMigrateResponse, error) {
	return invoke[BatchMigrateResponse](ctx, c.cc, MethodBatchMigrate, in, opts)
}
func (c *journalServiceClient) ExportEntries(ctx context.Context, in *ExportEntriesRequest, opts ...grpc.CallOption) (*ExportEntriesResponse, error) {
	return invoke[ExportEntriesResponse](ctx, c.cc, MethodExportEntries, in, opts)
}
