package server

import (
	"net"

	"github.com/MKhiriev/go-groupware-sync/internal/config"
	myGRPC "github.com/MKhiriev/go-groupware-sync/internal/handler/grpc"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"

	"google.golang.org/grpc"
)

type grpcServer struct {
	handler *myGRPC.Handler

	server  *grpc.Server
	address string

	logger *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, cfg config.Server, logger *logger.Logger) *grpcServer {
	return &grpcServer{
		handler: handler,
		server:  grpc.NewServer(),
		address: cfg.GRPCAddress,
		logger:  logger,
	}
}

func (g *grpcServer) RunServer() {
	listener, err := net.Listen("tcp", g.address)
	if err != nil {
		g.logger.Error().Msgf("gRPC server Listen: %v\n", err)
		return
	}

	if err := g.server.Serve(listener); err != nil {
		g.logger.Error().Msgf("gRPC server Serve: %v\n", err)
	}
}

func (g *grpcServer) Shutdown() {
	g.logger.Info().Msg("GRPC server Shutdown")
	g.server.GracefulStop()
}
