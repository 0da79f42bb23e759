package server

import (
	"context"
	"net"
	"os"
	"runtime/pprof"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/slp-responder/slp-responder/config"
	"github.com/slp-responder/slp-responder/status"
)

// Server wires together the status store, connector, listener and admin
// API from a loaded config.StatusConfig and config.ProcessConfig.
type Server struct {
	ctx           context.Context
	process       *config.ProcessConfig
	listenAddress string
	listener      *Listener
	store         *status.Store

	cpuProfileFile *os.File
}

func NewServer(ctx context.Context, statusCfg config.StatusConfig, processCfg *config.ProcessConfig) (*Server, error) {
	var cpuProfileFile *os.File
	if processCfg.CpuProfile != "" {
		var err error
		cpuProfileFile, err = os.Create(processCfg.CpuProfile)
		if err != nil {
			return nil, errors.Wrap(err, "could not create cpu profile file")
		}
		logrus.WithField("file", processCfg.CpuProfile).Info("Starting cpu profiling")
		if err := pprof.StartCPUProfile(cpuProfileFile); err != nil {
			return nil, errors.Wrap(err, "could not start cpu profile")
		}
	}

	store, err := status.NewStore(statusCfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not build initial status snapshot")
	}

	if processCfg.WatchConfig {
		err := config.WatchStatusConfig(ctx, processCfg.ConfigFile, func(cfg config.StatusConfig) {
			store.Reload(cfg)
		})
		if err != nil {
			return nil, errors.Wrap(err, "could not watch status config file")
		}
	}

	metricsBuilder := NewMetricsBuilder(processCfg.MetricsBackend, &processCfg.MetricsBackendConfig)
	if err := metricsBuilder.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "could not start metrics reporter")
	}
	metrics := metricsBuilder.BuildResponderMetrics()

	connector := NewConnector(metrics, store)

	clientFilter, err := NewClientFilter(processCfg.ClientsToAllow, processCfg.ClientsToDeny)
	if err != nil {
		return nil, errors.Wrap(err, "could not create client filter")
	}
	connector.SetClientFilter(clientFilter)

	if processCfg.Webhook.Url != "" {
		logrus.
			WithField("url", processCfg.Webhook.Url).
			WithField("require-user", processCfg.Webhook.RequireUser).
			Info("Using webhook for kicked-login notifications")
		connector.SetLoginNotifier(NewWebhookNotifier(processCfg.Webhook.Url, processCfg.Webhook.RequireUser))
	}

	trustedIPNets := make([]*net.IPNet, 0, len(processCfg.TrustedProxies))
	for _, cidr := range processCfg.TrustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse trusted proxy CIDR block %q", cidr)
		}
		trustedIPNets = append(trustedIPNets, ipNet)
	}

	listener := NewListener(connector, metrics, ListenerConfig{
		NgrokToken:           processCfg.NgrokToken,
		ReceiveProxyProtocol: processCfg.ReceiveProxyProtocol,
		TrustedProxyNets:     trustedIPNets,
		ConnectionRateLimit:  processCfg.ConnectionRateLimit,
	})

	if processCfg.ApiBinding != "" {
		NewApiServer(store).Start(processCfg.ApiBinding)
	}

	return &Server{
		ctx:            ctx,
		process:        processCfg,
		listenAddress:  net.JoinHostPort(statusCfg.IP, strconv.Itoa(int(statusCfg.Port))),
		listener:       listener,
		store:          store,
		cpuProfileFile: cpuProfileFile,
	}, nil
}

// Run starts accepting connections and blocks until the context is
// cancelled, then waits for in-flight connections to drain. If the
// listener cannot be started, the error is logged and the process exits
// with status 1.
func (s *Server) Run() {
	defer s.stopProfiling()

	if err := s.listener.Start(s.ctx, s.listenAddress, s.process.MaxThreads); err != nil {
		logrus.WithError(err).Error("Could not start accepting connections")
		s.stopProfiling()
		os.Exit(1)
	}

	<-s.ctx.Done()
	logrus.Info("Stopping. Waiting for connections to complete...")
	s.listener.Stop()
	<-s.listener.Done()
	logrus.Info("Stopped")
}

func (s *Server) stopProfiling() {
	if s.cpuProfileFile == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = s.cpuProfileFile.Close()
}
