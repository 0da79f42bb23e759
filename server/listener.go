package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	"github.com/pires/go-proxyproto"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

const (
	listenerBindRetryInterval = 1 * time.Second
	listenerBindMaxDuration   = 10 * time.Second
)

// ListenerConfig carries the optional knobs that change how connections
// reach the Connector: a PROXY protocol front door, an ngrok tunnel
// instead of a direct bind, and an accept-rate limiter.
type ListenerConfig struct {
	NgrokToken           string
	ReceiveProxyProtocol bool
	TrustedProxyNets     []*net.IPNet
	ConnectionRateLimit  int
}

// Listener is the single acceptor plus bounded worker pool described by
// the connection-handling model: a connection is never dropped for lack
// of a free worker, submission simply blocks.
type Listener struct {
	connector *Connector
	config    ListenerConfig
	metrics   *ResponderMetrics

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewListener(connector *Connector, metrics *ResponderMetrics, cfg ListenerConfig) *Listener {
	return &Listener{
		connector: connector,
		config:    cfg,
		metrics:   metrics,
	}
}

// Start binds listenAddress and begins accepting connections into a pool
// of maxThreads workers. A second Start call while already running is a
// no-op, matching the idempotent start/stop contract.
func (l *Listener) Start(ctx context.Context, listenAddress string, maxThreads int) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		logrus.Debug("Listener already running, ignoring start request")
		return nil
	}

	ln, err := l.createListener(ctx, listenAddress)
	if err != nil {
		l.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true
	l.done = make(chan struct{})
	l.mu.Unlock()

	go l.acceptLoop(runCtx, ln, maxThreads)

	return nil
}

// Stop clears the running flag and cancels the accept loop's context,
// which closes the listening socket; the accept loop then exits and
// drains the pool before returning.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	if l.cancel != nil {
		l.cancel()
	}
}

// Done is closed once the accept loop has exited and every in-flight
// worker has finished.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

func (l *Listener) createListener(ctx context.Context, listenAddress string) (net.Listener, error) {
	if l.config.NgrokToken != "" {
		tunnel, err := ngrok.Listen(ctx,
			ngrokconfig.TCPEndpoint(),
			ngrok.WithAuthtoken(l.config.NgrokToken),
		)
		if err != nil {
			return nil, errors.Wrap(err, "unable to start ngrok tunnel")
		}
		logrus.WithField("ngrokUrl", tunnel.URL()).Info("Listening for Minecraft client connections via ngrok tunnel")
		return tunnel, nil
	}

	var ln net.Listener
	backoff := retry.NewConstant(listenerBindRetryInterval)
	backoff = retry.WithMaxDuration(listenerBindMaxDuration, backoff)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var dialErr error
		ln, dialErr = net.Listen("tcp", listenAddress)
		if dialErr != nil {
			logrus.WithError(dialErr).WithField("address", listenAddress).Debug("Listener bind failed, retrying")
			return retry.RetryableError(dialErr)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to bind listener")
	}
	logrus.WithField("listenAddress", listenAddress).Info("Listening for Minecraft client connections")

	if l.config.ReceiveProxyProtocol {
		logrus.Info("Using PROXY protocol listener")
		return &proxyproto.Listener{
			Listener: ln,
			Policy:   l.proxyProtoPolicy(),
		}, nil
	}

	return ln, nil
}

func (l *Listener) proxyProtoPolicy() func(upstream net.Addr) (proxyproto.Policy, error) {
	return func(upstream net.Addr) (proxyproto.Policy, error) {
		if len(l.config.TrustedProxyNets) == 0 {
			return proxyproto.USE, nil
		}

		tcpAddr, ok := upstream.(*net.TCPAddr)
		if !ok {
			return proxyproto.IGNORE, nil
		}
		for _, ipNet := range l.config.TrustedProxyNets {
			if ipNet.Contains(tcpAddr.IP) {
				return proxyproto.USE, nil
			}
		}
		return proxyproto.IGNORE, nil
	}
}

func (l *Listener) acceptLoop(ctx context.Context, ln net.Listener, maxThreads int) {
	defer close(l.done)
	defer ln.Close()

	// Closing the listener on cancellation unblocks a pending Accept.
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	// The worker pool bound on concurrent connections is the mandatory
	// backpressure mechanism; the token bucket below is an additional,
	// optional throttle on the rate of new accepts.
	sem := make(chan struct{}, maxThreads)

	var bucket *ratelimit.Bucket
	if l.config.ConnectionRateLimit > 0 {
		bucket = ratelimit.NewBucketWithRate(float64(l.config.ConnectionRateLimit), int64(l.config.ConnectionRateLimit*2))
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if bucket != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(bucket.Take(1)):
			}
			l.metrics.RateLimitAvailable.Set(float64(bucket.Available()))
		}

		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}

		conn, err := ln.Accept()
		if err != nil {
			<-sem
			select {
			case <-ctx.Done():
				return
			default:
				logrus.WithError(err).Error("Failed to accept connection")
				continue
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			l.connector.HandleConnection(ctx, conn)
		}()
	}
}
