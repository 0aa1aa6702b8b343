// Command reactor-echo is a minimal TCP echo server built on the reactor's
// Processor: every byte read from a connection is queued straight back for
// that same connection and flushed.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/skiff-net/reactor"
	"github.com/skiff-net/reactor/internal/channelio"
	"github.com/skiff-net/reactor/internal/logging"
)

// echoDispatcher bounces every CHANNEL_READ payload back to its own
// channel. proc is set once NewProcessor has constructed it, since the
// dispatcher and the processor that drives it are mutually referential.
type echoDispatcher struct {
	proc   *reactor.Processor
	logger *logging.Logger
}

func (d *echoDispatcher) Dispatch(ev reactor.Event) {
	switch ev.Type {
	case reactor.EventRead:
		ch, ok := ev.Channel.(*reactor.Channel)
		if !ok {
			return
		}
		ch.EnqueueWrite(ev.Payload)
		if err := d.proc.Flush(ch); err != nil {
			d.logger.Warn("flush failed", "channel", ch.ID(), "error", err)
		}
	case reactor.EventThrown:
		d.logger.Warn("channel error", "channel", ev.Channel.ID(), "error", ev.Err)
	case reactor.EventClosed:
		d.logger.Debug("channel closed", "channel", ev.Channel.ID())
	}
}

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:9000", "address to listen on")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Error("listen failed", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer ln.Close()

	dispatcher := &echoDispatcher{logger: logger}
	proc := reactor.NewProcessor(reactor.Config{
		Protocol:    reactor.TCP,
		Dispatcher:  dispatcher,
		Logger:      logger,
		IdleTimeout: 60_000, // milliseconds
	})
	dispatcher.proc = proc

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		proc.Shutdown()
		ln.Close()
	}()

	logger.Info("echo server listening", "addr", ln.Addr().String())
	fmt.Printf("listening on %s\n", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Info("listener closed", "error", err)
			return
		}
		acceptConn(proc, logger, conn)
	}
}

func acceptConn(proc *reactor.Processor, logger *logging.Logger, conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return
	}

	fd, err := takeOverFD(tcpConn)
	if err != nil {
		logger.Warn("failed to take over connection fd", "error", err)
		conn.Close()
		return
	}
	local, remote := tcpConn.LocalAddr(), tcpConn.RemoteAddr()
	conn.Close() // releases net's own copy of the fd, not our duplicate

	ops := channelio.NewTCP(fd, local, remote)
	ch := reactor.NewChannel(ops, local, 0)
	if err := proc.Add(ch); err != nil {
		logger.Warn("failed to register channel", "error", err)
		ops.Close()
		return
	}
	logger.Debug("accepted connection", "remote", remote.String())
}

// takeOverFD duplicates conn's underlying file descriptor, puts it in
// non-blocking mode, and detaches it from the os.File's finalizer so our
// ChannelOps becomes the sole owner of its lifetime.
func takeOverFD(conn *net.TCPConn) (int, error) {
	file, err := conn.File()
	if err != nil {
		return 0, err
	}
	fd := int(file.Fd())
	runtime.SetFinalizer(file, nil)

	if err := channelio.SetNonblock(fd); err != nil {
		unix.Close(fd)
		return 0, err
	}
	return fd, nil
}
