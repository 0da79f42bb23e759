package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itzg/go-flagsfiller"
	"github.com/sirupsen/logrus"

	"github.com/slp-responder/slp-responder/config"
	"github.com/slp-responder/slp-responder/server"
)

var (
	versionFlag = flag.Bool("version", false, "Output version and exit")
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func showVersion() {
	fmt.Printf("%v, commit %v, built at %v", version, commit, date)
}

func main() {
	var processCfg config.ProcessConfig
	filler := flagsfiller.New()
	if err := filler.Fill(flag.CommandLine, &processCfg); err != nil {
		logrus.WithError(err).Fatal("Unable to process flags")
	}
	flag.Parse()

	if *versionFlag {
		showVersion()
		os.Exit(0)
	}

	if processCfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debug("Debug logs enabled")
	}

	statusCfg, err := config.LoadStatusConfig(processCfg.ConfigFile)
	if err != nil {
		logrus.WithError(err).Fatal("Unable to load status configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())

	srv, err := server.NewServer(ctx, statusCfg, &processCfg)
	if err != nil {
		logrus.WithError(err).Error("Unable to start")
		cancel()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logrus.Info("Stopping")
		cancel()
	}()

	srv.Run()
}
