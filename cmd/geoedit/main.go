package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wgdzlh/geoedit"
	"github.com/wgdzlh/geoedit/log"
	"github.com/wgdzlh/geoedit/server"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

type Options struct {
	ConfigFile  string `short:"c" long:"config"       env:"GEOEDIT_CONFIG"       description:"Path to configuration file" default:"config.yaml"`
	Addr        string `short:"a" long:"addr"         env:"GEOEDIT_ADDR"         description:"Address to listen on"`
	MaxSessions int    `short:"s" long:"max-sessions" env:"GEOEDIT_MAX_SESSIONS" description:"Sessions kept in memory"`
	TmpDir      string `short:"t" long:"tmp-dir"      env:"GEOEDIT_TMP_DIR"      description:"Directory for shapefile scratch files"`
	DbfEncoding string `long:"dbf-encoding"           env:"GEOEDIT_DBF_ENCODING" description:"Encoding of dbf text when the bundle has no .cpg"`
	LogLevel    string `short:"l" long:"log-level"    env:"GEOEDIT_LOG_LEVEL"    description:"Log level (debug, info, warn, error)"`
	LogJSON     bool   `long:"log-json"               env:"GEOEDIT_LOG_JSON"     description:"Log as JSON"`
}

// 命令行参数覆盖配置文件
func (o *Options) apply(cfg *server.Config) {
	if o.Addr != "" {
		cfg.Addr = o.Addr
	}
	if o.MaxSessions > 0 {
		cfg.MaxSessions = o.MaxSessions
	}
	if o.TmpDir != "" {
		cfg.TmpDir = o.TmpDir
	}
	if o.DbfEncoding != "" {
		cfg.DbfEncoding = o.DbfEncoding
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogJSON {
		cfg.Log.JSON = true
	}
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", opts.ConfigFile, err)
		os.Exit(1)
	}
	opts.apply(cfg)

	if err = log.Init(cfg.Log.Level, cfg.Log.JSON); err != nil {
		fmt.Fprintf(os.Stderr, "init log: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	tb := geoedit.NewGdalToolbox(cfg.TmpDir).SetDbfEncoding(cfg.DbfEncoding)
	srv, err := server.New(cfg, tb)
	if err != nil {
		log.Error("create server failed", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = srv.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
