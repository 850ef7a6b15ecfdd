// Command rpctcp-calc is a thin sample program wiring the library's config,
// logging, TCP bootstrap, and rpc packages together around the calculator
// handler. Spec §1 names the calculator handler, the TCP bootstrap, and
// signal trapping in sample programs as external collaborators described
// only at their interface to the core library; this command is that
// interface made concrete, the way GandalftheGUI-grove's cmd/groved wires
// flag parsing, signal trapping, and its daemon package together.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-jsonrpc2/tcp/config"
	"github.com/go-jsonrpc2/tcp/log"
	"github.com/go-jsonrpc2/tcp/rpc"
	"github.com/go-jsonrpc2/tcp/tcp"
)

func main() {
	mode := flag.String("mode", "server", "\"server\" or \"client\"")
	configPath := flag.String("config", "", "path to a YAML config file (optional, defaults apply otherwise)")
	addr := flag.String("addr", "", "override server.address / dial target")
	method := flag.String("method", "add", "client mode: method to call")
	a := flag.Float64("a", 0, "client mode: first operand")
	b := flag.Float64("b", 0, "client mode: second operand")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	logger := log.Default()
	framing, err := cfg.FramingMode()
	if err != nil {
		logger.Errorf("invalid config", log.Fields{"err": err})
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("received signal, shutting down", log.Fields{"signal": sig.String()})
		cancel()
	}()

	switch *mode {
	case "server":
		runServer(ctx, cfg, framing, logger)
	case "client":
		runClient(ctx, cfg, framing, logger, *method, *a, *b)
	default:
		fmt.Fprintf(os.Stderr, "unknown -mode %q\n", *mode)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg, _ := config.Load(os.DevNull)
		return cfg, nil
	}
	return config.Load(path)
}

func runServer(ctx context.Context, cfg *config.Config, framing rpc.FramingMode, logger *log.Logger) {
	srv := &tcp.Server{
		Addr:      cfg.Server.Address,
		Backlog:   cfg.Server.Backlog,
		NoDelay:   cfg.Transport.NoDelay,
		ReuseAddr: cfg.Transport.ReuseAddr,
		Logger:    logger,
		Handler: &rpc.Server{
			Framing: framing,
			Timeout: time.Duration(cfg.Transport.Timeout),
			Handler: calculatorHandler,
			Logger:  logger,
		},
	}
	if err := srv.Start(ctx); err != nil {
		logger.Errorf("server start failed", log.Fields{"err": err})
		os.Exit(1)
	}
	logger.Infof("calculator server listening", log.Fields{"addr": cfg.Server.Address})
	<-ctx.Done()
	if err := srv.Stop(); err != nil {
		logger.Errorf("server stop failed", log.Fields{"err": err})
	}
}

func runClient(ctx context.Context, cfg *config.Config, framing rpc.FramingMode, logger *log.Logger, method string, a, b float64) {
	client, err := tcp.Dial(ctx, cfg.Server.Address, framing, time.Duration(cfg.Transport.Timeout), logger)
	if err != nil {
		logger.Errorf("dial failed", log.Fields{"err": err})
		os.Exit(1)
	}
	defer client.Close()

	params := rpc.Dict(map[string]rpc.RPCObject{
		"a": numberOperand(a),
		"b": numberOperand(b),
	})

	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	result, err := client.Call(callCtx, method, params)
	if err != nil {
		logger.Errorf("call failed", log.Fields{"err": err})
		os.Exit(1)
	}
	if !result.OK() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", result.Err.Kind, result.Err.Description)
		os.Exit(1)
	}
	fmt.Println(describe(result.Value))
}

func numberOperand(f float64) rpc.RPCObject {
	if f == float64(int64(f)) {
		return rpc.Integer(int64(f))
	}
	return rpc.Double(f)
}

func describe(v rpc.RPCObject) string {
	if i, ok := v.AsInteger(); ok {
		return fmt.Sprintf("%d", i)
	}
	if f, ok := v.AsDouble(); ok {
		return fmt.Sprintf("%g", f)
	}
	return "none"
}
