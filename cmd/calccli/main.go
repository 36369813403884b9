package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/tcpcalc/internal/client"
	"github.com/danmuck/tcpcalc/internal/logging"
)

func main() {
	var configPath = flag.String("config", "", "path to a TOML client config")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := defaultCLIConfig()
	if *configPath != "" {
		loaded, err := loadCLIConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "calccli: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if flag.NArg() > 0 {
		cfg.Addr = flag.Arg(0)
	}
	if cfg.Addr == "" {
		fmt.Fprintln(os.Stderr, "calccli: no server address; pass host:port or set addr in the config")
		os.Exit(2)
	}

	c, err := client.DialRetry(context.Background(), cfg.Addr, cfg.Backoff, cfg.ConnectAttempts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "calccli: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	if err := client.RunREPL(c, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "calccli: %v\n", err)
		os.Exit(1)
	}
}
