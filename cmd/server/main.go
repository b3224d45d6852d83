// Command nodebrain-run loads a NodeBrain source file, compiles every
// statement into the cell graph, drains the reaction loop to quiescence,
// and keeps the process alive long enough for any timer-driven rule
// (time conditions, delay operators) to fire against the wall clock.
//
// The top-level command dispatcher and REPL are out of scope; this
// binary is a minimal script runner good enough to drive the engine
// end-to-end from a file and observe its output.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/trettevik/nodebrain"
)

func main() {
	var (
		file    = flag.String("file", "", "NodeBrain source file to load")
		watch   = flag.Duration("watch", 0, "keep running this long after load, draining timers (0 = exit immediately)")
		verbose = flag.Bool("v", false, "print each statement's resulting term/rule as it is parsed")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: nodebrain-run -file RULES.nb [-watch 30s] [-v]")
		os.Exit(2)
	}

	source, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nodebrain: %v\n", err)
		os.Exit(1)
	}

	cfg := nodebrain.LoadedConfig()
	logger := nodebrain.NewDefaultLogSink()

	engine := nodebrain.New(nodebrain.Options{
		Sink:    &nodebrain.OSCommandSink{Timeout: 10 * time.Second},
		Logger:  logger,
		Horizon: cfg.DefaultHorizon,
	})
	defer engine.Close()

	results, err := engine.Parse(string(source))
	if err != nil {
		logger.Log(nodebrain.LevelError, "parse failed", map[string]any{"error": err.Error(), "file": *file})
		os.Exit(1)
	}

	stats := engine.Tick()
	if *verbose {
		nodebrain.DisplayStats(stats)
	}

	for _, res := range results {
		switch res.Kind {
		case "show":
			nodebrain.DisplayTerm(res.Term)
		case "define":
			if res.Rule != nil && *verbose {
				fmt.Printf("defined rule %s (%s)\n", res.Rule.Name, res.Rule.Kind)
			}
		}
	}

	if *watch <= 0 {
		return
	}

	// This goroutine becomes the engine's single owning thread for the
	// rest of the run: Engine.Run selects on the dispatcher's timer
	// deliveries (marshaled off cron's own goroutine) until stop closes,
	// so every cell mutation from a fired time condition or delay
	// operator happens here rather than on the timer goroutine.
	stop := make(chan struct{})
	var closeStop sync.Once
	stopNow := func() { closeStop.Do(func() { close(stop) }) }

	timeout := time.AfterFunc(*watch, stopNow)
	defer timeout.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		stopNow()
	}()

	engine.Run(stop)
}
