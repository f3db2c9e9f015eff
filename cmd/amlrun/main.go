// amlrun is a CLI harness for the AML execution engine: it loads a
// hex-encoded method body, binds it into a bare namespace fixture,
// and runs it, printing the resulting Object.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amlvm/engine/internal/config"
	"github.com/amlvm/engine/internal/hostlog"
	"github.com/amlvm/engine/internal/trace"
	"github.com/amlvm/engine/internal/watchdog"
	"github.com/amlvm/engine/namespace"
	"github.com/amlvm/engine/vm"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose (debug-level) logging")
	methodPath := flag.String("method", "\\MAIN", "namespace path to bind and run the body under")
	argc := flag.Int("argc", 0, "declared argument count for the method")
	timeoutMS := flag.Int("timeout-ms", 0, "abandon the activation after this many milliseconds (0 = no watchdog)")
	tracePath := flag.String("trace-db", "", "SQLite path to record an execution trace (empty = disabled)")
	configDir := flag.String("config-dir", ".", "directory to look for amlvm.toml in")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: amlrun [options] <hex-bytes>\n\n")
		fmt.Fprintf(os.Stderr, "Runs a hex-encoded AML method body against a bare namespace.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  amlrun \"a4 0a2a\"        # RETURN_OP BYTEPREFIX 0x2a -> Integer(42 / 0x2a)\n")
	}
	flag.Parse()

	hostlog.SetVerbose(*verbose)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	body, err := hex.DecodeString(strings.ReplaceAll(flag.Arg(0), " ", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "amlrun: invalid hex body: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "amlrun: %v\n", err)
		os.Exit(1)
	}

	var traceLog *trace.Log
	if *tracePath != "" {
		traceLog, err = trace.Open(*tracePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "amlrun: %v\n", err)
			os.Exit(1)
		}
		defer traceLog.Close()
	}

	tree := namespace.NewTree()
	method := &vm.Method{Path: *methodPath, Body: body, Argc: *argc}
	tree.DeclareMethod(method.Path, method.Body, method.Argc)

	engine := &vm.Engine{Config: cfg.EngineConfig()}

	run := func(onActivation func(*vm.Activation)) (vm.Object, error) {
		tree.Lock()
		defer tree.Unlock()
		return engine.ExecMethodTracked(tree, method, nil, onActivation)
	}

	var result vm.Object
	if *timeoutMS > 0 {
		r := watchdog.Run(context.Background(), time.Duration(*timeoutMS)*time.Millisecond, traceLog, method, run)
		if r.Abandoned {
			fmt.Fprintf(os.Stderr, "amlrun: %v (trace id %s)\n", r.Err, r.TraceID)
			os.Exit(1)
		}
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "amlrun: %v\n", r.Err)
			os.Exit(1)
		}
		result = r.Value
	} else {
		start := time.Now()
		result, err = run(nil)
		if traceLog != nil {
			outcome := trace.OutcomeOK
			if err != nil {
				outcome = trace.OutcomeFatal
			}
			_, _ = traceLog.Record(method.Path, time.Since(start).Nanoseconds(), outcome, nil)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "amlrun: %v\n", err)
			os.Exit(1)
		}
	}

	printObject(result)
}

func printObject(o vm.Object) {
	switch o.Kind() {
	case vm.KindInteger:
		fmt.Printf("Integer(%d / 0x%s)\n", o.Integer(), strconv.FormatUint(o.Integer(), 16))
	case vm.KindString:
		fmt.Printf("String(%q)\n", string(o.Bytes()))
	case vm.KindBuffer:
		fmt.Printf("Buffer(% x)\n", o.Bytes())
	case vm.KindPackage:
		fmt.Printf("Package(%d entries)\n", len(o.Package()))
	}
}
