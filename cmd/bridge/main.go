package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/loader-bridge/bridge"
	"github.com/wippyai/loader-bridge/host"
	"github.com/wippyai/loader-bridge/manifest"
	"github.com/wippyai/loader-bridge/wasmloader"
)

func main() {
	var (
		manifestFile = flag.String("manifest", "", "Path to HCL registration manifest")
		wasmFile     = flag.String("wasm", "", "Module file, resolved against the execution paths")
		paths        = flag.String("paths", "", "Execution paths (comma-separated), overrides the manifest")
		funcName     = flag.String("func", "", "Function to call")
		args         = flag.String("args", "", "Arguments (comma-separated)")
		list         = flag.Bool("list", false, "List registered types and functions and exit")
		asJSON       = flag.Bool("json", false, "Print the listing as JSON")
		schema       = flag.Bool("schema", false, "Print the JSON schema of the listing and exit")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
		verbose      = flag.Bool("v", false, "Log registration steps")
	)
	flag.Parse()

	if *schema {
		if err := printJSON(bridge.SnapshotSchema()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *manifestFile == "" && *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bridge -manifest <file.hcl> [-list [-json]] [-func name -args a,b]")
		fmt.Fprintln(os.Stderr, "       bridge -wasm <file.wasm> [-paths dir,...] [-list]")
		fmt.Fprintln(os.Stderr, "       bridge -manifest <file.hcl> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       bridge -schema")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		host.SetLogger(logger.Named("host"))
		bridge.SetLogger(logger.Named("bridge"))
		manifest.SetLogger(logger.Named("manifest"))
		wasmloader.SetLogger(logger.Named("wasm"))
	}

	opts := options{manifest: *manifestFile, wasm: *wasmFile, paths: *paths, verbose: *verbose}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts, *funcName, *args, *list, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, funcName, argStr string, listOnly, asJSON bool) error {
	ctx := context.Background()

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	snap, err := s.snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if asJSON {
		if err := printJSON(snap); err != nil {
			return err
		}
	} else {
		printSnapshot(snap, s.state.ExecutionPaths())
	}

	if listOnly {
		return nil
	}

	if funcName == "" {
		if len(snap.Functions) != 1 {
			fmt.Printf("\nUse -func to specify a function to call.\n")
			return nil
		}
		funcName = snap.Functions[0].Name
	}

	var callArgs []string
	if argStr != "" {
		callArgs = strings.Split(argStr, ",")
		for i := range callArgs {
			callArgs[i] = strings.TrimSpace(callArgs[i])
		}
	}

	fmt.Printf("\nCalling %s(%s)...\n", funcName, strings.Join(callArgs, ", "))
	result, err := s.call(ctx, funcName, callArgs)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	if len(result) == 0 {
		fmt.Println("Result: (none)")
		return nil
	}
	fmt.Printf("Result: %s\n", strings.Join(result, ", "))
	return nil
}

func printSnapshot(snap *bridge.Snapshot, paths []string) {
	fmt.Printf("Loader: %s\n", snap.Loader)
	fmt.Printf("Execution paths: %s\n", strings.Join(paths, ", "))

	fmt.Printf("\nTypes:\n")
	for _, t := range snap.Types {
		fmt.Printf("  %-12s %s (%d)\n", t.Name, t.Kind, t.KindID)
	}

	fmt.Printf("\nFunctions:\n")
	for _, f := range snap.Functions {
		fmt.Printf("  %s\n", f)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
