// cmd/sentra-semant/main.go drives the analyzer core (components A-G) over
// a JSON-encoded AST fixture: read, analyze, print diagnostics, and
// optionally dump LLVM IR or serve diagnostics over a websocket.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"sentra-semant/internal/analyzer"
	"sentra-semant/internal/ast"
	"sentra-semant/internal/diag"
	"sentra-semant/internal/diagserver"
	"sentra-semant/internal/ir"
	"sentra-semant/internal/llvmexport"
	"sentra-semant/internal/target"
)

func main() {
	dumpLLVM := flag.Bool("dump-llvm", false, "print the analyzed program as LLVM IR text")
	serve := flag.String("serve", "", "if set, host a websocket diagnostic stream on this address (e.g. :8787) instead of exiting")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sentra-semant [flags] <program.json>")
		os.Exit(2)
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("could not read fixture: %v", err)
	}

	var prog ast.Program
	if err := json.Unmarshal(source, &prog); err != nil {
		log.Fatalf("could not parse AST fixture: %v", err)
	}

	collector := diag.NewCollector()
	var sink diag.Sink = collector

	var srv *diagserver.Server
	if *serve != "" {
		srv = diagserver.New(collector)
		sink = srv
		http.Handle("/diagnostics", srv)
		log.Printf("serving diagnostics on ws://%s/diagnostics", *serve)
	}

	result, err := analyzer.Analyze(&prog, target.Reference(), sink)
	if err != nil {
		log.Fatalf("internal invariant violated: %v", err)
	}

	for _, d := range collector.Diagnostics {
		fmt.Fprintln(os.Stderr, d.Error())
	}
	if collector.HasErrors() && *serve == "" {
		os.Exit(1)
	}

	if *dumpLLVM {
		funcs := append([]*ir.Function{result.Main}, result.Symtab.Functions()...)
		m := llvmexport.Module("sentra-semant", funcs)
		fmt.Println(m.String())
	}

	if *serve != "" {
		log.Fatal(http.ListenAndServe(*serve, nil))
	}
}
