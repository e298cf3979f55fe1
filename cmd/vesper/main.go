package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/seekerror/logw"

	"github.com/vesperchess/vesper/pkg/engine"
	"github.com/vesperchess/vesper/pkg/engine/uci"
)

var (
	hash    = flag.Uint("hash", engine.DefaultHash, "Transposition table size in MiB")
	threads = flag.Uint("threads", engine.DefaultThreads, "Search worker pool size")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: vesper [options]

VESPER is a UCI chess engine with an NNUE evaluator.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	e := engine.New(ctx, "vesper", "vesperchess", engine.Options{
		Hash:    *hash,
		Threads: *threads,
	})

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}
