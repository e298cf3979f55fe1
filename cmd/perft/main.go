// perft is a movegen debugging tool.
// See: https://www.chessprogramming.org/Perft_Results.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/seekerror/logw"

	"github.com/vesperchess/vesper/pkg/chess"
)

var (
	depth    = flag.Int("depth", 4, "Search depth")
	position = flag.String("fen", chess.InitialFEN, "Start position")
	divide   = flag.Bool("divide", false, "Divide counts by initial move")
)

func main() {
	ctx := context.Background()
	flag.Parse()

	pos, err := chess.ParseFEN(*position)
	if err != nil {
		logw.Exitf(ctx, "Invalid fen %q: %v", *position, err)
	}

	for i := 1; i <= *depth; i++ {
		start := time.Now()
		nodes := search(pos, i, *divide && i == *depth, nil)
		duration := time.Since(start)

		fmt.Printf("perft,%v,%v,%v,%v\n", *position, i, nodes, duration.Microseconds())
	}
}

func search(pos *chess.Position, depth int, divide bool, bar *progressbar.ProgressBar) int64 {
	if depth == 0 {
		return 1
	}

	moves := pos.Moves()
	if divide {
		bar = progressbar.Default(int64(len(moves)), "perft")
	}

	var nodes int64
	for _, m := range moves {
		next := pos.Clone()
		next.Play(m)

		count := search(next, depth-1, false, nil)
		if divide {
			fmt.Printf("%v: %v\n", m, count)
			_ = bar.Add(1)
		}
		nodes += count
	}
	return nodes
}
