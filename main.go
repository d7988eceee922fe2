package main

import (
	"log/slog"
	"os"

	"fractpic/netgraph"
	"fractpic/parallel"
	"fractpic/roundtrip"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Jobs    int  `help:"Pictures processed concurrently, 0 for all CPUs" default:"1"`
	Verbose bool `help:"Log every block" short:"v" default:"false"`

	Roundtrip roundtrip.CLICmd `cmd:"" help:"Encode, decode and evaluate every picture of a folder"`
	Network   netgraph.CLICmd  `cmd:"" help:"Link similar blocks of every picture of a folder into a network"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("fractpic"),
		kong.Description("Fractal image codec"),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	pool := parallel.Start(cli.Jobs)
	err := kctx.Run(pool.Do, pool.Wait)
	kctx.FatalIfErrorf(err)
}
