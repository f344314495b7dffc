// Command pong-term plays Pong for two people at one terminal.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/playmatatu/arcade/internal/config"
	"github.com/playmatatu/arcade/internal/game"
	"github.com/playmatatu/arcade/internal/logger"
	"github.com/playmatatu/arcade/internal/term"
)

func main() {
	cfg := config.Load()

	// The terminal belongs to termbox; logs go to a file only.
	cfg.Log.Output = "file"
	if err := logger.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("term")

	sim, err := game.NewWithOptions(cfg.Court(), cfg.GameOptions())
	if err != nil {
		log.Fatal("invalid game configuration", zap.Error(err))
	}

	screen, err := term.Init()
	if err != nil {
		log.Fatal("cannot start", zap.Error(err))
	}
	defer term.Close()

	queue := game.NewCommandQueue(cfg.InputQueueSize)
	queue.Push(game.Command{Kind: game.CmdConnect, Paddle: 0})
	queue.Push(game.Command{Kind: game.CmdConnect, Paddle: 1})
	input := game.NewInputAdapter(game.DefaultKeyMap(), queue)

	task, err := game.NewFrameTask(sim, queue, term.NewSurface(screen, sim.Constraints), nil)
	if err != nil {
		log.Fatal("cannot start", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go term.PollKeys(input, cancel)

	sched := game.NewFrameScheduler(cfg.FrameRate)
	sched.Schedule(task)
	log.Info("game started", zap.Duration("frame_interval", sched.Interval()))

	err = sched.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("frame loop ended", zap.Error(err))
	}
	if err := task.Err(); err != nil {
		log.Error("terminal failed", zap.Error(err))
	}

	snap := sim.Snapshot()
	log.Info("game over", zap.Int("left", snap.Scores[0].Value), zap.Int("right", snap.Scores[1].Value))
}
