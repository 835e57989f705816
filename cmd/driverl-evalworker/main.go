// driverl-evalworker runs the evaluation worker as its own OS process,
// serving jobs from the NATS-backed queues. Pair it with driverl-eval
// started with remote: true.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/drivelab/driverl/algorithm"
	"github.com/drivelab/driverl/config"
	"github.com/drivelab/driverl/env"
	"github.com/drivelab/driverl/evaluator"
	"github.com/drivelab/driverl/remote"
)

func main() {
	confFile := flag.String("config", "", "path to the YAML config file")
	name := flag.String("name", "evaluator-worker-1", "worker name for logs")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*confFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.NatsURL == "" {
		log.Fatal().Msg("worker requires nats_url")
	}

	nc, err := remote.Connect(cfg.NatsURL, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to nats")
	}
	defer nc.Close()

	jobQ, err := remote.NewConsumer(nc, remote.DefaultJobSubject)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to job queue")
	}
	defer jobQ.Close()
	doneQ := remote.NewProducer(nc, remote.DefaultDoneSubject)

	factory := evaluator.Factory{
		NewEnv: func(numEnvs int, seed uint64) (env.Environment, error) {
			envs := make([]env.ScalarEnv, numEnvs)
			for i := range envs {
				envs[i] = env.NewNoisyFixedLengthEnv(50, 1.0, 0.1, seed+uint64(i))
			}
			return env.NewParallelEnv(envs)
		},
		NewAlgorithm: func(spec env.Spec) (algorithm.Algorithm, error) {
			return algorithm.NewLinearPolicy(spec.NumElements(), 3), nil
		},
	}

	// An interrupt is turned into a stop job on our own subscription, so
	// the loop below still closes its environment on the way out.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go evaluator.StopOnSignal(jobQ, sigCh)

	// Blocks until a stop job arrives or the loop dies.
	evaluator.RunWorker(*name, jobQ, doneQ, cfg, factory)
}
