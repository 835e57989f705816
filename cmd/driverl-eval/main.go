// driverl-eval is a demo trainer loop: it fakes parameter updates on a
// linear policy and runs periodic evaluation rounds through the
// Evaluator, exercising sync, async and remote modes end to end.
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
	rounds := flag.Int("rounds", 5, "number of training/evaluation rounds")
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
	log.Info().Interface("config", cfg).Msg("loaded config")

	progress := &evaluator.TrainerProgress{}

	ev, err := buildEvaluator(cfg, progress)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build evaluator")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	alg := algorithm.NewLinearPolicy(1, 3)

	for i := 0; i < *rounds; i++ {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			shutdown(ev)
			return
		default:
		}

		envSteps := int64(i) * 1000
		progress.Update(int64(i), envSteps)
		log.Info().Int("round", i).Msg("trainer step")

		err := ev.Eval(alg, map[string]int64{evaluator.EnvironmentStepsKey: envSteps})
		if err != nil {
			log.Fatal().Err(err).Msg("evaluation failed")
		}
	}

	if err := ev.WaitComplete(); err != nil {
		log.Fatal().Err(err).Msg("waiting for evaluation to complete")
	}
	shutdown(ev)
}

func shutdown(ev *evaluator.Evaluator) {
	if err := ev.Close(); err != nil {
		log.Err(err).Msg("closing evaluator")
	}
	log.Info().Msg("trainer stopped")
}

func buildEvaluator(cfg *config.TrainerConfig, progress *evaluator.TrainerProgress) (*evaluator.Evaluator, error) {
	if cfg.Remote {
		nc, err := remote.Connect(cfg.NatsURL, "driverl-eval")
		if err != nil {
			return nil, err
		}
		doneQ, err := remote.NewConsumer(nc, remote.DefaultDoneSubject)
		if err != nil {
			return nil, err
		}
		jobQ := remote.NewProducer(nc, remote.DefaultJobSubject)
		return evaluator.NewWithQueues(jobQ, doneQ, progress), nil
	}
	return evaluator.New(cfg, demoFactory(), progress)
}

// demoFactory wires a noisy fixed-length world and a linear policy; it
// stands in for the planning-framework scenario builder.
func demoFactory() evaluator.Factory {
	return evaluator.Factory{
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
}
