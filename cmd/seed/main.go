// Command seed populates a development database with demo data.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"threadline/internal/config"
	"threadline/internal/database"
	"threadline/internal/middleware"
	"threadline/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numThreads := flag.Int("threads", 200, "Number of threads to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	scenario := flag.String("scenario", "", "Load a YAML scenario instead of random data")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	flag.Parse()

	if err := run(*numUsers, *numThreads, *shouldClean, *scenario, *randSeed); err != nil {
		middleware.Logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(numUsers, numThreads int, clean bool, scenario string, randSeed int64) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	factory := seed.FactoryOptions{Seed: randSeed}
	var sum seed.Summary
	if scenario != "" {
		sc, err := seed.LoadScenario(scenario)
		if err != nil {
			return err
		}
		if clean {
			if err := seed.ClearData(db); err != nil {
				return fmt.Errorf("clean: %w", err)
			}
		}
		if sum, err = sc.Apply(db, factory); err != nil {
			return err
		}
	} else {
		sum, err = seed.Seed(db, seed.Options{
			NumUsers:    numUsers,
			NumThreads:  numThreads,
			ShouldClean: clean,
			Factory:     factory,
		})
		if err != nil {
			return err
		}
	}

	fmt.Printf("created %d users, %d follows, %d threads (%d reposts), %d replies, %d likes\n",
		sum.Users, sum.Follows, sum.Threads, sum.Reposts, sum.Replies, sum.Likes)
	fmt.Printf("all seeded users log in with the password %q\n", seed.DefaultPassword)
	return nil
}
