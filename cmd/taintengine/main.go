// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command taintengine is the reference host driver: it loads a rules
// file, a queries file, and a targets file describing the resolvable
// callables/attributes/globals of one build, runs model generation
// (§6 generate_models_from_queries), and writes the resulting models
// as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gookit/color"

	"github.com/taintflow/engine/internal/pkg/config"
	"github.com/taintflow/engine/internal/pkg/hostbridge"
	"github.com/taintflow/engine/internal/pkg/scheduler"
)

var (
	targetsFilePath string
	outFilePath     string
	workers         int
)

func init() {
	flag.StringVar(&targetsFilePath, "targets", "targets.json", "path to the host bridge's resolvable-targets file")
	flag.StringVar(&outFilePath, "out", "", "path to write the generated models JSON to (default stdout)")
	flag.IntVar(&workers, "workers", 0, "map-reduce scheduler worker cap (0 means unbounded)")
}

func main() {
	config.FlagSet.VisitAll(func(f *flag.Flag) {
		flag.Var(f.Value, f.Name, f.Usage)
	})
	flag.Parse()

	cfg, err := config.ReadConfig()
	if err != nil {
		log.Fatal(err)
	}
	color.Info.Println(fmt.Sprintf("loaded %d rule(s), %d quer(y/ies)", len(cfg.Rules.Rules), len(cfg.Queries)))

	targets, err := hostbridge.LoadTargets(targetsFilePath)
	if err != nil {
		log.Fatal(err)
	}
	color.Info.Println(fmt.Sprintf("loaded %d target(s)", len(targets.Targets)))

	registry, errs := hostbridge.GenerateModelsFromQueries(context.Background(), scheduler.Policy{Workers: workers}, targets, cfg.Queries)
	for _, e := range errs {
		color.Warn.Println(e.Error())
	}
	if registry == nil {
		color.Danger.Println("model generation aborted")
		os.Exit(1)
	}

	out, err := hostbridge.ModelsToJSON(registry)
	if err != nil {
		log.Fatal(err)
	}

	if outFilePath == "" {
		os.Stdout.Write(out)
		fmt.Println()
	} else if err := os.WriteFile(outFilePath, out, 0o644); err != nil {
		log.Fatal(err)
	}

	color.Success.Println(fmt.Sprintf("generated models for %d target(s)", len(registry.Names())))
}
