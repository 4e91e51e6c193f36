// Command mamba-sub007 wires one hardcoded example run end to end:
// build a pool, solve a transaction, execute it against a prefix.
// Configuration file loading and CLI argument parsing are explicitly
// out of scope (spec.md §1); a real front end would replace main()'s
// body with flag/config-driven construction of the same pieces.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mamba-org/mamba-sub007/internal/activation"
	"github.com/mamba-org/mamba-sub007/internal/link"
	"github.com/mamba-org/mamba-sub007/internal/logging"
	"github.com/mamba-org/mamba-sub007/internal/pool"
	"github.com/mamba-org/mamba-sub007/internal/solver"
	"github.com/mamba-org/mamba-sub007/internal/txn"
	"github.com/mamba-org/mamba-sub007/internal/unlink"
)

// exampleSource is the PackageSource used by this hardcoded run: it
// just writes a trivial extracted-package tree per requested name.
// A real front end would instead resolve against a populated package
// cache directory fed by the (external) archive-extraction collaborator.
type exampleSource struct{ root string }

func (s *exampleSource) ExtractedDir(pkg link.PackageSpec) (string, error) {
	dir := fmt.Sprintf("%s/%s-%s", s.root, pkg.Name, pkg.Version)
	infoDir := dir + "/info"
	binDir := dir + "/bin"
	if err := os.MkdirAll(infoDir, 0o755); err != nil {
		return "", err
	}
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(infoDir+"/index.json", []byte(`{"noarch": null}`), 0o644); err != nil {
		return "", err
	}
	paths := fmt.Sprintf(`{"paths_version":1,"paths":[{"_path":"bin/%s","path_type":"hardlink"}]}`, pkg.Name)
	if err := os.WriteFile(infoDir+"/paths.json", []byte(paths), 0o644); err != nil {
		return "", err
	}
	if err := os.WriteFile(binDir+"/"+pkg.Name, []byte("#!/bin/sh\necho "+pkg.Name+"\n"), 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	log := logging.New()

	p := pool.New()
	repo := p.AddRepo("defaults")

	addSolvable := func(name, version string, deps ...string) pool.SolvableId {
		sid := p.AddSolvable(repo)
		s := p.Solvable(sid)
		s.Name = p.AddString(name)
		s.EVR = p.AddString(version)
		for _, d := range deps {
			ms, err := pool.ParseMatchSpec(d)
			if err != nil {
				log.WithError(err).Error("parsing hardcoded dependency")
				return pool.InvalidSolvableId
			}
			depID := p.AddDependency(p.AddString(ms.Name), pool.RelGE, p.AddString(ms.Version))
			s.Dependencies = append(s.Dependencies, depID)
		}
		p.EnsureSelfProvide(sid)
		return sid
	}

	addSolvable("numpy", "1.24.0")
	addSolvable("requests", "2.31.0", "numpy>1.0")
	p.CreateWhatprovides()

	requestsDep := p.AddDependency(p.AddString("requests"), pool.RelGE, p.AddString(">2.0"))
	transaction, problems, err := solver.Solve(solver.SolveParameters{
		Pool: p,
		Jobs: []solver.Job{solver.InstallDep(requestsDep)},
	})
	if err != nil {
		log.WithError(err).Error("solve failed")
		return 1
	}
	if len(problems) != 0 {
		log.WithField("problems", len(problems)).Error("unsolvable job set")
		return 1
	}

	prefix, err := os.MkdirTemp("", "mamba-sub007-example-prefix-")
	if err != nil {
		log.WithError(err).Error("creating example prefix")
		return 1
	}
	cacheRoot, err := os.MkdirTemp("", "mamba-sub007-example-cache-")
	if err != nil {
		log.WithError(err).Error("creating example package cache")
		return 1
	}

	linker := link.New(link.TransactionContext{BinDir: "bin"}, activation.NewShellWrapper(), log)
	unlinker := unlink.New(log)
	executor := txn.NewExecutor(prefix, linker, unlinker, &exampleSource{root: cacheRoot}, 30*time.Second, log)

	if err := executor.Run(context.Background(), p, transaction, nil); err != nil {
		log.WithError(err).Error("transaction failed")
		return 1
	}

	log.WithField("prefix", prefix).WithField("steps", len(transaction.Steps)).Info("transaction applied")
	return 0
}
