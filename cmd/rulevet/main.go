// Command rulevet runs the rulecheck rules as go/analysis analyzers.
//
//	rulevet ./...
//	go vet -vettool=$(which rulevet) ./...
//
// Rules are selected by the same configuration file rulecheck reads
// (.rulecheck.yml in the working directory, or RULECHECK_CONFIG).
package main

import (
	"log"
	"os"

	"golang.org/x/tools/go/analysis/multichecker"

	"rulecheck/internal/config"
	"rulecheck/internal/host/goanalysis"
	"rulecheck/internal/rules"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("RULECHECK_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	analyzers, err := goanalysis.Analyzers(rules.Default(cfg))
	if err != nil {
		log.Fatal(err)
	}
	multichecker.Main(analyzers...)
}
