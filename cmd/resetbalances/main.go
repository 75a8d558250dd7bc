/*
main.go - Balance reset tool

PURPOSE:
  Overwrites every user's leave balance with one fixed mapping. Run at the
  start of a leave year or to repair balances by hand.

COMMAND-LINE FLAGS:
  -config    YAML config path (same file as the server)
  -db        Database driver override
  -balances  Comma-separated CATEGORY=DAYS pairs
             (default ANNUAL=5,CASUAL=5,MEDICAL=5)

EXAMPLES:
  ./resetbalances -config=config.yaml
  ./resetbalances -balances=ANNUAL=12,CASUAL=7,MEDICAL=10
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/warp/leave-manager/config"
	"github.com/warp/leave-manager/leave"
	"github.com/warp/leave-manager/store"
)

const defaultBalances = "ANNUAL=5,CASUAL=5,MEDICAL=5"

func main() {
	configPath := flag.String("config", "", "YAML config path")
	driver := flag.String("db", "", "Database driver: sqlite, mongo or memory (overrides config)")
	raw := flag.String("balances", defaultBalances, "CATEGORY=DAYS pairs, comma separated")
	flag.Parse()

	balance, err := parseBalances(*raw)
	if err != nil {
		log.Fatalf("Invalid -balances: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	n, err := leave.NewService(st).ResetBalances(ctx, balance)
	if err != nil {
		log.Fatalf("Failed to reset balances: %v", err)
	}
	log.Printf("Updated %d users to %s", n, formatBalances(balance))
}

// parseBalances reads "ANNUAL=5,CASUAL=5". Keys are uppercased.
func parseBalances(s string) (leave.Balance, error) {
	b := leave.Balance{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("expected CATEGORY=DAYS, got %q", pair)
		}
		days, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || days < 0 {
			return nil, fmt.Errorf("days for %s must be a non-negative integer, got %q", name, value)
		}
		b.Set(name, days)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("no categories given")
	}
	return b, nil
}

func formatBalances(b leave.Balance) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, b[k])
	}
	return strings.Join(parts, ",")
}
