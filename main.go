// Command fedsync verifies the configured accounts and pulls one page of
// each home timeline, as a smoke test of the protocol adapters. The real
// consumer of these packages is an application embedding them; this
// binary exists so a new adapter or server can be exercised from the
// command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/tkrehbiel/fedsync/social"
	"github.com/tkrehbiel/fedsync/social/storage"
	"github.com/tkrehbiel/fedsync/social/telemetry"
	"github.com/tkrehbiel/fedsync/social/timeline"

	// adapters register themselves at init time
	_ "github.com/tkrehbiel/fedsync/social/activitypub"
	_ "github.com/tkrehbiel/fedsync/social/feed"
	_ "github.com/tkrehbiel/fedsync/social/gnusocial"
	_ "github.com/tkrehbiel/fedsync/social/pumpio"
	_ "github.com/tkrehbiel/fedsync/social/twitter"
)

func readConfig(filename string) social.Config {
	var cfg social.Config
	b, err := os.ReadFile(filename)
	if err != nil {
		telemetry.Error(err, "opening config [%s]", filename)
	} else {
		c, err := social.ReadConfig(b)
		if err != nil {
			telemetry.Error(err, "parsing config [%s]", filename)
		}
		cfg = c
	}

	return cfg
}

// syncAccount verifies one account and downloads one timeline page.
func syncAccount(ctx context.Context, cfg social.AccountConfig, store storage.AccountStore) error {
	data, err := cfg.ConnectionData()
	if err != nil {
		return err
	}
	data = data.LoadCredentials(store)

	conn, err := social.NewConnection(data)
	if err != nil {
		return err
	}

	actor, err := conn.VerifyCredentials(ctx)
	if err != nil {
		return err
	}
	telemetry.Log("account %s verified as %s", cfg.Name, actor.Oid)

	if !conn.HasAPIEndpoint(social.APIHomeTimeline) {
		telemetry.Log("account %s has no home timeline", cfg.Name)
		return nil
	}

	tracker := timeline.NewTracker(time.Time{}, time.Time{}, "")
	page, err := conn.GetTimeline(ctx, social.APIHomeTimeline, tracker.Position(), "", 20, actor)
	if err != nil {
		return err
	}
	for _, act := range page.Items {
		tracker.OnNewActivity(page.Next, act.UpdatedAt)
		telemetry.Trace("  %s %s %s", act.Verb, act.Oid, act.UpdatedAt)
	}
	tracker.OnTimelineDownloaded()
	telemetry.Log("account %s: %d activities, newest %s",
		cfg.Name, len(page.Items), tracker.PreviousItemDate())
	return nil
}

// serveStatus exposes the telemetry counters as JSON for poking at a
// long-running sync from the outside.
func serveStatus(port int) {
	router := mux.NewRouter()
	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"timeline_pages":       telemetry.GetCounter("timeline_pages"),
			"feed_fetches":         telemetry.GetCounter("feed_fetches"),
			"client_registrations": telemetry.GetCounter("client_registrations"),
		})
	}).Methods("GET")
	telemetry.Error(http.ListenAndServe(fmt.Sprintf(":%d", port), router), "status endpoint")
}

func main() {
	configFile := flag.String("config", "config.json", "config json file")
	trace := flag.Bool("trace", false, "verbose trace logging")

	flag.Parse()

	telemetry.Log("starting fedsync")

	cfg := readConfig(*configFile)
	if *trace || cfg.Trace {
		telemetry.SetTrace(true)
	}

	db := storage.NewDatabase(cfg.Database)
	if err := db.Open(); err != nil {
		telemetry.Error(err, "opening account store [%s]", cfg.Database)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Port != 0 {
		go serveStatus(cfg.Port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*5)
	defer cancel()

	failures := 0
	for _, account := range cfg.Accounts {
		if err := syncAccount(ctx, account, db.Account(account.Name)); err != nil {
			telemetry.Error(err, "syncing account %s", account.Name)
			failures++
		}
	}

	telemetry.LogCounters()
	if failures > 0 {
		os.Exit(1)
	}
}
