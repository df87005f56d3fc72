// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command ddosentineld is the detection-and-reaction daemon: it binds an
// NFQUEUE, runs packets through the flow cache / IP-state table / trigger
// engine pipeline, and installs/revokes mitigations through the
// configured action providers.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/action/logaction"
	"grimm.is/ddosentinel/internal/action/metricsaction"
	"grimm.is/ddosentinel/internal/bantrie"
	"grimm.is/ddosentinel/internal/config"
	"grimm.is/ddosentinel/internal/flowcache"
	"grimm.is/ddosentinel/internal/hooks"
	"grimm.is/ddosentinel/internal/ipstate"
	"grimm.is/ddosentinel/internal/logging"
	"grimm.is/ddosentinel/internal/packet"
	"grimm.is/ddosentinel/internal/scheduler"
	"grimm.is/ddosentinel/internal/source"
	"grimm.is/ddosentinel/internal/trigger"
)

var logger = logging.WithComponent("ddosentineld")

func main() {
	configPath := flag.String("config", "/etc/ddosentinel/ddosentinel.hcl", "path to the HCL configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	actions := action.New()
	logaction.Register(actions)
	metricsaction.Register(actions)
	registerPlatformActions(actions)

	hookReg := hooks.New()
	trie := bantrie.New()
	defaultExpiry := time.Duration(cfg.Expiry) * time.Second

	// loop is constructed before the engine so expiry timers can be armed
	// through loop.AfterFunc: every timer callback then runs serialized on
	// the single loop goroutine alongside packet processing, matching
	// spec.md §5's single-threaded cooperative model instead of firing on
	// its own goroutine via the package-default time.AfterFunc.
	loop := scheduler.New()
	engine := trigger.New(defaultExpiry, trie, hookReg, trigger.WithScheduler(loop.AfterFunc))

	if err := config.Compile(cfg, engine, actions); err != nil {
		return err
	}

	ipTable := ipstate.New(hookReg)
	flows := flowcache.New()

	pipeline := func(info packet.Info) {
		// Non-IPv4 frames leave Info's IP fields zeroed; forwarding them
		// would merge every ARP/IPv6/etc. frame into one bogus flow and
		// IP-state record keyed on the zero address (spec.md §4.1).
		if info.EtherType != packet.EtherTypeIPv4 {
			return
		}
		flows.Inject(&info, ipTable)
	}

	reader, err := source.NewNFQueueReader(cfg.Queue, pipeline)
	if err != nil {
		return err
	}
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reader.Start(ctx); err != nil {
		return err
	}

	loop.RegisterReader(reader)

	logger.Info("daemon started", "queue", cfg.Queue, "default_expiry_s", cfg.Expiry, "triggers", len(cfg.Triggers))

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
