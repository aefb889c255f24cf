// audit_tail follows the coaching audit stream on NATS and prints each executed action.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"identity-coach-be/internal/config"
	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/pkg/coaching/audit"
	"identity-coach-be/pkg/events"
	pktNats "identity-coach-be/pkg/nats"

	"github.com/fatih/color"
)

func main() {
	durable := flag.String("durable", "audit-tail", "JetStream durable consumer name")
	flag.Parse()

	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer sysLogger.Sync()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	err = sub.Subscribe(ctx, constant.AuditTopicCoachingAction, *durable, func(_ context.Context, event events.Event) error {
		entry, err := audit.EntryFromEvent(event)
		if err != nil {
			return err
		}
		header.Printf("%s  %-24s", entry.OccurredAt.Format("15:04:05"), entry.ActionId)
		fmt.Printf(" %s\n", entry.Summary)
		dim.Printf("          user=%s", entry.UserId)
		if entry.TriggerRef != nil {
			dim.Printf(" trigger=%s", entry.TriggerRef)
		}
		fmt.Println()
		return nil
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	<-ctx.Done()
}
