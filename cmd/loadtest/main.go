package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	promadapter "github.com/codewandler/actr-go/adapters/prometheus"
	"github.com/codewandler/actr-go/core/actor"
	"github.com/codewandler/actr-go/examples/counter/tally"
)

// === Config ===

var (
	logLevel      = slog.LevelInfo
	numActors     = getEnvInt("ACTORS", 1_000)
	numMessages   = getEnvInt("N", 1_000)
	numSenders    = getEnvInt("SENDERS", 4)
	maxConcurrent = getEnvInt("MAX_CONCURRENT", 0)
	promPort      = getEnvInt("PROM_PORT", 0)
	awaitReplies  = getEnvBool("AWAIT", false)
	hold          = getEnvBool("HOLD", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if v == "1" || strings.ToLower(v) == "true" {
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	if err := run(ctx, log); err != nil {
		log.Error("loadtest failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	metrics := actor.NopActorMetrics()
	if promPort > 0 {
		metrics = promadapter.NewActorMetrics(prometheus.DefaultRegisterer)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: fmt.Sprintf(":%d", promPort), Handler: mux}
		go func() {
			log.Info("prometheus metrics server starting", slog.Int("port", promPort))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("prometheus server error", slog.Any("error", err))
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	if maxConcurrent > 0 && maxConcurrent < numActors {
		return fmt.Errorf("MAX_CONCURRENT=%d cannot host %d actors", maxConcurrent, numActors)
	}

	fmt.Printf("   actors: %d\n", numActors)
	fmt.Printf(" messages: %d per actor\n", numMessages)
	fmt.Printf("  senders: %d per actor\n", numSenders)
	fmt.Printf("    await: %s\n", strconv.FormatBool(awaitReplies))

	sched := actor.NewScheduler(actor.SchedulerOptions{
		Context:       ctx,
		MaxConcurrent: maxConcurrent,
		Logger:        log,
		Metrics:       metrics,
	})
	defer sched.Close()

	// === spawn ===

	startAt := time.Now()
	addrs := make([]*actor.Addr[tally.Counter], 0, numActors)
	for range numActors {
		addr, err := actor.SpawnWithOptions(sched, tally.NewCounter(0, numMessages).WithLog(log), actor.Options{
			Logger:  log,
			Metrics: metrics,
		})
		if err != nil {
			return fmt.Errorf("spawn: %w", err)
		}
		addrs = append(addrs, addr)
	}
	spawnTook := time.Since(startAt)
	fmt.Printf("spawned %d actors in %d ms\n", numActors, spawnTook.Milliseconds())

	// === send ===

	sendAt := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	perSender := numMessages / max(numSenders, 1)
	for _, addr := range addrs {
		for range max(numSenders, 1) {
			clone := addr.Clone()
			g.Go(func() error {
				defer clone.Release()
				return send(gctx, tally.NewLocal(clone), perSender)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sendTook := time.Since(sendAt)

	// === drain ===

	total := 0
	for _, addr := range addrs {
		v, err := tally.CallValue(tally.NewLocal(addr)).Receive(ctx)
		if err != nil {
			return fmt.Errorf("read value: %w", err)
		}
		total += v
	}
	drainTook := time.Since(sendAt)

	for _, addr := range addrs {
		addr.Release()
	}
	sched.Wait()

	// === stats ===

	runtime.GC()
	mu := getMemUsage()

	println("==========================================")
	fmt.Printf("     messages: %d\n", total)
	fmt.Printf("   send phase: %.3f seconds\n", sendTook.Seconds())
	fmt.Printf("total runtime: %.3f seconds\n", drainTook.Seconds())
	fmt.Printf("   avg. msg/s: %d\n", int(float64(total)/drainTook.Seconds()))
	fmt.Printf("    mem (sys): %d MiB, %d GCs\n", mu.Sys/1024/1024, mu.NumGC)

	if hold && promPort > 0 {
		log.Info("holding for metrics scrape, interrupt to exit")
		<-ctx.Done()
	}
	return nil
}

func send(ctx context.Context, t tally.Tally, n int) error {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rx := tally.CallIncrement(t)
		if !awaitReplies {
			rx.Close()
			continue
		}
		if _, err := rx.Receive(ctx); err != nil {
			return fmt.Errorf("increment: %w", err)
		}
	}
	return nil
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}
