package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codewandler/flux-go/adapters/nats"
	promadapter "github.com/codewandler/flux-go/adapters/prometheus"
	"github.com/codewandler/flux-go/core/persist"
	"github.com/codewandler/flux-go/core/store"
	"github.com/codewandler/flux-go/ports/kv"
)

// === Config ===

// NOTE: for BACKEND=nats run: docker run --net=host nats:latest -js

var (
	N           = getEnvInt("N", 100_000)
	producers   = getEnvInt("P", 8)
	batchSize   = getEnvInt("B", 10_000)
	maxPending  = getEnvInt("MAX_PENDING", 0)
	subscribers = getEnvInt("SUBSCRIBERS", 4)
	backendType = getEnv("BACKEND", "none")
	metricsAddr = getEnv("METRICS_ADDR", "")
	debug       = getEnvBool("DEBUG", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return v == "1" || strings.ToLower(v) == "true"
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

// Load keeps one counter per producer. Seq detects reordered or lost
// actions of a producer.
type Load struct {
	Counts []int
	Seq    []int
	Gaps   int
}

type (
	LoadAction interface{ isLoadAction() }

	Hit struct {
		Producer int
		Seq      int
	}
)

func (Hit) isLoadAction() {}

var reducer = store.MustCombine(
	[]LoadAction{Hit{}},
	store.On(func(s Load, a Hit) Load {
		counts := slices.Clone(s.Counts)
		seq := slices.Clone(s.Seq)
		counts[a.Producer]++
		if a.Seq != seq[a.Producer]+1 {
			s.Gaps++
		}
		seq[a.Producer] = a.Seq
		s.Counts, s.Seq = counts, seq
		return s
	}),
)

func main() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	fmt.Printf("  Producers: %d\n", producers)
	fmt.Printf("    Actions: %d per producer\n", N)
	fmt.Printf("Max pending: %d\n", maxPending)
	fmt.Printf("    Backend: %s\n", backendType)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	reg := prometheus.NewRegistry()
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() { checkErr(http.ListenAndServe(metricsAddr, mux)) }()
	}

	var middleware []store.Middleware[Load, LoadAction]
	if kvs := createBackend(ctx); kvs != nil {
		middleware = append(middleware, persist.Middleware(kvs, persist.Options[Load, LoadAction]{Key: "loadtest"}))
	}

	initial := Load{Counts: make([]int, producers), Seq: make([]int, producers)}
	s := store.New(initial, reducer, store.Options[Load, LoadAction]{
		ID:         "loadtest",
		Context:    ctx,
		Logger:     log,
		Metrics:    promadapter.NewStoreMetrics(reg),
		Middleware: middleware,
		MaxPending: maxPending,
	})
	defer s.Close()

	var (
		notified   sync.Mutex
		deliveries int
	)
	for i := range subscribers {
		p := i % producers
		store.Select(s, func(l Load) int { return l.Counts[p] }, func(int) {
			notified.Lock()
			deliveries++
			notified.Unlock()
		})
	}

	// === START ===

	log.Info("==================================")
	log.Info("Starting ...")

	startAt := time.Now()

	go func() {
		lastTime, lastVersion := time.Now(), uint64(0)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.Done():
				return
			case n := <-ticker.C:
				v := s.Version()
				took := n.Sub(lastTime)
				mu := getMemUsage()
				fmt.Printf(" | %8d commits | %8d commits/s | (%d / %d) MiB mem (sys) |\n",
					v, int(float64(v-lastVersion)/took.Seconds()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
				lastTime, lastVersion = n, v
				if v >= uint64(N*producers) {
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last *store.Handle
			for i := 1; i <= N; i++ {
				h, err := s.DispatchContext(ctx, Hit{Producer: p, Seq: i})
				checkErr(err)
				last = h
				if i%batchSize == 0 {
					// bound queue growth when MAX_PENDING is not set
					checkErr(last.Wait(ctx))
				}
			}
			if last != nil {
				checkErr(last.Wait(ctx))
			}
		}()
	}
	wg.Wait()
	checkErr(s.WaitUntilIdle(ctx))

	// === stats ===
	println("")
	println("==========================================")

	took := time.Since(startAt)
	runtime.GC()

	final := s.State()
	lost := 0
	for p, c := range final.Counts {
		if c != N {
			log.Error("lost updates", slog.Int("producer", p), slog.Int("count", c), slog.Int("expected", N))
			lost += N - c
		}
	}

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("      version: %d\n", s.Version())
	fmt.Printf("  lost/gapped: %d / %d\n", lost, final.Gaps)
	notified.Lock()
	fmt.Printf("   deliveries: %d\n", deliveries)
	notified.Unlock()
	fmt.Printf("   avg. acts/s: %d\n", int(float64(N*producers)/took.Seconds()))

	if lost != 0 || final.Gaps != 0 {
		os.Exit(1)
	}
}

// === stats helpers ===

type MemUsage struct {
	Alloc uint64 // bytes allocated and not yet freed (heap)
	Sys   uint64 // total bytes obtained from OS
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{Alloc: m.Alloc, Sys: m.Sys}
}

// === Backend ===

func createBackend(ctx context.Context) kv.Store {
	switch backendType {
	case "mem":
		return kv.NewMemStore()
	case "nats":
		kvs, err := nats.NewKvStore(ctx, nats.KvConfig{
			Connect: nats.ConnectDefault(),
			Bucket:  "loadtest_snapshots",
			TTL:     5 * time.Minute,
		})
		checkErr(err)
		return kvs
	default:
		return nil
	}
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
