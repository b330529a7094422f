package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/hackgods/operating-room-scheduling/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BrainRatio   float64 // share of BRAIN requests among valid ones
	InvalidRatio float64 // share of requests with an unknown doctor type
}

// OutcomeMetrics counts POST /schedule results by HTTP outcome.
type OutcomeMetrics struct {
	Total     int64
	Scheduled int64
	Queued    int64
	Rejected  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OutcomeMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err != nil:
		atomic.AddInt64(&om.Error, 1)
	case status == http.StatusOK:
		atomic.AddInt64(&om.Scheduled, 1)
	case status == http.StatusAccepted:
		atomic.AddInt64(&om.Queued, 1)
	case status == http.StatusUnprocessableEntity:
		atomic.AddInt64(&om.Rejected, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OutcomeMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	log     zerolog.Logger
	metrics OutcomeMetrics
}

func main() {
	logger := logging.New("simulate", getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"))

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Str("api", cfg.APIBaseURL).
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("brain_ratio", cfg.BrainRatio).
		Float64("invalid_ratio", cfg.InvalidRatio).
		Msg("simulator starting")

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BrainRatio:   getFloat("SIM_BRAIN_RATIO", 0.5),
		InvalidRatio: getFloat("SIM_INVALID_RATIO", 0.05),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.BrainRatio < 0 || cfg.BrainRatio > 1 || cfg.InvalidRatio < 0 || cfg.InvalidRatio > 1 {
		return fmt.Errorf("SIM_BRAIN_RATIO and SIM_INVALID_RATIO must be within [0, 1]")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	faker := gofakeit.New(uint64(time.Now().UnixNano()) + uint64(workerID))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			s.doSchedule(ctx, pickDoctorType(faker, s.config))
		}
	}
}

// pickDoctorType draws a doctor type, sometimes an unknown one to exercise
// validation.
func pickDoctorType(faker *gofakeit.Faker, cfg SimConfig) string {
	if faker.Float64() < cfg.InvalidRatio {
		return strings.ToUpper(faker.Word()) + "_SURGERY"
	}
	if faker.Float64() < cfg.BrainRatio {
		return "BRAIN"
	}
	return "HEART"
}

func (s *Simulator) doSchedule(ctx context.Context, doctorType string) {
	body, _ := json.Marshal(map[string]string{"doctor_type": doctorType})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/schedule", bytes.NewReader(body))
	if err != nil {
		s.log.Error().Err(err).Msg("build request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if ctx.Err() != nil {
		// the run ended mid request, do not count it
		return
	}
	if err != nil {
		s.metrics.Record(latency, 0, err)
		return
	}
	// drain so the keep-alive connection goes back to the pool
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	s.metrics.Record(latency, resp.StatusCode, nil)
}

func (s *Simulator) PrintReport() {
	om := &s.metrics
	total := atomic.LoadInt64(&om.Total)

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Requests: %d\n", total)
	if total == 0 {
		return
	}

	for _, row := range []struct {
		name  string
		count int64
	}{
		{"Scheduled", atomic.LoadInt64(&om.Scheduled)},
		{"Queued", atomic.LoadInt64(&om.Queued)},
		{"Rejected", atomic.LoadInt64(&om.Rejected)},
		{"Errors", atomic.LoadInt64(&om.Error)},
	} {
		fmt.Printf("  %s: %d (%.1f%%)\n", row.name, row.count, float64(row.count)/float64(total)*100)
	}

	avg, min, max, p50, p95 := om.Stats()
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Microsecond), min.Round(time.Microsecond), max.Round(time.Microsecond),
		p50.Round(time.Microsecond), p95.Round(time.Microsecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
