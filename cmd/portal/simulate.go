package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hackgods/sus-scheduling/internal/api"
	"github.com/hackgods/sus-scheduling/internal/booking"
	"github.com/hackgods/sus-scheduling/internal/identity"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Slots        int
	ClaimRatio   float64
	ReleaseRatio float64
}

// actor is one simulated browser: a device id and the account logged in on it.
type actor struct {
	device string
	id     string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
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

type Metrics struct {
	Claim        OperationMetrics
	Release      OperationMetrics
	OpenSlots    OperationMetrics
	Appointments OperationMetrics
}

type Simulator struct {
	config   SimConfig
	client   *http.Client
	faker    *gofakeit.Faker
	doctor   actor
	patients []actor
	slotIDs  []string
	metrics  Metrics
}

func simulateCmd() *cobra.Command {
	cfg := SimConfig{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Race patients for open slots against a running server",
		Long: `Registers one doctor and one patient per worker through the HTTP API,
publishes open slots for tomorrow, then has every worker race to claim them
until the duration elapses. The doctor releases claimed slots at random so
the pool keeps turning over. Claims that lose the race show up as conflicts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Workers <= 0 {
				return fmt.Errorf("--workers must be > 0")
			}
			if cfg.Duration <= 0 {
				return fmt.Errorf("--duration must be > 0")
			}

			sim := &Simulator{
				config: cfg,
				client: &http.Client{Timeout: 10 * time.Second},
				faker:  gofakeit.New(0),
			}

			ctx := cmd.Context()
			if err := sim.Setup(ctx); err != nil {
				return fmt.Errorf("setup: %w", err)
			}
			fmt.Printf("registered %d patients, published %d slots\n", len(sim.patients), len(sim.slotIDs))

			sim.Run(ctx)
			sim.PrintReport()
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.APIBaseURL, "base-url", "http://localhost:8080", "portal server base URL")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 30*time.Second, "how long workers keep running")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 10, "concurrent patients")
	cmd.Flags().IntVar(&cfg.Slots, "slots", 8, "slots the doctor publishes")
	cmd.Flags().Float64Var(&cfg.ClaimRatio, "claim-ratio", 0.6, "share of worker operations that are claims")
	cmd.Flags().Float64Var(&cfg.ReleaseRatio, "release-ratio", 0.2, "chance the doctor releases a slot after a claim")
	return cmd
}

// Setup registers and logs in the actors, then publishes the contested slots.
func (s *Simulator) Setup(ctx context.Context) error {
	suffix := uuid.NewString()[:8]

	doctorEmail := fmt.Sprintf("sim.%s@sus.gov.br", suffix)
	_, err := s.call(ctx, "", http.MethodPost, "/doctors", api.RegisterDoctorRequest{
		Name:      s.faker.Name(),
		Email:     doctorEmail,
		Password:  seedPassword,
		CRM:       s.faker.Numerify("######"),
		Specialty: s.faker.RandomString(identity.Specialties),
		Phone:     fmt.Sprintf("(11) 9%s-%s", s.faker.Numerify("####"), s.faker.Numerify("####")),
	}, http.StatusCreated, nil)
	if err != nil {
		return fmt.Errorf("register doctor: %w", err)
	}
	s.doctor = actor{device: uuid.NewString()}
	if err := s.login(ctx, s.doctor, "/doctors/login", doctorEmail); err != nil {
		return err
	}

	for i := 0; i < s.config.Workers; i++ {
		email := fmt.Sprintf("sim.%s.%d@example.com", suffix, i)
		var created api.IDResponse
		_, err := s.call(ctx, "", http.MethodPost, "/patients", api.RegisterPatientRequest{
			Email:    email,
			Password: seedPassword,
			CPF:      identity.CompleteCPF(s.faker.Numerify("#########")),
			Phone:    fmt.Sprintf("(21) 9%s-%s", s.faker.Numerify("####"), s.faker.Numerify("####")),
		}, http.StatusCreated, &created)
		if err != nil {
			return fmt.Errorf("register patient %d: %w", i, err)
		}
		p := actor{device: uuid.NewString(), id: created.ID}
		if err := s.login(ctx, p, "/patients/login", email); err != nil {
			return err
		}
		s.patients = append(s.patients, p)
	}

	date := booking.FormatDate(time.Now().AddDate(0, 0, 1))
	grid := booking.TimeOptions(date, time.Now())
	for i := 0; i < s.config.Slots && i+1 < len(grid); i++ {
		var created api.IDResponse
		_, err := s.call(ctx, s.doctor.device, http.MethodPost, "/doctor/slots", api.PublishSlotRequest{
			StartTime: grid[i],
			EndTime:   grid[i+1],
			Date:      date,
		}, http.StatusCreated, &created)
		if err != nil {
			return fmt.Errorf("publish slot %s: %w", grid[i], err)
		}
		s.slotIDs = append(s.slotIDs, created.ID)
	}
	if len(s.slotIDs) == 0 {
		return fmt.Errorf("no slots published")
	}
	return nil
}

func (s *Simulator) login(ctx context.Context, a actor, path, email string) error {
	_, err := s.call(ctx, a.device, http.MethodPost, path, api.LoginRequest{
		Identifier: email,
		Password:   seedPassword,
	}, http.StatusOK, nil)
	if err != nil {
		return fmt.Errorf("login %s: %w", email, err)
	}
	return nil
}

func (s *Simulator) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Duration)
	defer cancel()

	fmt.Printf("starting simulation for %s with %d workers\n", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i, p := range s.patients {
		wg.Add(1)
		go func(workerID int, p actor) {
			defer wg.Done()
			s.worker(ctx, workerID, p)
		}(i, p)
	}
	wg.Wait()
	fmt.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int, p actor) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if rng.Float64() < s.config.ClaimRatio {
				slotID := s.slotIDs[rng.Intn(len(s.slotIDs))]
				if s.doClaim(ctx, p, slotID) && rng.Float64() < s.config.ReleaseRatio {
					s.doRelease(ctx, slotID)
				}
				continue
			}
			if rng.Intn(2) == 0 {
				s.doOpenSlots(ctx, p)
			} else {
				s.doAppointments(ctx, p)
			}
		}
	}
}

func (s *Simulator) doClaim(ctx context.Context, p actor, slotID string) bool {
	start := time.Now()
	status, err := s.call(ctx, p.device, http.MethodPost, "/slots/"+slotID+"/claim", nil, http.StatusOK, nil)
	if ctx.Err() != nil {
		return false
	}
	success := err == nil
	s.metrics.Claim.Record(time.Since(start), success, status == http.StatusConflict)
	return success
}

func (s *Simulator) doRelease(ctx context.Context, slotID string) {
	start := time.Now()
	status, err := s.call(ctx, s.doctor.device, http.MethodPost, "/doctor/slots/"+slotID+"/release", nil, http.StatusOK, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Release.Record(time.Since(start), err == nil, status == http.StatusConflict)
}

func (s *Simulator) doOpenSlots(ctx context.Context, p actor) {
	start := time.Now()
	_, err := s.call(ctx, p.device, http.MethodGet, "/slots", nil, http.StatusOK, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.OpenSlots.Record(time.Since(start), err == nil, false)
}

func (s *Simulator) doAppointments(ctx context.Context, p actor) {
	start := time.Now()
	_, err := s.call(ctx, p.device, http.MethodGet, "/me/appointments", nil, http.StatusOK, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Appointments.Record(time.Since(start), err == nil, false)
}

// call sends body as JSON with the actor's device id and decodes the response
// into out when the status matches want. It returns the status it got.
func (s *Simulator) call(ctx context.Context, device, method, path string, body any, want int, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if device != "" {
		req.Header.Set(api.HeaderDeviceID, device)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return resp.StatusCode, fmt.Errorf("%s %s: status %d %s", method, path, resp.StatusCode, apiErr.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Slots: %d\n", len(s.slotIDs))
	fmt.Println()

	printOperationReport("Claim", &s.metrics.Claim)
	printOperationReport("Release", &s.metrics.Release)
	printOperationReport("Open slots", &s.metrics.OpenSlots)
	printOperationReport("My appointments", &s.metrics.Appointments)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}
