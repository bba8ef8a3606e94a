package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	products    int
	customers   int
)

// Metrics
var (
	totalRequests uint64
	success201    uint64 // Checkout committed
	fail409       uint64 // Lost a stock race
	fail422       uint64 // Out of stock
	failOther     uint64
	unitsSold     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent shoppers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.IntVar(&products, "products", 100, "Number of seeded products (P0001..)")
	flag.IntVar(&customers, "customers", 50, "Number of seeded customers (shopperN@example.com)")
}

func main() {
	flag.Parse()
	if err := validateFlags(); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, i%customers+1)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func validateFlags() error {
	switch {
	case concurrency < 1:
		return fmt.Errorf("-workers must be at least 1, got %d", concurrency)
	case customers < 1:
		return fmt.Errorf("-customers must be at least 1, got %d", customers)
	case products < 1:
		return fmt.Errorf("-products must be at least 1, got %d", products)
	case duration <= 0:
		return fmt.Errorf("-duration must be positive, got %s", duration)
	case workload != "uniform" && workload != "hotspot":
		return fmt.Errorf("-workload must be uniform or hotspot, got %q", workload)
	case workload == "hotspot" && products < 2:
		return fmt.Errorf("-workload hotspot needs at least 2 products, got %d", products)
	}
	return nil
}

func worker(wg *sync.WaitGroup, start time.Time, shopper int) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	token, err := login(client, fmt.Sprintf("shopper%d@example.com", shopper))
	if err != nil {
		log.Printf("worker %d: login failed: %v", shopper, err)
		atomic.AddUint64(&failOther, 1)
		return
	}

	for time.Since(start) < duration {
		qty := rand.Intn(3) + 1
		payload := map[string]any{
			"lines": []map[string]any{
				{"product_id": pickProduct(), "quantity": qty},
			},
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/checkout", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Session-Token", token)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 201:
			atomic.AddUint64(&success201, 1)
			atomic.AddUint64(&unitsSold, uint64(qty))
		case 409:
			atomic.AddUint64(&fail409, 1)
		case 422:
			atomic.AddUint64(&fail422, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func login(client *http.Client, email string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email})
	resp, err := client.Post(targetURL+"/api/v1/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func pickProduct() string {
	if workload == "hotspot" {
		// Hotspot: 90% of traffic goes to the first two products
		if rand.Float32() < 0.90 {
			return fmt.Sprintf("P%04d", rand.Intn(2)+1)
		}
	}
	return fmt.Sprintf("P%04d", rand.Intn(products)+1)
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	s201 := atomic.LoadUint64(&success201)
	f409 := atomic.LoadUint64(&fail409)
	f422 := atomic.LoadUint64(&fail422)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	var abortRate float64
	if total > 0 {
		abortRate = float64(f409) / float64(total) * 100
	}

	results := map[string]any{
		"workload":        workload,
		"duration_sec":    d.Seconds(),
		"total_requests":  total,
		"throughput_tps":  tps,
		"success_created": s201,
		"units_sold":      atomic.LoadUint64(&unitsSold),
		"aborts_conflict": f409,
		"rejected_stock":  f422,
		"abort_rate_pct":  abortRate,
		"errors":          fErr,
	}

	// Print JSON for plotting
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	// Also save to file
	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		log.Printf("Unable to write %s: %v", filename, err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
