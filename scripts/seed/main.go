// Seed populates a running EchoTrack instance with plausible demo data
// through the public API. It logs in, raises a spread of requests over the
// trailing window, and completes a share of them.
//
// Usage:
//
//	go run ./scripts/seed -base-url http://localhost:8080 -username admin -password secret -days 30 -per-day 6
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

var (
	baseURL  = flag.String("base-url", "http://localhost:8080", "API base URL")
	username = flag.String("username", "admin", "login username")
	password = flag.String("password", "", "login password")
	days     = flag.Int("days", 30, "how many trailing days to fill")
	perDay   = flag.Int("per-day", 6, "average requests per day")
	seed     = flag.Int64("seed", 0, "random seed, 0 means time-based")
)

// pathway weights roughly match a real triage mix.
var pathways = []struct {
	name   string
	weight int
}{
	{"PURPLE", 5},
	{"RED", 25},
	{"AMBER", 40},
	{"GREEN", 25},
	{"REJECTED", 5},
}

var wards = []string{"CCU", "ICU", "Ward 7", "Ward 12", "AMU", "ED"}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	flag.Parse()
	if *password == "" {
		log.Fatal("-password is required")
	}

	rng := rand.New(rand.NewSource(*seed))
	if *seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	client := &http.Client{Timeout: 15 * time.Second}
	token, err := login(client)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	log.Printf("logged in as %s", *username)

	created, completed := 0, 0
	now := time.Now()
	for d := *days - 1; d >= 0; d-- {
		day := now.AddDate(0, 0, -d)
		n := *perDay/2 + rng.Intn(*perDay+1)
		for i := 0; i < n; i++ {
			requestTime := time.Date(day.Year(), day.Month(), day.Day(), 8+rng.Intn(10), rng.Intn(60), 0, 0, day.Location())
			if requestTime.After(now) {
				continue
			}
			pathway := pickPathway(rng)
			id, err := createRequest(client, token, pathway, requestTime, rng)
			if err != nil {
				log.Printf("create failed: %v", err)
				continue
			}
			created++

			// Older requests are mostly done; today's are mostly open.
			doneChance := 0.85
			if d == 0 {
				doneChance = 0.3
			}
			if pathway != "GREEN" && pathway != "REJECTED" && rng.Float64() < doneChance {
				if err := complete(client, token, id); err != nil {
					log.Printf("complete %d failed: %v", id, err)
					continue
				}
				completed++
			}
		}
	}

	log.Printf("seeded %d requests, %d completed", created, completed)
}

func pickPathway(rng *rand.Rand) string {
	total := 0
	for _, p := range pathways {
		total += p.weight
	}
	roll := rng.Intn(total)
	for _, p := range pathways {
		if roll < p.weight {
			return p.name
		}
		roll -= p.weight
	}
	return "AMBER"
}

func login(client *http.Client) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": *username, "password": *password})
	resp, err := client.Post(*baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	if env.Error != nil {
		return "", fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", err
	}
	return data.AccessToken, nil
}

func createRequest(client *http.Client, token, pathway string, requestTime time.Time, rng *rand.Rand) (int64, error) {
	payload := map[string]string{
		"pathway":      pathway,
		"request_time": requestTime.Format(time.RFC3339),
		"patient_name": fmt.Sprintf("Patient %04d", rng.Intn(10000)),
		"mrn":          fmt.Sprintf("%07d", rng.Intn(10000000)),
		"ward":         wards[rng.Intn(len(wards))],
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/v1/requests", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return 0, err
	}
	if env.Error != nil {
		return 0, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	var data struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, err
	}
	return data.ID, nil
}

func complete(client *http.Client, token string, id int64) error {
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/v1/requests/%d/complete", *baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
