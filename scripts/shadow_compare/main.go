// Command shadow_compare replays read-only requests against the legacy Next.js
// attendance API and the Go service, reporting status and payload drift.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

// target pairs a Go route with its legacy counterpart. Unwrap names the JSON
// key holding the payload on that side; empty means the whole body.
type target struct {
	Name         string `json:"name"`
	GoPath       string `json:"goPath"`
	LegacyPath   string `json:"legacyPath"`
	GoUnwrap     string `json:"goUnwrap"`
	LegacyUnwrap string `json:"legacyUnwrap"`
	CompareBody  bool   `json:"compareBody"`
	Critical     bool   `json:"critical"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

type side struct {
	Status   int
	Body     []byte
	Duration time.Duration
}

type comparison struct {
	Target      target
	Go          side
	Legacy      side
	StatusMatch bool
	BodyMatch   bool
	Err         error
}

func (c comparison) drifted() bool {
	return c.Err != nil || !c.StatusMatch || (c.Target.CompareBody && !c.BodyMatch)
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "Legacy Next.js base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	results := make([]comparison, 0, len(targets))
	breaking, optional := 0, 0
	for _, t := range targets {
		res := compare(client, goBase, legacyBase, t)
		if res.drifted() {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compare(client *http.Client, goBase, legacyBase string, tgt target) comparison {
	res := comparison{Target: tgt}

	goSide, err := fetch(client, goBase, tgt.GoPath)
	if err != nil {
		res.Err = fmt.Errorf("go request failed: %w", err)
		return res
	}
	legacySide, err := fetch(client, legacyBase, tgt.LegacyPath)
	if err != nil {
		res.Err = fmt.Errorf("legacy request failed: %w", err)
		return res
	}

	res.Go, res.Legacy = goSide, legacySide
	res.StatusMatch = goSide.Status == legacySide.Status
	if tgt.CompareBody {
		res.BodyMatch, res.Err = payloadsEqual(goSide.Body, tgt.GoUnwrap, legacySide.Body, tgt.LegacyUnwrap)
	}
	return res
}

func fetch(client *http.Client, base, path string) (side, error) {
	if client == nil {
		return side{}, errors.New("nil client")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	start := time.Now()
	resp, err := client.Get(strings.TrimRight(base, "/") + path)
	if err != nil {
		return side{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return side{}, fmt.Errorf("read body: %w", err)
	}
	return side{Status: resp.StatusCode, Body: body, Duration: time.Since(start)}, nil
}

func payloadsEqual(goBody []byte, goKey string, legacyBody []byte, legacyKey string) (bool, error) {
	goPayload, err := unwrap(goBody, goKey)
	if err != nil {
		return false, fmt.Errorf("decode go body: %w", err)
	}
	legacyPayload, err := unwrap(legacyBody, legacyKey)
	if err != nil {
		return false, fmt.Errorf("decode legacy body: %w", err)
	}
	return reflect.DeepEqual(normalize(goPayload), normalize(legacyPayload)), nil
}

func unwrap(body []byte, key string) (interface{}, error) {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}
	if key == "" {
		return decoded, nil
	}
	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected object with %q", key)
	}
	return obj[key], nil
}

// normalize collapses integral floats so 3 and 3.0 compare equal.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			val[k] = normalize(inner)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = normalize(inner)
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	default:
		return val
	}
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if res.drifted() {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s\n", status, res.Target.Name)
		fmt.Printf("  Go     %s -> %d (%s)\n", res.Target.GoPath, res.Go.Status, res.Go.Duration)
		fmt.Printf("  Legacy %s -> %d (%s)\n", res.Target.LegacyPath, res.Legacy.Status, res.Legacy.Duration)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  Status match: %t | Body compared: %t | Body match: %t | Critical: %t\n",
			res.StatusMatch, res.Target.CompareBody, res.BodyMatch, res.Target.Critical)
	}
}
