package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v2"

	"perfgauge/httpadapter"
)

// yamlOverlay is the optional --config file's shape. Every field is a
// pointer (or nil slice) so that "absent from the file" is
// distinguishable from "zero value in the file"; present values
// become the CLI flags' defaults, so a flag given on the command line
// still wins over the file. The exception is error_stop: codes from the
// file are added to any given with -E.
type yamlOverlay struct {
	Concurrency   *int     `yaml:"concurrency"`
	NumReq        *int     `yaml:"num_req"`
	Duration      *string  `yaml:"duration"`
	Rate          *float64 `yaml:"rate"`
	RateStep      *float64 `yaml:"rate_step"`
	RateMax       *float64 `yaml:"rate_max"`
	MaxIter       *int     `yaml:"max_iter"`
	Name          *string  `yaml:"name"`
	Continuous    *bool    `yaml:"continuous"`
	Timeout       *string  `yaml:"timeout"`
	Prometheus    *string  `yaml:"prometheus"`
	PrometheusJob *string  `yaml:"prometheus_job"`

	HTTP struct {
		Targets    []string `yaml:"targets"`
		Method     *string  `yaml:"method"`
		Headers    []string `yaml:"headers"`
		ErrorStop  []int    `yaml:"error_stop"`
		Body       *string  `yaml:"body"`
		IgnoreCert *bool    `yaml:"ignore_cert"`
		ConnReuse  *bool    `yaml:"conn_reuse"`
		HTTP2Only  *bool    `yaml:"http2_only"`
	} `yaml:"http"`
}

// loadOverlay pre-scans argv for --config before the real kingpin
// parse, so the file's values can seed flag defaults. A missing
// --config flag is not an error; there simply is no overlay.
func loadOverlay(argv []string) (*yamlOverlay, error) {
	path := ""
	for i, arg := range argv {
		switch {
		case arg == "--config" && i+1 < len(argv):
			path = argv[i+1]
		case strings.HasPrefix(arg, "--config="):
			path = strings.TrimPrefix(arg, "--config=")
		}
	}
	if path == "" {
		return &yamlOverlay{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading --config file %q: %w", path, err)
	}
	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("config: parsing --config file %q: %w", path, err)
	}
	return &overlay, nil
}

func strDefault(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
}

func intDefault(v *int, fallback int) string {
	if v != nil {
		return strconv.Itoa(*v)
	}
	return strconv.Itoa(fallback)
}

func floatDefault(v *float64, fallback float64) string {
	if v != nil {
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return strconv.FormatFloat(fallback, 'f', -1, 64)
}

func boolDefault(v *bool) string {
	if v != nil && *v {
		return "true"
	}
	return "false"
}

// ParseArgs parses argv (excluding the program name) into a
// BenchmarkConfig, first loading an optional --config YAML overlay
// whose values seed the flags' defaults. Malformed flags are returned
// as a configuration error: the caller is expected to exit non-zero
// without running any load.
func ParseArgs(argv []string) (*BenchmarkConfig, error) {
	overlay, err := loadOverlay(argv)
	if err != nil {
		return nil, err
	}

	app := kingpin.New("perfgauge", "A rate-shaped load generator for network services.")
	app.Flag("config", "Optional YAML file overlaying these flags.").String()

	concurrency := app.Flag("concurrency", "Number of concurrent workers per batch.").
		Short('c').Default(intDefault(overlay.Concurrency, 1)).Int()
	numReq := app.Flag("num_req", "Requests per worker for each rate step.").
		Short('n').Default(intDefault(overlay.NumReq, 0)).Int()
	duration := app.Flag("duration", "Duration of each rate step.").
		Short('d').Default(strDefault(overlay.Duration, "0")).Duration()
	rate := app.Flag("rate", "Target requests/second (0 or absent: unlimited).").
		Short('r').Default(floatDefault(overlay.Rate, 0)).Float64()
	rateStep := app.Flag("rate_step", "Rate increment per ladder step.").
		Default(floatDefault(overlay.RateStep, 0)).Float64()
	rateMax := app.Flag("rate_max", "Final rate for the ladder.").
		Default(floatDefault(overlay.RateMax, 0)).Float64()
	maxIter := app.Flag("max_iter", "Extra iterations at the final rate before completion.").
		Short('m').Default(intDefault(overlay.MaxIter, 1)).Int()
	name := app.Flag("name", "Test case name, used to label reports.").
		Short('N').Default(strDefault(overlay.Name, "")).String()
	continuous := app.Flag("continuous", "Run indefinitely, restarting the rate ladder each time it completes.").
		Default(boolDefault(overlay.Continuous)).Bool()
	timeout := app.Flag("timeout", "Per-request timeout; 0 disables it.").
		Default(strDefault(overlay.Timeout, "0")).Duration()
	prometheus := app.Flag("prometheus", "Push-gateway address, HOST:PORT.").
		Default(strDefault(overlay.Prometheus, "")).String()
	prometheusJob := app.Flag("prometheus_job", "Push-gateway job name.").
		Default(strDefault(overlay.PrometheusJob, "pushgateway")).String()

	httpCmd := app.Command("http", "Benchmark an HTTP(S) target.")
	targetsDefault := overlay.HTTP.Targets
	targets := httpCmd.Arg("target", "Target URL(s); multiple are balanced uniformly at random.").
		Default(targetsDefault...).Strings()
	method := httpCmd.Flag("method", "HTTP method.").
		Short('M').Default(strDefault(overlay.HTTP.Method, "")).String()
	headers := httpCmd.Flag("header", "Request header, NAME:VALUE. May be repeated.").
		Short('H').Default(overlay.HTTP.Headers...).Strings()
	errorStop := httpCmd.Flag("error_stop", "HTTP status code that halts the run. May be repeated.").
		Short('E').Ints()
	body := httpCmd.Flag("body", "Request body: random://N, base64://DATA, or file://PATH.").
		Short('B').Default(strDefault(overlay.HTTP.Body, "")).String()
	ignoreCert := httpCmd.Flag("ignore_cert", "Skip TLS certificate verification.").
		Default(boolDefault(overlay.HTTP.IgnoreCert)).Bool()
	connReuse := httpCmd.Flag("conn_reuse", "Reuse connections across requests.").
		Default(boolDefault(overlay.HTTP.ConnReuse)).Bool()
	http2Only := httpCmd.Flag("http2_only", "Use HTTP/2 exclusively.").
		Default(boolDefault(overlay.HTTP.HTTP2Only)).Bool()

	cmd, err := app.Parse(argv)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cmd != httpCmd.FullCommand() {
		return nil, fmt.Errorf("config: a protocol subcommand is required (got %q)", cmd)
	}

	for _, code := range overlay.HTTP.ErrorStop {
		*errorStop = append(*errorStop, code)
	}

	cfg, err := buildConfig(
		*concurrency, *numReq, *duration, *rate, *rateStep, *rateMax, *maxIter,
		*name, *continuous, *timeout, *prometheus, *prometheusJob,
		*targets, *method, *headers, *errorStop, *body, *ignoreCert, *connReuse, *http2Only,
	)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// buildConfig validates the flag combination rules (concurrency bounds,
// exactly-one-of request/duration budget, rate_step/rate_max pairing)
// and assembles a BenchmarkConfig, materializing the request body and
// parsing header strings along the way.
func buildConfig(
	concurrency, numReq int, duration time.Duration, rate, rateStep, rateMax float64, maxIter int,
	name string, continuous bool, timeout time.Duration, prometheus, prometheusJob string,
	targets []string, method string, headerSpecs []string, errorStop []int, bodySpec string,
	ignoreCert, connReuse, http2Only bool,
) (*BenchmarkConfig, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("--concurrency must be >= 1, got %d", concurrency)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one TARGET is required")
	}

	haveNumReq := numReq > 0
	haveDuration := duration > 0
	if haveNumReq == haveDuration {
		return nil, fmt.Errorf("exactly one of --num_req or --duration is required")
	}

	haveRateStep := rateStep != 0
	haveRateMax := rateMax != 0
	if haveRateStep != haveRateMax {
		return nil, fmt.Errorf("--rate_step and --rate_max must be set together")
	}
	if (haveRateStep || haveRateMax) && rate <= 0 {
		return nil, fmt.Errorf("--rate_step/--rate_max require --rate to be set")
	}

	ladder := RateLadderConfig{
		Start:             rate,
		MaxRateIterations: maxIter,
	}
	if haveRateStep {
		ladder.End = rateMax
		ladder.RateIncrement = &rateStep
	} else {
		ladder.End = rate
	}
	if haveNumReq {
		ladder.StepRequests = &numReq
	} else {
		ladder.StepDuration = &duration
	}

	var requestTimeout *time.Duration
	if timeout > 0 {
		requestTimeout = &timeout
	}

	headers, err := parseHeaders(headerSpecs)
	if err != nil {
		return nil, err
	}

	body, err := MaterializeBody(bodySpec)
	if err != nil {
		return nil, err
	}

	stopSet := make(map[int]struct{}, len(errorStop))
	for _, code := range errorStop {
		stopSet[code] = struct{}{}
	}

	if method == "" {
		if len(body) == 0 {
			method = http.MethodGet
		} else {
			method = http.MethodPost
		}
	}

	httpCfg := httpadapter.Config{
		URLs:         targets,
		Method:       method,
		Headers:      headers,
		Body:         body,
		IgnoreCert:   ignoreCert,
		ConnReuse:    connReuse,
		HTTP2Only:    http2Only,
		StopOnErrors: stopSet,
	}

	return &BenchmarkConfig{
		Name:           name,
		Concurrency:    concurrency,
		Ladder:         ladder,
		HTTP:           httpCfg,
		Continuous:     continuous,
		RequestTimeout: requestTimeout,
		Prometheus:     prometheus,
		PrometheusJob:  prometheusJob,
	}, nil
}

// parseHeaders turns "NAME:VALUE" / "NAME:VALUE1:VALUE2" strings from
// repeated -H flags into a header map.
func parseHeaders(specs []string) (map[string][]string, error) {
	headers := make(map[string][]string, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid --header %q, expected NAME:VALUE", spec)
		}
		name := parts[0]
		value := strings.Join(parts[1:], ":")
		headers[name] = append(headers[name], value)
	}
	return headers, nil
}
