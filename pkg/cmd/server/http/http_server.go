package http

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	natsio "github.com/nats-io/nats.go"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/broadcast"
	natsbcst "github.com/pitwall-labs/f1-strategy-manager-go/pkg/broadcast/nats"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/config"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/server/auth"
	raceserver "github.com/pitwall-labs/f1-strategy-manager-go/pkg/server/race"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/params"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/strategy"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/utils"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "starts the HTTP race emulation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.HTTPServerAddr,
		"http-server-addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format")
	cmd.Flags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"filter rules for named loggers")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.AdminToken,
		"admin-token",
		"",
		"admin token value")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"if set, lap data is published to this NATS server")
	cmd.Flags().StringVar(&config.StaleDuration,
		"stale-duration",
		"1h",
		"race is removed if it was not accessed for this duration")
	cmd.Flags().StringVar(&config.ParamsFile,
		"params-file",
		"",
		"simulation parameter file (yaml)")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

//nolint:funlen,cyclop // by design
func startServer() error {
	var logger *log.Logger
	var telemetry *config.Telemetry
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if config.LogFilter != "" {
		var err error
		if logger, err = logger.WithFilterRules(config.LogFilter); err != nil {
			return err
		}
	}

	log.ResetDefault(logger)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	waitForRequiredServices()

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(context.Background()); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	simParams, err := params.Load(config.ParamsFile)
	if err != nil {
		log.Error("could not load simulation parameters", log.ErrorField(err))
		return err
	}

	publisher, err := setupPublisher()
	if err != nil {
		log.Error("could not setup lap publisher", log.ErrorField(err))
		return err
	}
	defer publisher.Close()

	lookup := utils.NewRaceLookup(utils.WithStaleDuration(staleDuration()))
	stopEviction := setupStaleEviction(lookup)
	defer stopEviction()

	mux := registerRaceServices(lookup, simParams, publisher)

	log.Info("Starting HTTP server", log.String("addr", config.HTTPServerAddr))
	//nolint:gosec // by design
	server := &http.Server{
		Addr: config.HTTPServerAddr,
		Handler: h2c.NewHandler(
			otelhttp.NewHandler(
				newCORS().Handler(
					auth.NewMiddleware(auth.WithAdminToken(config.AdminToken))(mux)),
				"pitwall"),
			&http2.Server{}),
	}

	setupGoRoutinesDump()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case err := <-errChan:
		log.Error("server could not be started", log.ErrorField(err))
		return err
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	//nolint:errcheck // by design
	server.Shutdown(context.Background())

	log.Info("Server terminated")
	return nil
}

//nolint:whitespace // can't make both editor and linter happy
func registerRaceServices(
	lookup *utils.RaceLookup,
	simParams *params.Params,
	publisher broadcast.LapPublisher,
) *http.ServeMux {
	mux := http.NewServeMux()
	raceService := raceserver.NewServer(
		raceserver.WithRaceLookup(lookup),
		raceserver.WithParams(simParams),
		raceserver.WithPredictor(strategy.NewRuleBased()),
		raceserver.WithPublisher(publisher))
	raceService.Register(mux)
	return mux
}

func setupPublisher() (broadcast.LapPublisher, error) {
	if config.NatsURL == "" {
		return broadcast.NewNoop(), nil
	}
	conn, err := natsio.Connect(config.NatsURL)
	if err != nil {
		return nil, err
	}
	return natsbcst.NewPublisher(conn), nil
}

func staleDuration() time.Duration {
	ret, err := time.ParseDuration(config.StaleDuration)
	if err != nil {
		log.Warn("Invalid stale duration. Setting default 1h", log.ErrorField(err))
		ret = time.Hour
	}
	return ret
}

// setupStaleEviction periodically removes races without recent access.
func setupStaleEviction(lookup *utils.RaceLookup) func() {
	ticker := time.NewTicker(time.Minute)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				for _, key := range lookup.RemoveStale() {
					log.Info("evicted stale race", log.String("raceKey", key))
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func waitForRequiredServices() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		if err = utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
		wg.Done()
	}

	if natsAddr := utils.ExtractFromNatsURL(config.NatsURL); natsAddr != "" {
		wg.Add(1)
		go checkTCP(natsAddr)
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

func newCORS() *cors.Cors {
	// permissive setup so browser dashboards can use the API directly
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			// Allow all origins, which effectively disables CORS.
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			// Content-Type is in the default safelist.
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Content-Encoding",
		},
		// Let browsers cache CORS information for longer, which reduces the number
		// of preflight requests.
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
