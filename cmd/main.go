package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	repository "github.com/okian/obituary/internal/adapters/repository"
	"github.com/okian/obituary/internal/adapters/wiki"
	service "github.com/okian/obituary/internal/app"
	"github.com/okian/obituary/internal/config"
	"github.com/okian/obituary/internal/domain/enrich"
	"github.com/okian/obituary/internal/domain/history"
	"github.com/okian/obituary/internal/domain/model"
	"github.com/okian/obituary/internal/domain/resolve"
	"github.com/okian/obituary/internal/domain/verify"
	"github.com/okian/obituary/pkg/logger"
	"github.com/okian/obituary/pkg/metrics"
)

var version = "0.1.0-dev"

// issueTitleEnv carries the command when the run is triggered by an issue.
const issueTitleEnv = "ISSUE_TITLE"

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "obituary",
		Short:         "Maintain the registry of notable deaths",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "process [command]",
			Short: "Execute one registry command such as \"ADMIN_REQUEST: Maya Angelou\"",
			Long: `Execute one registry command. The command text comes from the argument,
then the command config key, then the ISSUE_TITLE environment variable.

Recognized commands:
  ADMIN_REQUEST: <name>        resolve and insert, approved
  USER_REQUEST: <name>         resolve and insert, pending approval
  APPROVE: <name>              approve one name
  APPROVE_BULK: <a> | <b>      approve several names
  APPROVE_ALL                  approve every pending record
  DELETE: <name>               delete every record with the name
  DELETE_BULK: <a> | <b>       delete one record per listed name
  VIEW: <name> | <seconds>     count a profile view`,
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), func(ctx context.Context, env *runEnv) error {
					raw := commandText(args, env.cfg)
					res, err := env.svc.Execute(ctx, raw)
					if err != nil {
						return err
					}
					env.report(cmd, res)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "import-historical",
			Short: "Bulk-import famous deaths by epoch from the structured-data source",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), func(ctx context.Context, env *runEnv) error {
					res, err := env.svc.ImportHistorical(ctx)
					if err != nil {
						return err
					}
					env.report(cmd, res)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "repair-images",
			Short: "Fill missing record images",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), func(ctx context.Context, env *runEnv) error {
					res, err := env.svc.RepairImages(ctx)
					if err != nil {
						return err
					}
					env.report(cmd, res)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "refresh-bios",
			Short: "Re-read record bios from their encyclopedia pages",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), func(ctx context.Context, env *runEnv) error {
					res, err := env.svc.RefreshBios(ctx)
					if err != nil {
						return err
					}
					env.report(cmd, res)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

// runEnv is what one CLI invocation works with.
type runEnv struct {
	cfg *config.Config
	svc *service.Service
	log logger.Logger
}

func (e *runEnv) report(cmd *cobra.Command, res service.Result) {
	line := fmt.Sprintf("%s: changed=%t affected=%d", res.Kind, res.Changed, res.Affected)
	if res.Outcome != "" {
		line += " outcome=" + string(res.Outcome)
	}
	if len(res.Names) > 0 {
		line += " names=" + strings.Join(res.Names, "|")
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}

// run loads configuration, wires the service and runs fn. The metrics
// textfile is written whether or not fn succeeds.
func run(ctx context.Context, fn func(ctx context.Context, env *runEnv) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Get().With(logger.String("run_id", uuid.NewString()))

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	env, err := wire(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to wire service", logger.Error(err))
		return err
	}

	runErr := fn(ctx, env)
	switch {
	case errors.Is(runErr, model.ErrSourceUnavailable):
		log.Error(ctx, "discovery source unreachable", logger.Error(runErr))
	case runErr != nil:
		log.Error(ctx, "run failed", logger.Error(runErr))
	}

	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Warn(ctx, "metrics textfile not written", logger.String("path", cfg.MetricsFile), logger.Error(err))
	}
	return runErr
}

func wire(cfg *config.Config, log logger.Logger) (*runEnv, error) {
	epochs, err := cfg.Epochs()
	if err != nil {
		return nil, err
	}

	clientOpts := func(extra ...wiki.Option) []wiki.Option {
		return append([]wiki.Option{
			wiki.WithTimeout(cfg.RequestTimeout),
			wiki.WithUserAgent(cfg.UserAgent),
			wiki.WithRequestDelay(cfg.RequestDelay),
			wiki.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
		}, extra...)
	}
	wikipedia := wiki.NewWikipedia(clientOpts(
		wiki.WithBaseURL(cfg.WikipediaBaseURL),
		wiki.WithLogger(log.Named("wikipedia")),
	)...)
	wikidata := wiki.NewWikidata(clientOpts(
		wiki.WithEndpoint(cfg.SPARQLEndpoint),
		wiki.WithLogger(log.Named("wikidata")),
	)...)

	svc := service.New(
		repository.NewFileStore(cfg.RegistryFile, repository.WithLogger(log.Named("registry"))),
		service.WithLogger(log.Named("service")),
		service.WithViewRecorder(repository.NewAnalyticsStore(cfg.AnalyticsFile, repository.WithLogger(log.Named("analytics")))),
		service.WithResolver(resolve.New(wikipedia,
			resolve.WithLanguages(cfg.PrimaryLang, cfg.FallbackLangs...),
			resolve.WithSearchLimit(cfg.SearchLimit),
			resolve.WithMinExtractLength(cfg.MinExtractLength),
			resolve.WithMaxVariantExtraRunes(cfg.MaxVariantExtraRunes),
			resolve.WithLogger(log.Named("resolver")),
		)),
		service.WithVerifier(verify.New(wikidata, verify.WithLogger(log.Named("verifier")))),
		service.WithImporter(history.New(wikidata,
			history.WithEpochs(epochs...),
			history.WithLanguage(cfg.PrimaryLang),
			history.WithMinSitelinks(cfg.HistoricalMinSitelinks),
			history.WithLimit(cfg.HistoricalLimit),
			history.WithLogger(log.Named("history")),
		)),
		service.WithEnricher(enrich.New(wikipedia,
			enrich.WithPrimaryLanguage(cfg.PrimaryLang),
			enrich.WithImageOracle(wikidata),
			enrich.WithLogger(log.Named("enricher")),
		)),
	)
	return &runEnv{cfg: cfg, svc: svc, log: log}, nil
}

// commandText picks the command: argument, then config, then ISSUE_TITLE.
func commandText(args []string, cfg *config.Config) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	if strings.TrimSpace(cfg.Command) != "" {
		return cfg.Command
	}
	return os.Getenv(issueTitleEnv)
}
