// Package main implements the invoiceflow CLI: submit invoices, inspect
// workflows, and resolve checkpoints awaiting human review.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/lumenpay/invoiceflow/config"
	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph/emit"
	"github.com/lumenpay/invoiceflow/graph/model"
	"github.com/lumenpay/invoiceflow/graph/model/anthropic"
	"github.com/lumenpay/invoiceflow/graph/model/openai"
	gstore "github.com/lumenpay/invoiceflow/graph/store"
	"github.com/lumenpay/invoiceflow/runtime"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return buildRootCmd().ExecuteContext(ctx)
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "invoiceflow",
		Short: "Invoice processing workflow engine",
	}

	rootCmd.AddCommand(
		newSubmitCmd(),
		newGetWorkflowCmd(),
		newListReviewsCmd(),
		newResolveReviewCmd(),
		newExpireStaleCmd(),
		newAuditTrailCmd(),
	)

	return rootCmd
}

// buildRuntime constructs the runtime from environment configuration. Every
// subcommand invocation gets its own store and runtime instance: the CLI is
// a one-shot driver, not a long-lived server.
func buildRuntime() (*runtime.Runtime, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(settings)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	st, err := buildStore(settings)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}

	emitter, err := buildEmitter()
	if err != nil {
		return nil, fmt.Errorf("build emitter: %w", err)
	}

	llm := buildLLM(settings)

	return runtime.New(settings, st, emitter, llm, log), nil
}

// buildStore selects the Engine's persistence backend from
// INVOICEFLOW_STORE_DRIVER ("memory" by default, or "sqlite"/"mysql" with
// INVOICEFLOW_STORE_DSN set). The CLI is a one-shot driver, so "memory" is
// the right default; sqlite/mysql exist for deployments that need a
// workflow's checkpoints to survive past the process exiting.
func buildStore(settings domain.Settings) (gstore.Store[domain.State], error) {
	driver := os.Getenv("INVOICEFLOW_STORE_DRIVER")
	dsn := os.Getenv("INVOICEFLOW_STORE_DSN")

	switch driver {
	case "", "memory":
		return gstore.NewMemStore[domain.State](), nil
	case "sqlite":
		if dsn == "" {
			dsn = "./invoiceflow.db"
		}
		return gstore.NewSQLiteStore[domain.State](dsn)
	case "mysql":
		if dsn == "" {
			return nil, fmt.Errorf("INVOICEFLOW_STORE_DSN is required for the mysql store driver")
		}
		return gstore.NewMySQLStore[domain.State](dsn)
	default:
		return nil, fmt.Errorf("unknown INVOICEFLOW_STORE_DRIVER %q (want memory, sqlite, or mysql)", driver)
	}
}

// buildEmitter selects the Graph Runtime's observability sink from
// INVOICEFLOW_EMITTER ("log" by default, stderr text). "otel" emits one span
// per event via the globally configured OpenTelemetry TracerProvider (set it
// up with otel.SetTracerProvider before running the CLI; the default
// no-op provider silently drops spans). "prometheus" aggregates events into
// counters/histograms registered with the default Prometheus registry and
// exposed by scraping /metrics in whatever process embeds the registry.
func buildEmitter() (emit.Emitter, error) {
	switch os.Getenv("INVOICEFLOW_EMITTER") {
	case "", "log":
		return emit.NewLogEmitter(os.Stderr, false), nil
	case "otel":
		return emit.NewOTelEmitter(otel.Tracer("invoiceflow")), nil
	case "prometheus":
		return emit.NewPrometheusEmitter(prometheus.DefaultRegisterer), nil
	default:
		return nil, fmt.Errorf("unknown INVOICEFLOW_EMITTER %q (want log, otel, or prometheus)", os.Getenv("INVOICEFLOW_EMITTER"))
	}
}

func newLogger(settings domain.Settings) (*zap.Logger, error) {
	if settings.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// buildLLM constructs the Selector's LLM-fallback model from
// INVOICEFLOW_LLM_PROVIDER ("anthropic" by default, or "openai"). A nil
// result disables the fallback: the Selector then relies on its capability
// rules alone.
func buildLLM(settings domain.Settings) model.ChatModel {
	if settings.LLMFallbackKey == "" {
		return nil
	}

	switch settings.LLMProvider {
	case "", "anthropic":
		return anthropic.NewChatModel(settings.LLMFallbackKey, "")
	case "openai":
		return openai.NewChatModel(settings.LLMFallbackKey, "")
	default:
		return anthropic.NewChatModel(settings.LLMFallbackKey, "")
	}
}

func newSubmitCmd() *cobra.Command {
	var invoicePath string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an invoice JSON file and run it through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(invoicePath)
			if err != nil {
				return fmt.Errorf("read invoice file: %w", err)
			}

			var invoice domain.Invoice
			if err := json.Unmarshal(raw, &invoice); err != nil {
				return fmt.Errorf("parse invoice json: %w", err)
			}

			rt, err := buildRuntime()
			if err != nil {
				return err
			}

			wf, err := rt.Start(cmd.Context(), invoice)
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}

			return printJSON(wf)
		},
	}

	cmd.Flags().StringVar(&invoicePath, "invoice", "", "path to an invoice JSON file")
	_ = cmd.MarkFlagRequired("invoice")
	return cmd
}

func newGetWorkflowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-workflow <workflow_id>",
		Short: "Print the current state of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			wf, err := rt.GetWorkflow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(wf)
		},
	}
}

func newListReviewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-reviews",
		Short: "List checkpoints awaiting human review",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			return printJSON(rt.ListPendingReviews(cmd.Context()))
		},
	}
}

func newResolveReviewCmd() *cobra.Command {
	var checkpointID, decision, reviewerID, notes string

	cmd := &cobra.Command{
		Use:   "resolve-review",
		Short: "Resolve a paused checkpoint with a human decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			wf, err := rt.Resume(cmd.Context(), checkpointID, domain.HumanDecision(decision), reviewerID, notes)
			if err != nil {
				return fmt.Errorf("resolve checkpoint: %w", err)
			}
			return printJSON(wf)
		},
	}

	cmd.Flags().StringVar(&checkpointID, "checkpoint", "", "checkpoint id to resolve")
	cmd.Flags().StringVar(&decision, "decision", "", "ACCEPT or REJECT")
	cmd.Flags().StringVar(&reviewerID, "reviewer", "", "reviewer id")
	cmd.Flags().StringVar(&notes, "notes", "", "reviewer notes")
	_ = cmd.MarkFlagRequired("checkpoint")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

func newAuditTrailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-trail <workflow_id>",
		Short: "Print the audit log recorded for a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			return printJSON(rt.AuditTrail(cmd.Context(), args[0]))
		},
	}
}

func newExpireStaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-stale",
		Short: "Mark reviews past their expiry window as EXPIRED",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			return printJSON(rt.ExpireStale(cmd.Context()))
		},
	}
}

// printDest is where printJSON writes; overridden in tests.
var printDest io.Writer = os.Stdout

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(printDest, string(out))
	return nil
}
