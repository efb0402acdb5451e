package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"leadflow_backend/internal/adapters"
	"leadflow_backend/internal/automation"
	"leadflow_backend/internal/scheduler"
	"leadflow_backend/platform/clock"
	"leadflow_backend/platform/events"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	enqueueFlag bool
	tenantFlag  string
)

func init() {
	decayCmd := &cobra.Command{
		Use:   "decay",
		Short: "Temperature decay automation",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run temperature decay for every active tenant",
		Run:   runDecay,
	}
	runCmd.Flags().BoolVar(&enqueueFlag, "enqueue", false, "Enqueue the run on the scheduler queue instead of running in-process")

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Show which leads would cool down without writing anything",
		Run:   runDecayPreview,
	}
	previewCmd.Flags().StringVar(&tenantFlag, "tenant", "", "Limit the preview to one tenant id")

	decayCmd.AddCommand(runCmd, previewCmd)
	RootCmd.AddCommand(decayCmd)
}

func runDecay(cmd *cobra.Command, args []string) {
	e, err := openEnv(cmd.Context())
	if err != nil {
		exitErr("startup", err)
	}
	defer e.Close()

	if enqueueFlag {
		client, err := scheduler.NewClient(e.cfg)
		if err != nil {
			exitErr("scheduler client", err)
		}
		defer func() { _ = client.Close() }()

		enqueued, err := client.EnqueueTemperatureDecay(cmd.Context(), scheduler.TriggerManual)
		if err != nil {
			exitErr("enqueue", err)
		}
		if !enqueued {
			fmt.Println("a temperature decay run is already queued")
			return
		}
		fmt.Println("temperature decay run enqueued")
		return
	}

	bus := events.NewInMemoryBus(e.log)
	runner := adapters.NewDecayRunner(e.pool, bus, clock.Real{}, e.cfg, e.log)
	outcomes, err := runner.RunForAllTenants(cmd.Context())
	bus.Wait()
	if err != nil {
		exitErr("decay run", err)
	}
	if err := printOutcomes(os.Stdout, outcomes, formatFlag); err != nil {
		exitErr("output", err)
	}
}

func runDecayPreview(cmd *cobra.Command, args []string) {
	var tenantID uuid.UUID
	if tenantFlag != "" {
		parsed, err := uuid.Parse(tenantFlag)
		if err != nil {
			exitErr("tenant", err)
		}
		tenantID = parsed
	}

	e, err := openEnv(cmd.Context())
	if err != nil {
		exitErr("startup", err)
	}
	defer e.Close()

	runner := adapters.NewDecayRunner(e.pool, events.NewInMemoryBus(e.log), clock.Real{}, e.cfg, e.log)

	var outcomes []automation.TenantOutcome
	if tenantID != uuid.Nil {
		outcomes = []automation.TenantOutcome{runner.PreviewTenant(cmd.Context(), tenantID)}
	} else {
		outcomes, err = runner.Preview(cmd.Context())
		if err != nil {
			exitErr("decay preview", err)
		}
	}
	if err := printOutcomes(os.Stdout, outcomes, formatFlag); err != nil {
		exitErr("output", err)
	}
}

func printOutcomes(w io.Writer, outcomes []automation.TenantOutcome, format string) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(outcomes, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "text":
		for _, o := range outcomes {
			fmt.Fprintf(w, "tenant %s: analyzed=%d transitioned=%d notified=%d errors=%d\n",
				o.TenantID, o.Analyzed, o.Transitioned, o.Notified, len(o.Errors))
			for _, t := range o.Transitions {
				fmt.Fprintf(w, "  %s %s -> %s after %dd\n", t.LeadID, t.From, t.To, t.ElapsedDays)
			}
			for _, msg := range o.Errors {
				fmt.Fprintf(w, "  error: %s\n", msg)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
