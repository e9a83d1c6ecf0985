package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/agriservices/farmbridge/internal/bridge"
	"github.com/agriservices/farmbridge/internal/connector"
	"github.com/agriservices/farmbridge/internal/idalloc"
	"github.com/agriservices/farmbridge/internal/temporal"
)

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "List the registered bridge operations",
	Args:  cobra.NoArgs,
	RunE:  runOperations,
}

var (
	invokeParams  string
	invokeBearer  string
	invokeDurable bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <operation-id>",
	Short: "Run one bridge operation and print the result as JSON",
	Example: `  farmbridge invoke crop.list
  farmbridge invoke billing.invoice.generate --params '{"farmerName":"Alice Martin","amount":"1250.75"}'
  farmbridge invoke crop.list --durable`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoke,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the invoice id sequence migrations (requires FARMBRIDGE_DATABASE_URL)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.URL == "" {
			return fmt.Errorf("database url is not configured")
		}
		if err := idalloc.Migrate(context.Background(), cfg.Database.URL); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "invoice id sequence is up to date")
		return nil
	},
}

func init() {
	invokeCmd.Flags().StringVar(&invokeParams, "params", "{}", "Operation parameters as a JSON object")
	invokeCmd.Flags().StringVar(&invokeBearer, "bearer", "", "Bearer credential forwarded to the backend")
	invokeCmd.Flags().BoolVar(&invokeDurable, "durable", false, "Run through the Temporal worker with its retry policy")
}

func runOperations(cmd *cobra.Command, args []string) error {
	registry := connector.NewRegistry(cfg.Endpoints())
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATION\tFAMILY\tIDEMPOTENT\tPARAMS\tDESCRIPTION")
	for _, d := range registry.List() {
		names := make([]string, len(d.Params))
		for i, p := range d.Params {
			names[i] = p.Name + ":" + string(p.Type)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", d.ID, d.Family, d.Idempotent, strings.Join(names, ","), d.Description)
	}
	return tw.Flush()
}

func runInvoke(cmd *cobra.Command, args []string) error {
	params := bridge.Params{}
	dec := json.NewDecoder(strings.NewReader(invokeParams))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return fmt.Errorf("--params: %w", err)
	}
	if invokeDurable {
		if invokeBearer != "" {
			return fmt.Errorf("--bearer cannot be combined with --durable")
		}
		return runDurableInvoke(cmd, args[0], params)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Transport.Timeout)
	defer cancel()
	ctx = bridge.WithBearer(ctx, invokeBearer)

	dispatcher := connector.NewDispatcher(cfg.Endpoints(), cfg.Transport.ClientConfig(), logger)
	res, err := dispatcher.Invoke(ctx, args[0], params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"operationId": res.OperationID,
		"callId":      res.CallID,
		"empty":       res.Empty,
		"value":       res.Value,
	})
}

// runDurableInvoke starts BridgeOperationWorkflow and waits for its result.
// Workflow inputs are persisted in history, so no caller credential is sent.
func runDurableInvoke(cmd *cobra.Command, operationID string, params bridge.Params) error {
	input, err := temporal.NewOperationInput(connector.NewRegistry(cfg.Endpoints()), operationID, params, cfg.Transport.Timeout)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer c.Close()

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{TaskQueue: cfg.Temporal.TaskQueue},
		temporal.BridgeOperationWorkflowName, input)
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	logger.Info("started bridge workflow",
		zap.String("operation", input.OperationID),
		zap.Bool("idempotent", input.Idempotent),
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()))

	var out temporal.OperationOutput
	if err := run.Get(ctx, &out); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
