package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/agriservices/farmbridge/internal/connector"
	"github.com/agriservices/farmbridge/internal/temporal"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal worker executing bridge operations with retries",
	Args:  cobra.NoArgs,
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger.Info("starting worker",
		zap.String("address", cfg.Temporal.HostPort),
		zap.String("namespace", cfg.Temporal.Namespace),
		zap.String("queue", cfg.Temporal.TaskQueue))

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer c.Close()

	dispatcher := connector.NewDispatcher(cfg.Endpoints(), cfg.Transport.ClientConfig(), logger)
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	temporal.Register(w, temporal.NewActivities(dispatcher))
	logger.Info("registered workflow and activity",
		zap.String("workflow", temporal.BridgeOperationWorkflowName),
		zap.String("activity", temporal.InvokeOperationActivityName))

	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}
