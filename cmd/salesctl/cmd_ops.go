package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/cloudkitchen/pkg/discovery"
	"github.com/example/cloudkitchen/pkg/grpc"
	"github.com/example/cloudkitchen/pkg/repository"
)

const probeTimeout = 3 * time.Second

var (
	auditLimit  int64
	serviceName string

	mongoRepo *repository.MongoRepository
)

var auditCmd = &cobra.Command{
	Use:   "audit <order-id>",
	Short: "Show the audit trail of one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List storefront instances and their health",
	Args:  cobra.NoArgs,
	RunE:  runNodes,
}

func init() {
	auditCmd.Flags().Int64VarP(&auditLimit, "limit", "n", 20, "maximum entries")
	nodesCmd.Flags().StringVar(&serviceName, "service", "", "service name (default from config)")
}

// auditorFor connects the audit log for commands that write or read it.
// Without MongoDB the commands still run and nothing is recorded.
func auditorFor(cmd *cobra.Command) repository.Auditor {
	if cfg.MongoDB.URI == "" || (cmd != clearCmd && cmd != auditCmd) {
		return repository.NopAuditor{}
	}
	repo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return repository.NopAuditor{}
	}
	mongoRepo = repo
	cobra.OnFinalize(func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		_ = repo.Close(ctx)
	})
	return repo
}

func runAudit(cmd *cobra.Command, args []string) error {
	if mongoRepo == nil {
		return errors.New("audit log is not configured (set mongodb.uri)")
	}

	logs, err := mongoRepo.GetAuditLogs(cmd.Context(), args[0], auditLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(logs) == 0 {
		fmt.Fprintf(out, "No audit entries for order %s.\n", args[0])
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSERVICE\tACTION\tDATA")
	for _, l := range logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", l.CreatedAt.Local().Format(time.RFC3339), l.Service, l.Action, l.Data)
	}
	return tw.Flush()
}

func runNodes(cmd *cobra.Command, args []string) error {
	if len(cfg.Etcd.Endpoints) == 0 {
		return errors.New("service discovery is not configured (set etcd.endpoints)")
	}

	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
	if err != nil {
		return err
	}
	defer sd.Close()

	name := serviceName
	if name == "" {
		name = cfg.Server.Name
	}
	instances, err := sd.Discover(cmd.Context(), name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(instances) == 0 {
		fmt.Fprintf(out, "No %s instances registered.\n", name)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tHTTP\tSTARTED\tHEALTH")
	for _, inst := range instances {
		target := fmt.Sprintf("%s:%d", inst.Host, inst.GRPCPort)
		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		status, err := grpc.Probe(ctx, target, "")
		cancel()
		if err != nil {
			status = "UNREACHABLE"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", target, inst.HTTPAddr(), inst.StartedAt.Local().Format(time.RFC3339), status)
	}
	return tw.Flush()
}
