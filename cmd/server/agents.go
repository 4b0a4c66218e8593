package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/agentroom-server/internal/agent"
	"github.com/vovakirdan/agentroom-server/internal/config"
)

func newAgentsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the configured agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.Read(configPath)
			if err != nil {
				return err
			}
			registry, err := agent.NewRegistry(cfg.Agents)
			if err != nil {
				return err
			}
			return printAgents(cmd.OutOrStdout(), registry, cfg.AI.Model)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (default ./config.yaml)")
	return cmd
}

func printAgents(w io.Writer, registry *agent.Registry, defaultModel string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIGGER\tNAME\tMODEL")
	for _, a := range registry.Agents() {
		model := a.Model
		if model == "" {
			model = defaultModel
		}
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Trigger, a.Name, model)
	}
	return tw.Flush()
}
