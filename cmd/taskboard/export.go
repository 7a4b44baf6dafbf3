package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/logger"
	"github.com/Joseda-hg/taskboard/internal/model"
)

type snapshot struct {
	Projects []model.Project `json:"projects" yaml:"projects"`
	Tasks    []model.Task    `json:"tasks" yaml:"tasks"`
}

func newExportCmd(v *viper.Viper) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the board as JSON or YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(v)
			if err != nil {
				return err
			}
			svc, closeDB, err := openService(cmd.Context(), cfg, logger.Discard())
			if err != nil {
				return err
			}
			defer closeDB()

			return writeSnapshot(cmd.OutOrStdout(), svc.Snapshot(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

func writeSnapshot(w io.Writer, b board.Board, format string) error {
	snap := snapshot{Projects: b.Projects, Tasks: b.Tasks}
	if snap.Projects == nil {
		snap.Projects = []model.Project{}
	}
	if snap.Tasks == nil {
		snap.Tasks = []model.Task{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
