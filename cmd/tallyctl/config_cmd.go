package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tally/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path := a.configFilePath()
			fmt.Fprintf(a.out, "  Config file: %s\n", path)
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintln(a.out, "  Status: loaded")
			} else {
				fmt.Fprintln(a.out, "  Status: using defaults (no config file)")
			}
			fmt.Fprintln(a.out)

			fmt.Fprintln(a.out, "  [export]")
			fmt.Fprintf(a.out, "    Format:          %s\n", a.file.Export.Format)
			headers := "default"
			if h := a.file.Export.IncludeHeaders; h != nil {
				headers = fmt.Sprint(*h)
			}
			fmt.Fprintf(a.out, "    Include headers: %s\n", headers)
			if a.file.Export.OutputDir != "" {
				fmt.Fprintf(a.out, "    Output dir:      %s\n", a.file.Export.OutputDir)
			}
			fmt.Fprintln(a.out)

			fmt.Fprintln(a.out, "  [source]")
			fmt.Fprintf(a.out, "    User:    %s\n", a.file.Source.UserID)
			if a.file.Source.DBPath != "" {
				fmt.Fprintf(a.out, "    DB path: %s\n", a.file.Source.DBPath)
			}
			fmt.Fprintln(a.out)

			fmt.Fprintln(a.out, "  [auth]")
			if a.file.Auth.JWTSecret != "" {
				fmt.Fprintln(a.out, "    JWT secret: configured")
			} else {
				fmt.Fprintln(a.out, "    JWT secret: not configured")
			}
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path := a.configFilePath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveFile(path, config.DefaultFileConfig()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "  Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
