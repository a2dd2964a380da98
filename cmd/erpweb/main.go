// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/app"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/permmap"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/resource"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "erpweb",
	Short: "ERP web frontend",
	Long: `erpweb serves the ERP dashboard: server-rendered pages over the ERP
REST API, with the session kept in HTTP-only token cookies.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cfgFile)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		app.PrintVersion(cmd.OutOrStdout())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validation error: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration (sensitive values masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg.PrintMasked(cmd.OutOrStdout())
		return nil
	},
}

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Permission map commands",
}

var permissionsCheckCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check that every resource path has a permission definition",
	Long: `Scan source trees (default: the current directory) and the embedded
page catalog for backend resource paths, and report those missing from the
permission map. Exits non-zero when any path is unmapped or none was found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roots := args
		if len(roots) == 0 {
			roots = []string{"."}
		}

		found := map[string]bool{}
		for _, root := range roots {
			paths, err := permmap.ScanSource(root)
			if err != nil {
				return err
			}
			for _, p := range paths {
				found[p] = true
			}
		}
		if embedded, _ := cmd.Flags().GetBool("catalog"); embedded {
			catalog, err := resource.Load()
			if err != nil {
				return err
			}
			for _, p := range catalog.ResourcePaths() {
				found[permmap.NormalizePath(p)] = true
			}
		}

		paths := make([]string, 0, len(found))
		for p := range found {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		out := cmd.OutOrStdout()
		missing, err := permmap.Check(paths)
		for _, p := range missing {
			fmt.Fprintf(out, "unmapped: %s\n", p)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "All %d resource paths are mapped\n", len(paths))
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: /etc/erpweb/config.yaml or ./config.yaml)")

	permissionsCheckCmd.Flags().Bool("catalog", true, "include the embedded page catalog")

	// Build command tree
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	permissionsCmd.AddCommand(permissionsCheckCmd)
	rootCmd.AddCommand(permissionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
