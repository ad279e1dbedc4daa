package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/connoisseur/noisseur/internal/server"
	"github.com/connoisseur/noisseur/internal/template"
)

var templatesOutput string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect and validate screen templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured templates in match order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), templatesOutput, server.Summarize(store.Registry()))
	},
}

var templatesValidateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check template files against the template schema",
	Long: `Check template files against the template schema.

With no arguments the configured sources are checked. Every file is
reported; the command fails if any file is invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			sources, err := cfg.TemplateSources()
			if err != nil {
				return err
			}
			for _, src := range sources {
				if !filepath.IsAbs(src) {
					src = filepath.Join(cfg.Templates.Root, src)
				}
				paths = append(paths, src)
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range paths {
			m, err := template.Load(path)
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
				continue
			}
			if m.ControlItem() == nil {
				fmt.Fprintf(out, "WARN %s: %s has no control point and will never match\n", path, m.ID)
				continue
			}
			fmt.Fprintf(out, "ok   %s (%s)\n", path, m.ScreenType)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d templates invalid", failed, len(paths))
		}
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id|screen_type>",
	Short: "Print one template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		reg := store.Registry()
		m := reg.FindByID(args[0])
		if m == nil {
			m = reg.FindByScreenType(args[0])
		}
		if m == nil {
			return fmt.Errorf("no template with id or screen type %q", args[0])
		}
		data, err := template.Marshal(m, template.Format(templatesOutput))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	templatesCmd.PersistentFlags().StringVarP(&templatesOutput, "output", "o", "yaml", "output format: json or yaml")

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesValidateCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	rootCmd.AddCommand(templatesCmd)
}
