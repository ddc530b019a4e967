package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baaakgun4543/unlurk/internal/provider"
)

func newDraftCmd(opts *rootOptions) *cobra.Command {
	var contextPath, templatePath, hint string
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Generate one draft with the configured provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			c, err := readContextFile(contextPath)
			if err != nil {
				return err
			}
			tmpl, err := readTemplate(templatePath, a.template)
			if err != nil {
				return err
			}

			d, err := a.dispatcher().Draft(cmd.Context(), provider.Request{Hint: hint, Template: tmpl, Context: c})
			if err != nil {
				var perr *provider.Error
				if errors.As(err, &perr) && perr.Hint != "" {
					return fmt.Errorf("%w (try: %s)", err, perr.Hint)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&contextPath, "context", "", "JSON file with the user and page context (- for stdin)")
	cmd.Flags().StringVar(&templatePath, "template", "", "custom template file with {{name}} placeholders")
	cmd.Flags().StringVar(&hint, "hint", "", "instruction sent as the user turn")
	return cmd
}
