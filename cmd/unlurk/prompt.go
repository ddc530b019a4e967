package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/baaakgun4543/unlurk/internal/prompt"
)

func newPromptCmd(opts *rootOptions) *cobra.Command {
	var contextPath, templatePath string
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt composed for a context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, io.Discard)
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
			fmt.Fprintln(cmd.OutOrStdout(), prompt.Build(c, tmpl))
			return nil
		},
	}
	cmd.Flags().StringVar(&contextPath, "context", "", "JSON file with the user and page context (- for stdin)")
	cmd.Flags().StringVar(&templatePath, "template", "", "custom template file with {{name}} placeholders")
	return cmd
}
