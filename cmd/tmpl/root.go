package tmpl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/unikv/unikv/cmd/util"
	"github.com/unikv/unikv/lib/keytmpl"
)

var (

	// TemplateCommands represents the key template command group
	TemplateCommands = &cobra.Command{
		Use:   "tmpl",
		Short: "Work with key construction templates",
	}

	renderCmd = &cobra.Command{
		Use:   "render [template] [field=value]...",
		Short: "Renders a key template with the given field values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := keytmpl.Parse(args[0])
			if err != nil {
				return err
			}

			vars := make(map[string]any, len(args)-1)
			for _, arg := range args[1:] {
				field, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid field assignment %q (expected field=value)", arg)
				}
				vars[field] = value
			}

			key, err := tmpl.Render(cmd.Context(), vars)
			if err != nil {
				var missing *keytmpl.MissingFieldsError
				if errors.As(err, &missing) {
					return fmt.Errorf("missing fields: %s", strings.Join(missing.Fields, ", "))
				}
				return err
			}

			fmt.Println(key)
			return nil
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check [template]",
		Short: "Validates a key template without rendering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := keytmpl.Parse(args[0]); err != nil {
				return err
			}
			fmt.Println("template valid")
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	TemplateCommands.AddCommand(renderCmd)
	TemplateCommands.AddCommand(checkCmd)
}
