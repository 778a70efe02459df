package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/flock/internal/config"
	"github.com/wesleyorama2/flock/internal/output"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a configuration file",
		Long: `Load a configuration file, check it against the schema and the semantic
rules, and list every problem found. --schema prints the JSON Schema that
files are checked against.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().Bool("schema", false, "Print the configuration JSON Schema and exit")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	if printSchema, _ := cmd.Flags().GetBool("schema"); printSchema {
		fmt.Fprint(cmd.OutOrStdout(), config.Schema())
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("validate needs a configuration file")
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	out := cmd.OutOrStdout()
	colors := output.DefaultColorScheme()
	if !output.UseColor(out, noColor) {
		colors = output.NoColorScheme()
	}

	cfg, err := config.LoadConfig(args[0])
	if err == nil {
		cfg.ApplyDefaults()
		err = cfg.Validate()
	}

	if err != nil {
		fmt.Fprintf(out, "%s %s\n", colors.ErrorIcon(), colors.Error.Sprintf("%s is invalid", args[0]))

		var verrs *config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs.Errors {
				fmt.Fprintf(out, "  - %s\n", e.Error())
			}
			return fmt.Errorf("%d configuration error(s)", len(verrs.Errors))
		}
		return err
	}

	fmt.Fprintf(out, "%s %s\n", colors.SuccessIcon(), colors.Success.Sprintf("%s is valid", args[0]))
	fmt.Fprintf(out, "  %s %s\n", colors.Label.Sprint("Target:"), colors.URL.Sprint(cfg.TargetURL()))
	waitMin, waitMax := cfg.User.WaitBounds()
	fmt.Fprintf(out, "  %s %s - %s\n", colors.Label.Sprint("Wait:"), waitMin, waitMax)
	fmt.Fprintf(out, "  %s %s\n", colors.Label.Sprint("Timeout:"), cfg.User.Timeout)
	return nil
}
