package cmds

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/muse/pkg/config"
)

// NewPricingCommand prints the effective pricing table (USD per 1M tokens) as
// YAML, in the format PRICING_FILE accepts.
func NewPricingCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "pricing",
		Short: "Print the model pricing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &config.Settings{PricingFile: v.GetString(config.KeyPricingFile)}
			table, err := s.PricingTable(afero.NewOsFs())
			if err != nil {
				return err
			}
			return table.WriteYAML(cmd.OutOrStdout())
		},
	}
}
