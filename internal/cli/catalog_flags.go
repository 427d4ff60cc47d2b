package cli

import (
	"github.com/spf13/cobra"

	"github.com/khanglvm/vidrank/internal/classifier"
	"github.com/khanglvm/vidrank/internal/config"
)

// catalogFlags override the catalog section of the config.
type catalogFlags struct {
	path        string
	source      string
	invalidRows string
	classifier  string
	command     string
}

func (f *catalogFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "catalog", "", "Catalog CSV path (overrides catalog.path)")
	cmd.Flags().StringVar(&f.source, "source", "", "Catalog source: csv or sqlite")
	cmd.Flags().StringVar(&f.invalidRows, "invalid-rows", "", "Invalid row policy: reject or skip")
	cmd.Flags().StringVar(&f.classifier, "classifier", "", "Classifier kind: process or threshold")
	cmd.Flags().StringVar(&f.command, "model-command", "", "Model process command (implies --classifier process)")
}

// apply writes set flags into cfg and revalidates.
func (f *catalogFlags) apply(cfg *config.Config) error {
	if f.path != "" {
		cfg.Catalog.Path = f.path
	}
	if f.source != "" {
		cfg.Catalog.Source = f.source
	}
	if f.invalidRows != "" {
		cfg.Catalog.InvalidRows = f.invalidRows
	}
	if f.command != "" {
		cfg.Classifier.Command = f.command
		if f.classifier == "" {
			cfg.Classifier.Kind = classifier.KindProcess
		}
	}
	if f.classifier != "" {
		cfg.Classifier.Kind = f.classifier
	}
	return cfg.Validate()
}
