package cmds

import (
	"fmt"

	"github.com/go-go-golems/brainstorm/pkg/completion"
	"github.com/go-go-golems/brainstorm/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/middlewares"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	ExitGeneration    = 2
	ExitConfiguration = 3
)

// ExitCode maps a failed run to the process exit status.
func ExitCode(err error) int {
	var genErr *completion.GenerationError
	var cfgErr *settings.ConfigurationError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &genErr):
		return ExitGeneration
	case errors.As(err, &cfgErr):
		return ExitConfiguration
	default:
		return 1
	}
}

// configMapper puts the flat keys of the config file into the default layer.
// Nested maps belong to no brainstorm parameter and are skipped.
func configMapper(rawConfig interface{}) (map[string]map[string]interface{}, error) {
	configMap, ok := rawConfig.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected map[string]interface{}, got %T", rawConfig)
	}

	params := map[string]interface{}{}
	for key, value := range configMap {
		if _, nested := value.(map[string]interface{}); nested {
			continue
		}
		params[key] = value
	}

	return map[string]map[string]interface{}{
		layers.DefaultSlug: params,
	}, nil
}

// GetBrainstormMiddlewares resolves parameters from flags, then
// BRAINSTORM_* environment variables, then the config file found by viper,
// then the defaults.
func GetBrainstormMiddlewares(
	parsedCommandLayers *layers.ParsedLayers,
	cmd *cobra.Command,
	args []string,
) ([]middlewares.Middleware, error) {
	middlewares_ := []middlewares.Middleware{
		// Highest precedence: command-line flags
		middlewares.ParseFromCobraCommand(cmd,
			parameters.WithParseStepSource("cobra"),
		),
		middlewares.GatherArguments(args,
			parameters.WithParseStepSource("arguments"),
		),
		middlewares.UpdateFromEnv("BRAINSTORM",
			parameters.WithParseStepSource("env"),
		),
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		middlewares_ = append(middlewares_,
			middlewares.LoadParametersFromFiles(
				[]string{configFile},
				middlewares.WithConfigFileMapper(configMapper),
				middlewares.WithParseOptions(parameters.WithParseStepSource("config")),
			),
		)
	}

	// Lowest precedence: defaults
	middlewares_ = append(middlewares_,
		middlewares.SetFromDefaults(parameters.WithParseStepSource("defaults")),
	)

	return middlewares_, nil
}
