package popover

import (
	"github.com/jmylchreest/popanchor/internal/config"
)

// Options holds the naming conventions and numeric behaviour of a Registry.
type Options struct {
	IDPrefix            string
	FlipAttribute       string
	ContainerAttribute  string
	MainContainer       string
	AppBarClass         string
	Precision           int
	LegacyDefaultAnchor bool
}

// DefaultOptions returns the options matching config.DefaultConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Placement)
}

// OptionsFromConfig converts the placement section of the configuration.
func OptionsFromConfig(c config.PlacementConfig) Options {
	return Options{
		IDPrefix:            c.IDPrefix,
		FlipAttribute:       c.FlipAttribute,
		ContainerAttribute:  c.ContainerAttribute,
		MainContainer:       c.MainContainer,
		AppBarClass:         c.AppBarClass,
		Precision:           c.Precision,
		LegacyDefaultAnchor: c.LegacyDefaultAnchor,
	}
}

// ElementID returns the document id of the popover registered as id.
func (o Options) ElementID(id string) string {
	return o.IDPrefix + id
}
