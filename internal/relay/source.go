package relay

import (
	"fmt"

	"github.com/JonMunkholm/ohan/internal/airtable"
	"github.com/JonMunkholm/ohan/internal/config"
	"github.com/JonMunkholm/ohan/internal/sheet"
)

// NewSource builds the upstream named by cfg.Source.Kind.
func NewSource(cfg *config.Config) (Source, error) {
	switch cfg.Source.Kind {
	case config.SourceAirtable, "":
		return airtable.NewClient(cfg.Airtable, nil), nil
	case config.SourceSheet:
		return sheet.NewSource(cfg.Source.SheetCSVURL, cfg.Airtable.Timeout, nil), nil
	default:
		return nil, fmt.Errorf("unknown clinic source %q", cfg.Source.Kind)
	}
}
