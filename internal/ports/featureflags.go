package ports

import "context"

// Feature flag names read by the application layer.
const (
	// FlagMoveQuotesOnRemove makes removing a collection move its quotes to
	// the default collection unless the caller says otherwise.
	FlagMoveQuotesOnRemove = "move-quotes-on-remove"

	// FlagImportStrict makes an import fail as soon as one source fails.
	FlagImportStrict = "import-strict"

	// FlagImportLimit caps the quotes fetched per source.
	FlagImportLimit = "import-max-limit"
)

// FeatureFlags reads the features section of the configuration. Every
// lookup names the value to use when the flag is unset or has another
// type, so a missing flag never fails an operation.
type FeatureFlags interface {
	IsEnabled(ctx context.Context, flag string, defaultValue bool) bool
	GetString(ctx context.Context, flag string, defaultValue string) string
	GetInt(ctx context.Context, flag string, defaultValue int) int
}
