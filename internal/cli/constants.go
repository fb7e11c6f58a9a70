package cli

// Default values for CLI flags and output.
const (
	// TabWidth is the padding between columns in tabular output.
	TabWidth = 2

	// OutputJSON selects JSON output for list commands.
	OutputJSON = "json"

	// Number of arguments expected by the config set command.
	setCommandArgs = 2
)
