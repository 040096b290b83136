package main

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "A generation-based filesystem link manager"
	MsgApplyShort      = "Apply a configuration and create a new generation"
	MsgListShort       = "List all generations"
	MsgShowShort       = "Show one generation in detail"
	MsgCurrentShort    = "Show the currently active generation"
	MsgVerifyShort     = "Verify the active generation's links on disk"
	MsgSwitchShort     = "Switch to a previously created generation"
	MsgDeleteShort     = "Delete a non-active generation"
	MsgGenconfigShort  = "Print a starter configuration file"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgNoGenerations    = "No generations found."
	MsgGenerationsHead  = "Generations:"
	MsgNoActive         = "No active generation"
	MsgApplied          = "Created and activated generation %d (%d links)\n"
	MsgSwitched         = "Switched to generation %d\n"
	MsgDeleted          = "Deleted generation %d\n"
	MsgDeleteAborted    = "Aborted."
	MsgDeleteConfirm    = "Delete generation %d? (y/N): "
	MsgVerifyAllOk      = "All %d links are correctly configured\n"
	MsgVerifyProblems   = "Found %d problem(s):\n"
	MsgVerifyEmpty      = "Nothing to verify: no active generation"
	MsgEntryOverwrote   = "  ! overwrote existing object at %s\n"
	MsgEntryBackedUp    = "  ~ backed up %s to %s\n"
	MsgNoConfigFound    = "no configuration file found (looked for %s)"
)
