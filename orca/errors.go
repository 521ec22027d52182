package orca

import "errors"

// ErrDefaultsNotConfigured is returned by AddAgent when SetAgentDefaults
// has not yet been called. The identifier returned alongside it is always
// InvalidAgent (spec §6's "all-ones size value" sentinel).
var ErrDefaultsNotConfigured = errors.New("orca: agent defaults not configured")
