// Package all imports all built-in docstore extensions.
// Import this package to register every built-in command.
package all

import (
	// Each registers itself via init()
	_ "github.com/jpl-au/docstore/extension/core"
	_ "github.com/jpl-au/docstore/extension/document"
	_ "github.com/jpl-au/docstore/extension/link"
	_ "github.com/jpl-au/docstore/extension/publish"
	_ "github.com/jpl-au/docstore/extension/search"
)
