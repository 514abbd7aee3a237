// flags.go defines constants for CLI flag names shared by extensions.
//
// Naming convention: Flag<PascalCaseName> where name matches the kebab-case
// CLI flag (e.g., "create-only" -> FlagCreateOnly).

package extension

const (
	// Boolean flags

	FlagCreateOnly = "create-only" // Fail if the record exists
	FlagDesc       = "desc"        // Sort descending
	FlagDryRun     = "dry-run"     // Preview without making changes
	FlagGlobal     = "global"      // Use global config scope
	FlagHidden     = "hidden"      // Include hidden files/directories
	FlagIDs        = "ids"         // Print ids only
	FlagIncoming   = "incoming"    // Edges arriving at a record
	FlagLocal      = "local"       // Use local config scope
	FlagLong       = "long"        // Long listing format
	FlagNumber     = "number"      // Number output lines
	FlagRaw        = "raw"         // Include soft-deleted state
	FlagRecursive  = "recursive"   // Operate on every id under a prefix
	FlagSoft       = "soft"        // Soft delete
	FlagTree       = "tree"        // Tree listing format
	FlagUpdateOnly = "update-only" // Fail if the record is missing

	// String flags

	FlagAddr      = "addr"       // Listen address
	FlagBackend   = "backend"    // Backend kind
	FlagContext   = "context"    // Linked-data context
	FlagData      = "data"       // JSON data payload
	FlagEvery     = "every"      // Repeat interval
	FlagExt       = "ext"        // File extension
	FlagFields    = "fields"     // Data fields to search
	FlagFile      = "file"       // Read content from a file
	FlagLines     = "lines"      // Line range START:END
	FlagOlderThan = "older-than" // Duration threshold
	FlagPrefix    = "prefix"     // Id prefix
	FlagSort      = "sort"       // Sort key
	FlagStatus    = "status"     // Action status filter
	FlagType      = "type"       // Type tag or filter
	FlagVersion   = "version"    // Expected version token
	FlagWhere     = "where"      // Data predicate k=v

	// Integer flags

	FlagLimit  = "limit"  // Limit number of results
	FlagOffset = "offset" // Skip this many results
)
