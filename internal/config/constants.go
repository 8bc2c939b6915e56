package config

// ManifestFileExt is the extension of operation manifests read by the front-end.
const ManifestFileExt = ".yaml"

// ManifestFileExtensions are all recognized manifest file extensions
var ManifestFileExtensions = []string{".yaml", ".yml"}

// IsTestMode indicates if the program is running under tests.
// Rendering code uses it to drop nondeterministic parts (node ids, generations).
var IsTestMode = false

// Synthesized specialization ids
const (
	UninitializedID = "Uninitialized"
	GenericID       = "Generic"
	PolymorphicID   = "Polymorphic"
)

// Built-in type names
const (
	AnyTypeName    = "Any"
	IntTypeName    = "Int"
	DoubleTypeName = "Double"
	BigIntTypeName = "BigInt"
	StringTypeName = "String"
	BoolTypeName   = "Bool"
)

// Engine defaults
const (
	// DefaultPolymorphicLimit of 0 means the computed depth bound is used as is.
	DefaultPolymorphicLimit = 0
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
)
