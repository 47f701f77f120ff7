package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldSource is the upstream source site key
	FieldSource = "source"

	// FieldSessionID is the browse session ID
	FieldSessionID = "session_id"

	// FieldClientID is the browser-generated device ID used for the library
	FieldClientID = "client_id"
)

// Metric fields, attached per entry for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldPage is the requested upstream page number
	FieldPage = "page"

	// FieldGeneration is the loader reset generation a request belongs to
	FieldGeneration = "generation"
)
