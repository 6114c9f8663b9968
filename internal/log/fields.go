package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldClientIP  = "client_ip"
	FieldSource    = "source"
	FieldImported  = "imported"
	FieldVersion   = "version"
	FieldRecords   = "records"
	FieldColumns   = "columns"
	FieldError     = "error"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentIngest  = "ingest"
	ComponentStore   = "store"
	ComponentAMQP    = "amqp"
	ComponentBackend = "backend"
)
