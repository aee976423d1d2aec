package event

// EventSchemaVersion is the schema version stamped on published events
const EventSchemaVersion = "1.0"
