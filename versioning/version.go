package versioning

// Version is stamped by the release pipeline.
var Version = "dev"
