package ir

// ToolVersion is the mestrack release version.
const ToolVersion = "0.1.0"
