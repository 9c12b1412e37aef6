package version

// Version is the converter release, printed with -version and at start.
const Version = "v0.3.0"
