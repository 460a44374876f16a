package version

// Commit 构建时通过 -ldflags "-X shelter-map/internal/version.Commit=..." 注入
var Commit = "dev"
