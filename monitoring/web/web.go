// Package web holds the page served by the inspection server.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
)

// AssetDirEnv names a directory whose files replace the embedded page.
const AssetDirEnv = "SDRAMINIT_MONITOR_ASSETS"

//go:embed dist/*
var dist embed.FS

// Assets returns the files to serve under "/". The embedded page is used
// unless AssetDirEnv points at a directory.
func Assets() http.FileSystem {
	if dir, ok := assetDir(); ok {
		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func assetDir() (string, bool) {
	dir := os.Getenv(AssetDirEnv)
	if dir == "" {
		return "", false
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}

	return dir, true
}
