// Package main provides the bucketreader CLI for fetching objects from S3,
// GCS or a local directory tree, retrying transient failures.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
