// Package main provides the phishguard command line.
//
// Usage:
//
//	phishguard analyze <url>...
//	phishguard batch --input urls.csv --format csv
//	phishguard features
package main

func main() {
	Execute()
}
