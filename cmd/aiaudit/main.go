// Package main provides the entry point for the aiaudit CLI.
//
// aiaudit measures how visible a clinic website is to AI assistants and
// answer engines. It discovers and fetches the site's pages, extracts
// signals, scores twelve categories and stores every run so later audits
// can be compared.
//
// Usage:
//
//	aiaudit audit https://clinic.example
//	aiaudit compare https://clinic.example
//	aiaudit watch --schedule "@daily" https://clinic.example
//
// See --help for all available options.
package main

func main() {
	Execute()
}
