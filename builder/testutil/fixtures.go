// Package testutil provides testing utilities and fixtures
package testutil

import "strings"

// SampleMarkdown is a Jawa document mixing prose with content that must
// survive conversion untouched.
const SampleMarkdown = `---
title: Serat
variant: jawa
---

# buku

aku maca tulisan.

` + "```go\nfmt.Println(\"tulisan\")\n```" + `

Rumus $x + y$ ora diowahi, ` + "`kode`" + ` uga ora.

- sega
- omah
`

// SampleConfigYAML is an aksara.yaml naming every section.
const SampleConfigYAML = `defaultVariant: jawa
strictStages: false
cacheDir: .cache
workers: 2
minifyHTML: true
addr: "127.0.0.1:0"
shutdownTimeout: 1s
debounceDuration: 20ms
`

// LargeText returns n repetitions of a short Latin sentence.
func LargeText(n int) string {
	return strings.Repeat("aku maca buku. ", n)
}
