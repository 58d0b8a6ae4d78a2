// Package webfetch provides the fetch_url tool: it downloads a page and
// returns its content as Markdown, truncated to a size a model can take in.
package webfetch
