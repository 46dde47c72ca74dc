// Package ffprobe runs ffprobe and decodes its JSON stream and format report.
//
// Inspect is the only entry point that executes a process; the helpers on
// Result pick out the facts the upload path needs, such as the first video
// stream's frame size.
package ffprobe
